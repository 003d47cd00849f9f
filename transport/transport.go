// Package transport delivers encoded carbon lines over a stream (TCP) or datagram (UDP)
// connection.
//
// A Transport starts unconnected, dials on the first Send, reuses that connection for
// later sends and is released by Close. Close is terminal: any Send afterwards fails
// with obserr.ErrUseAfterDispose without touching the network.
package transport

import (
	"context"
	"strings"
	"time"

	"github.com/mixpanel/carbon/logging"
	"github.com/mixpanel/carbon/metrics"
	"github.com/mixpanel/carbon/obserr"
)

// Mode selects the network a Transport uses.
type Mode string

const (
	Stream   Mode = "tcp"
	Datagram Mode = "udp"
)

// ParseMode accepts "tcp"/"stream" and "udp"/"datagram", case-insensitively. An empty
// string means Stream.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tcp", "stream":
		return Stream, nil
	case "udp", "datagram":
		return Datagram, nil
	}
	return "", obserr.Kind(obserr.ErrInvalidConfiguration, "unsupported transport").Set("transport", s)
}

// Transport sends batches of encoded lines.
//
// Send writes lines in order and returns after every line was handed to the network or
// the first failure. A failure aborts the rest of the batch; lines already written are
// not taken back. The returned error carries the number of lines written under the
// "sent" key (see obserr.Error.Get).
type Transport interface {
	Send(ctx context.Context, lines [][]byte) error
	// SendAsync runs Send without blocking the caller. The channel yields exactly one
	// value. lines must not be modified until then.
	SendAsync(ctx context.Context, lines [][]byte) <-chan error
	// Close releases the connection, interrupting in-flight sends. It is idempotent.
	Close() error

	Mode() Mode
	Endpoint() Endpoint
}

// Options tune a Transport. The zero value is usable.
type Options struct {
	// DialTimeout bounds connection establishment. Zero leaves it to the OS.
	DialTimeout time.Duration
	// WriteTimeout bounds each line write. Zero leaves it to the OS.
	WriteTimeout time.Duration
	// Hook receives connection events. Defaults to metrics.NullHook.
	Hook metrics.Hook
	// Logger defaults to logging.Null.
	Logger logging.Logger
}

func (o Options) withDefaults() Options {
	if o.Hook == nil {
		o.Hook = metrics.NullHook
	}
	if o.Logger == nil {
		o.Logger = logging.Null
	}
	return o
}

// New creates a Transport for mode.
func New(mode Mode, endpoint Endpoint, opts Options) (Transport, error) {
	switch mode {
	case Stream:
		return NewStream(endpoint, opts), nil
	case Datagram:
		return NewDatagram(endpoint, opts), nil
	}
	return nil, obserr.Kind(obserr.ErrInvalidConfiguration, "unsupported transport").Set("transport", string(mode))
}

// sendAsync is shared by the Transport implementations.
func sendAsync(ctx context.Context, t Transport, lines [][]byte) <-chan error {
	errc := make(chan error, 1)
	go func() {
		errc <- t.Send(ctx, lines)
	}()
	return errc
}

// closeWriter is implemented by stream connections that support half-close.
type closeWriter interface {
	CloseWrite() error
}
