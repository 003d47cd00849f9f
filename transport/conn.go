package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/mixpanel/carbon/logging"
	"github.com/mixpanel/carbon/obserr"
)

// connTransport holds the state machine shared by the stream and datagram transports:
//
//	unconnected --Send--> connected --Close--> closed
//	     |                    |
//	     +------Close---------+
//
// A failed write drops the connection so the next Send dials again.
type connTransport struct {
	mode     Mode
	endpoint Endpoint
	opts     Options
	dialer   net.Dialer
	log      logging.Logger
	// shutdown releases a connection on Close.
	shutdown func(net.Conn) error

	// lifetime is canceled by Close so a pending dial gives up.
	lifetime context.Context
	cancel   context.CancelFunc

	// serializes Send
	sendMu sync.Mutex

	// guards conn and closed
	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

func newConnTransport(mode Mode, endpoint Endpoint, opts Options, shutdown func(net.Conn) error) *connTransport {
	opts = opts.withDefaults()
	lifetime, cancel := context.WithCancel(context.Background())
	return &connTransport{
		mode:     mode,
		endpoint: endpoint,
		opts:     opts,
		dialer:   net.Dialer{Timeout: opts.DialTimeout},
		log:      opts.Logger.Named("transport"),
		shutdown: shutdown,
		lifetime: lifetime,
		cancel:   cancel,
	}
}

func (t *connTransport) Mode() Mode {
	return t.mode
}

func (t *connTransport) Endpoint() Endpoint {
	return t.endpoint
}

func (t *connTransport) SendAsync(ctx context.Context, lines [][]byte) <-chan error {
	return sendAsync(ctx, t, lines)
}

func (t *connTransport) Send(ctx context.Context, lines [][]byte) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(lines) == 0 {
		if t.isClosed() {
			return obserr.Kind(obserr.ErrUseAfterDispose, nil).Set("addr", t.endpoint.String())
		}
		return nil
	}

	t.sendMu.Lock()
	defer t.sendMu.Unlock()

	conn, err := t.connect(ctx)
	if err != nil {
		return err
	}

	for i, line := range lines {
		if err := t.write(ctx, conn, line); err != nil {
			t.opts.Hook.WriteFailed(conn.RemoteAddr())
			t.drop(conn)
			return t.failure(err).Set("sent", i, "lines", len(lines))
		}
		t.opts.Hook.LineWritten(len(line), conn.RemoteAddr())
	}
	return nil
}

func (t *connTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// failure classifies a send error. Errors caused by a concurrent Close are reported as
// use after dispose.
func (t *connTransport) failure(err error) *obserr.Error {
	kind := obserr.ErrTransportFailure
	if t.isClosed() {
		kind = obserr.ErrUseAfterDispose
	}
	return obserr.Kind(kind, err).Set("addr", t.endpoint.String(), "transport", string(t.mode))
}

func (t *connTransport) connect(ctx context.Context) (net.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, obserr.Kind(obserr.ErrUseAfterDispose, nil).Set("addr", t.endpoint.String())
	}
	if t.conn != nil {
		return t.conn, nil
	}

	dialCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(t.lifetime, cancel)
	defer stop()

	start := time.Now()
	addr := t.endpoint.Addr(t.mode)
	conn, err := t.dialer.DialContext(dialCtx, string(t.mode), addr.String())
	if err != nil {
		t.opts.Hook.ConnectionFailed(addr)
		t.log.Warnf("error connecting to carbon", logging.Fields{"addr": addr.String(), "transport": string(t.mode)}.WithError(err))
		kind := obserr.ErrTransportFailure
		if t.lifetime.Err() != nil {
			kind = obserr.ErrUseAfterDispose
		}
		return nil, obserr.Kind(kind, err).Set("addr", addr.String(), "transport", string(t.mode))
	}

	t.opts.Hook.ConnectionOpened(time.Since(start), conn.RemoteAddr())
	if t.log.IsDebug() {
		t.log.Debugf("connected to carbon", logging.Fields{
			"addr":      conn.RemoteAddr().String(),
			"local":     conn.LocalAddr().String(),
			"transport": string(t.mode),
		})
	}
	t.conn = conn
	return conn, nil
}

// aLongTimeAgo is a deadline in the past, used to abort a blocked write.
var aLongTimeAgo = time.Unix(1, 0)

func (t *connTransport) write(ctx context.Context, conn net.Conn, line []byte) error {
	var deadline time.Time
	if t.opts.WriteTimeout > 0 {
		deadline = time.Now().Add(t.opts.WriteTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return err
	}

	if ctx.Done() != nil {
		stop := context.AfterFunc(ctx, func() {
			_ = conn.SetWriteDeadline(aLongTimeAgo)
		})
		defer stop()
	}

	n, err := conn.Write(line)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	if n < len(line) {
		return io.ErrShortWrite
	}
	return nil
}

// drop forgets a broken connection unless Close already took it.
func (t *connTransport) drop(conn net.Conn) {
	t.mu.Lock()
	owned := t.conn == conn
	if owned {
		t.conn = nil
	}
	t.mu.Unlock()

	if !owned {
		return
	}
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		t.log.Debugf("error closing broken connection", logging.Fields{}.WithError(err))
	}
	t.opts.Hook.ConnectionClosed(conn.RemoteAddr())
}

func (t *connTransport) Close() error {
	t.cancel()

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn == nil {
		return nil
	}

	addr := conn.RemoteAddr()
	err := t.shutdown(conn)
	t.opts.Hook.ConnectionClosed(addr)
	if err != nil {
		t.log.Warnf("error closing carbon connection", logging.Fields{"addr": addr.String()}.WithError(err))
		return obserr.Kind(obserr.ErrTransportFailure, err).Set("addr", addr.String())
	}
	t.log.Debugf("closed carbon connection", logging.Fields{"addr": addr.String()})
	return nil
}
