package carbon

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	otlog "github.com/opentracing/opentracing-go/log"

	"github.com/mixpanel/carbon/encoding"
	"github.com/mixpanel/carbon/logging"
	"github.com/mixpanel/carbon/metrics"
	"github.com/mixpanel/carbon/obserr"
	"github.com/mixpanel/carbon/transport"
)

// Client encodes values into carbon lines and hands them to its transport. Its
// configuration is copied at construction and never changes afterwards.
type Client struct {
	encoder *encoding.Encoder
	tr      transport.Transport
	hook    *metrics.RegistryHook
	log     logging.Logger
	tracer  opentracing.Tracer

	mu     sync.Mutex
	closed bool
}

// New resolves opts.Address and returns a Client that connects on its first send.
func New(ctx context.Context, opts Options) (*Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	l, err := opts.logger()
	if err != nil {
		return nil, err
	}
	mode, err := transport.ParseMode(opts.Transport)
	if err != nil {
		return nil, err
	}
	endpoint, err := opts.endpoint(ctx)
	if err != nil {
		l.Errorf("error resolving carbon address", logging.Fields{"addr": opts.Address}.WithError(err))
		return nil, err
	}

	hook := metrics.NewRegistryHook(opts.Registry)
	tr, err := transport.New(mode, endpoint, transport.Options{
		DialTimeout:  opts.DialTimeout,
		WriteTimeout: opts.WriteTimeout,
		Hook:         hook,
		Logger:       l,
	})
	if err != nil {
		return nil, err
	}

	opts.Logger = l
	c := newClient(tr, hook, opts)
	c.log.Infof("carbon client ready", logging.Fields{
		"addr":      endpoint.String(),
		"host":      endpoint.Host,
		"transport": string(mode),
		"prefix":    c.encoder.Prefix(),
	})
	return c, nil
}

// NewWithTransport wraps an existing transport. Only the encoding, logging, tracing and
// clock settings of opts are used. Stats stay at zero unless the transport reports to
// a hook registered in opts.Registry.
func NewWithTransport(tr transport.Transport, opts Options) (*Client, error) {
	if tr == nil {
		return nil, obserr.Kind(obserr.ErrInvalidConfiguration, "nil transport")
	}
	if err := opts.checkPrefix(); err != nil {
		return nil, err
	}
	l, err := opts.logger()
	if err != nil {
		return nil, err
	}
	opts.Logger = l
	return newClient(tr, metrics.NewRegistryHook(opts.Registry), opts), nil
}

func newClient(tr transport.Transport, hook *metrics.RegistryHook, opts Options) *Client {
	return &Client{
		encoder: encoding.NewEncoder(opts.Prefix, opts.EncodingOptions(), opts.Clock),
		tr:      tr,
		hook:    hook,
		log:     opts.Logger.Named("carbon"),
		tracer:  opts.tracer(),
	}
}

// Encode renders the lines Send would deliver for value, without sending them. A zero
// ts means now.
func (c *Client) Encode(name string, value interface{}, ts time.Time) ([][]byte, error) {
	callPrefix, fields, err := encoding.Flatten(name, value)
	if err != nil {
		return nil, err
	}
	return c.encoder.EncodeFields(callPrefix, fields, ts), nil
}

// Send delivers value under name, stamped with the current time.
func (c *Client) Send(ctx context.Context, name string, value interface{}) error {
	return c.SendAt(ctx, name, value, time.Time{})
}

// SendAt delivers value under name, stamped with ts. It returns once every line was
// written or on the first failure. Lines written before a failure stay written, and the
// error reports how many under the "sent" key.
func (c *Client) SendAt(ctx context.Context, name string, value interface{}, ts time.Time) error {
	if ctx == nil {
		ctx = context.Background()
	}
	lines, err := c.prepare(name, value, ts)
	if err != nil {
		return err
	}
	return c.deliver(ctx, name, lines)
}

// SendAsync is SendAt without waiting for the network. The value is encoded before
// SendAsync returns, so the caller may reuse it right away. The channel yields exactly
// one result.
func (c *Client) SendAsync(ctx context.Context, name string, value interface{}, ts time.Time) <-chan error {
	if ctx == nil {
		ctx = context.Background()
	}
	errc := make(chan error, 1)
	lines, err := c.prepare(name, value, ts)
	if err != nil {
		errc <- err
		return errc
	}
	go func() {
		errc <- c.deliver(ctx, name, lines)
	}()
	return errc
}

func (c *Client) prepare(name string, value interface{}, ts time.Time) ([][]byte, error) {
	if c.isClosed() {
		return nil, obserr.Kind(obserr.ErrUseAfterDispose, nil).Set("name", name)
	}
	lines, err := c.Encode(name, value, ts)
	if err != nil {
		c.log.Debugf("error encoding value", logging.Fields{"name": name}.WithError(err))
		return nil, err
	}
	return lines, nil
}

func (c *Client) deliver(ctx context.Context, name string, lines [][]byte) error {
	span, ctx := opentracing.StartSpanFromContextWithTracer(ctx, c.tracer, "carbon.send")
	defer span.Finish()

	endpoint := c.tr.Endpoint()
	ext.Component.Set(span, "carbon")
	ext.SpanKindRPCClient.Set(span)
	ext.PeerHostname.Set(span, endpoint.Host)
	ext.PeerPort.Set(span, uint16(endpoint.Port))
	span.SetTag("carbon.transport", string(c.tr.Mode()))
	span.SetTag("carbon.name", name)
	span.SetTag("carbon.lines", len(lines))

	err := c.tr.Send(ctx, lines)
	if err != nil {
		ext.Error.Set(span, true)
		span.LogFields(otlog.Error(err))
		var oe *obserr.Error
		if errors.As(err, &oe) {
			if sent, ok := oe.Get("sent").(int); ok {
				span.SetTag("carbon.sent", sent)
			}
		}
		c.log.Warnf("error sending to carbon", logging.Fields{"name": name, "lines": len(lines)}.WithError(err))
		return err
	}
	return nil
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close releases the transport, interrupting pending sends. Only the first call does
// anything.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	err := c.tr.Close()
	c.log.Debugf("carbon client closed", logging.Fields{"addr": c.tr.Endpoint().String()})
	return err
}

// Endpoint returns the resolved backend address.
func (c *Client) Endpoint() transport.Endpoint {
	return c.tr.Endpoint()
}

// Address returns the resolved backend IP.
func (c *Client) Address() net.IP {
	return c.tr.Endpoint().IP
}

// Port returns the backend port.
func (c *Client) Port() int {
	return c.tr.Endpoint().Port
}

// Prefix returns the sanitized prefix applied to every metric path.
func (c *Client) Prefix() string {
	return c.encoder.Prefix()
}

// Mode reports whether the client streams over TCP or sends UDP datagrams.
func (c *Client) Mode() transport.Mode {
	return c.tr.Mode()
}

// EncodingOptions returns a copy of the encoding options in use.
func (c *Client) EncodingOptions() encoding.Options {
	return c.encoder.Options()
}

// Stats reports the connection counters of the client's transport.
func (c *Client) Stats() metrics.Stats {
	return c.hook.Stats()
}
