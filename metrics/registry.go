package metrics

import (
	"net"
	"time"

	"github.com/jonboulle/clockwork"
	_metrics "github.com/rcrowley/go-metrics"
)

// Names of the metrics tracked by RegistryHook.
const (
	ConnectionsOpened = "connections.opened"
	ConnectionsClosed = "connections.closed"
	ConnectionsFailed = "connections.failed"
	ConnectLatency    = "connect.latency"
	LinesWritten      = "lines.written"
	BytesWritten      = "bytes.written"
	WritesFailed      = "writes.failed"
)

// Stats is a point in time copy of the counters kept by a RegistryHook.
type Stats struct {
	ConnectionsOpened int64
	ConnectionsClosed int64
	ConnectionsFailed int64
	LinesWritten      int64
	BytesWritten      int64
	WritesFailed      int64
	// ConnectLatencyMean and ConnectLatencyMax cover the dials of the last
	// LatencyWindow, zero when there were none.
	ConnectLatencyMean time.Duration
	ConnectLatencyMax  time.Duration
}

// LatencyWindow is how long a dial time stays in the connect latency sample.
const LatencyWindow = 5 * time.Minute

// RegistryHook is a Hook that counts transport events in a go-metrics registry.
type RegistryHook struct {
	registry _metrics.Registry

	opened, closed, failed _metrics.Counter
	lines, bytes, werrs    _metrics.Counter
	latency                _metrics.Timer
}

// NewRegistryHook registers its metrics in registry, or in a fresh registry when nil.
func NewRegistryHook(registry _metrics.Registry) *RegistryHook {
	return newRegistryHook(registry, nil)
}

func newRegistryHook(registry _metrics.Registry, clock clockwork.Clock) *RegistryHook {
	if registry == nil {
		registry = _metrics.NewRegistry()
	}
	latency := registry.GetOrRegister(ConnectLatency, func() _metrics.Timer {
		sample := NewWindowSample(16, 1024, LatencyWindow, clock)
		return _metrics.NewCustomTimer(_metrics.NewHistogram(sample), _metrics.NewMeter())
	}).(_metrics.Timer)
	return &RegistryHook{
		registry: registry,
		opened:   _metrics.GetOrRegisterCounter(ConnectionsOpened, registry),
		closed:   _metrics.GetOrRegisterCounter(ConnectionsClosed, registry),
		failed:   _metrics.GetOrRegisterCounter(ConnectionsFailed, registry),
		lines:    _metrics.GetOrRegisterCounter(LinesWritten, registry),
		bytes:    _metrics.GetOrRegisterCounter(BytesWritten, registry),
		werrs:    _metrics.GetOrRegisterCounter(WritesFailed, registry),
		latency:  latency,
	}
}

// Registry exposes the underlying registry, e.g. for go-metrics reporters.
func (h *RegistryHook) Registry() _metrics.Registry {
	return h.registry
}

func (h *RegistryHook) ConnectionOpened(latency time.Duration, addr net.Addr) {
	h.opened.Inc(1)
	h.latency.Update(latency)
}

func (h *RegistryHook) ConnectionClosed(addr net.Addr) {
	h.closed.Inc(1)
}

func (h *RegistryHook) ConnectionFailed(addr net.Addr) {
	h.failed.Inc(1)
}

func (h *RegistryHook) LineWritten(bytes int, addr net.Addr) {
	h.lines.Inc(1)
	h.bytes.Inc(int64(bytes))
}

func (h *RegistryHook) WriteFailed(addr net.Addr) {
	h.werrs.Inc(1)
}

// Stats snapshots the counters.
func (h *RegistryHook) Stats() Stats {
	latency := h.latency.Snapshot()
	return Stats{
		ConnectionsOpened:  h.opened.Count(),
		ConnectionsClosed:  h.closed.Count(),
		ConnectionsFailed:  h.failed.Count(),
		LinesWritten:       h.lines.Count(),
		BytesWritten:       h.bytes.Count(),
		WritesFailed:       h.werrs.Count(),
		ConnectLatencyMean: time.Duration(latency.Mean()),
		ConnectLatencyMax:  time.Duration(latency.Max()),
	}
}

// Unregister removes the hook's metrics from its registry.
func (h *RegistryHook) Unregister() {
	for _, name := range []string{
		ConnectionsOpened, ConnectionsClosed, ConnectionsFailed,
		ConnectLatency, LinesWritten, BytesWritten, WritesFailed,
	} {
		h.registry.Unregister(name)
	}
}
