package metrics

import (
	"net"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	_metrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAddr = &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 2003}

func TestRegistryHookCounts(t *testing.T) {
	hook := NewRegistryHook(nil)

	hook.ConnectionOpened(10*time.Millisecond, testAddr)
	hook.ConnectionOpened(30*time.Millisecond, testAddr)
	hook.ConnectionFailed(testAddr)
	hook.LineWritten(12, testAddr)
	hook.LineWritten(8, testAddr)
	hook.WriteFailed(testAddr)
	hook.ConnectionClosed(testAddr)

	assert.Equal(t, Stats{
		ConnectionsOpened:  2,
		ConnectionsClosed:  1,
		ConnectionsFailed:  1,
		LinesWritten:       2,
		BytesWritten:       20,
		WritesFailed:       1,
		ConnectLatencyMean: 20 * time.Millisecond,
		ConnectLatencyMax:  30 * time.Millisecond,
	}, hook.Stats())
}

func TestRegistryHookLatencyWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	hook := newRegistryHook(nil, clock)

	hook.ConnectionOpened(50*time.Millisecond, testAddr)
	clock.Advance(LatencyWindow + time.Second)
	hook.ConnectionOpened(10*time.Millisecond, testAddr)

	stats := hook.Stats()
	assert.Equal(t, int64(2), stats.ConnectionsOpened)
	assert.Equal(t, 10*time.Millisecond, stats.ConnectLatencyMax)
	assert.Equal(t, 10*time.Millisecond, stats.ConnectLatencyMean)

	clock.Advance(LatencyWindow + time.Second)
	assert.Equal(t, time.Duration(0), hook.Stats().ConnectLatencyMax)
}

func TestRegistryHookZero(t *testing.T) {
	assert.Equal(t, Stats{}, NewRegistryHook(nil).Stats())
}

func TestRegistryHookSharedRegistry(t *testing.T) {
	registry := _metrics.NewRegistry()
	hook := NewRegistryHook(registry)
	assert.Equal(t, registry, hook.Registry())

	hook.LineWritten(5, testAddr)

	counter, ok := registry.Get(LinesWritten).(_metrics.Counter)
	require.True(t, ok)
	assert.Equal(t, int64(1), counter.Count())

	// a second hook on the same registry shares the counters
	other := NewRegistryHook(registry)
	other.LineWritten(5, testAddr)
	assert.Equal(t, int64(2), hook.Stats().LinesWritten)

	hook.Unregister()
	assert.Nil(t, registry.Get(LinesWritten))
	assert.Nil(t, registry.Get(ConnectLatency))
}

func TestNullHook(t *testing.T) {
	assert.NotPanics(t, func() {
		NullHook.ConnectionOpened(time.Second, nil)
		NullHook.ConnectionClosed(nil)
		NullHook.ConnectionFailed(nil)
		NullHook.LineWritten(1, nil)
		NullHook.WriteFailed(nil)
	})
}
