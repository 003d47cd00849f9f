package main

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixpanel/carbon/encoding"
	"github.com/mixpanel/carbon/logging"
)

type recordingSender struct {
	names  []string
	values []interface{}
}

func (s *recordingSender) SendAt(ctx context.Context, name string, value interface{}, ts time.Time) error {
	s.names = append(s.names, name)
	s.values = append(s.values, value)
	return nil
}

func TestGCsSince(t *testing.T) {
	memstats := &runtime.MemStats{NumGC: 3}
	memstats.PauseNs[0] = 100
	memstats.PauseNs[1] = 200
	memstats.PauseNs[2] = 300

	stats, count := gcsSince(memstats, 1)
	assert.Equal(t, uint32(3), count)
	assert.Equal(t, gcStats{Cycles: 2, MaxPause: 300, TotalPause: 500}, stats)

	stats, count = gcsSince(memstats, 3)
	assert.Equal(t, uint32(3), count)
	assert.Equal(t, gcStats{}, stats)
}

func TestGCsSinceMissed(t *testing.T) {
	memstats := &runtime.MemStats{NumGC: 300}
	for i := range memstats.PauseNs {
		memstats.PauseNs[i] = 1
	}

	stats, _ := gcsSince(memstats, 0)
	assert.Equal(t, uint32(300), stats.Cycles)
	assert.Equal(t, uint32(300-len(memstats.PauseNs)), stats.CyclesMissed)
	assert.Equal(t, time.Duration(len(memstats.PauseNs)), stats.TotalPause)
}

func TestGCReporter(t *testing.T) {
	runtime.GC()
	s := &recordingSender{}
	r := &gcReporter{}

	require.NoError(t, r.report(context.Background(), s, time.Now()))
	require.Equal(t, []string{"runtime.mem", "runtime.gc"}, s.names)

	// the records must flatten into one line per field
	_, fields, err := encoding.Flatten("runtime.mem", s.values[0])
	require.NoError(t, err)
	assert.Equal(t, "heap_allocated_bytes", fields[0].Name)
	assert.Len(t, fields, 4)

	_, fields, err = encoding.Flatten("runtime.gc", s.values[1])
	require.NoError(t, err)
	assert.Equal(t, "cycles", fields[0].Name)
}

func TestSpam(t *testing.T) {
	s := &recordingSender{}
	spam(context.Background(), s, logging.Null)
	assert.Equal(t, []string{"test_counter", "test_gauge", "test_random", "test_flag", "latency"}, s.names)
}

func BenchmarkMemStats(b *testing.B) {
	memstats := &runtime.MemStats{}

	for i := 0; i < b.N; i++ {
		runtime.ReadMemStats(memstats)
	}
}
