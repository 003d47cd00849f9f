package metrics

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	_metrics "github.com/rcrowley/go-metrics"
)

type timedValue struct {
	timestamp int64
	value     int64
}

// WindowSample is a go-metrics Sample holding the values recorded during the last
// window. Values live in a ring buffer that grows from startSize up to maxSize; once
// full, the oldest value is evicted even if it is still inside the window.
type WindowSample struct {
	startSize   int
	maxSize     int
	window      time.Duration
	scaleFactor float64
	clock       clockwork.Clock

	mu sync.Mutex // guards everything below

	count     int64 // total number of updates seen
	dropped   int64 // values evicted while still inside the window
	values    []timedValue
	numValues int
	earliest  int
}

// NewWindowSample creates a WindowSample. A nil clock means the real clock.
func NewWindowSample(startSize, maxSize int, window time.Duration, clock clockwork.Clock) *WindowSample {
	if startSize < 1 {
		startSize = 1
	}
	if maxSize < startSize {
		maxSize = startSize
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &WindowSample{
		startSize:   startSize,
		maxSize:     maxSize,
		window:      window,
		scaleFactor: 1.5,
		clock:       clock,
		values:      make([]timedValue, startSize),
	}
}

// at returns the i-th oldest value. Expects mu to be held.
func (s *WindowSample) at(i int) *timedValue {
	return &s.values[(s.earliest+i)%len(s.values)]
}

// resize moves the live values, oldest first, into a buffer of the given size.
func (s *WindowSample) resize(size int) {
	values := make([]timedValue, size)
	for i := 0; i < s.numValues; i++ {
		values[i] = *s.at(i)
	}
	s.values = values
	s.earliest = 0
}

// expire evicts values older than the window, plus forced values regardless of age.
func (s *WindowSample) expire(forced int, nowNano int64) {
	permitAfter := nowNano - s.window.Nanoseconds()
	for s.numValues > 0 {
		oldest := s.at(0)
		if forced <= 0 && oldest.timestamp > permitAfter {
			return
		}
		if oldest.timestamp > permitAfter {
			s.dropped++
		}
		forced--
		s.earliest = (s.earliest + 1) % len(s.values)
		s.numValues--
	}
}

func (s *WindowSample) Update(value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count++
	now := s.clock.Now().UnixNano()
	s.expire(0, now)

	if s.numValues == len(s.values) {
		if len(s.values) < s.maxSize {
			size := int(float64(len(s.values)) * s.scaleFactor)
			if size <= len(s.values) {
				size = len(s.values) + 1
			}
			if size > s.maxSize {
				size = s.maxSize
			}
			s.resize(size)
		} else {
			s.expire(1, now)
		}
	}

	*s.at(s.numValues) = timedValue{timestamp: now, value: value}
	s.numValues++

	if len(s.values) > s.startSize && float64(3*s.numValues)*s.scaleFactor < float64(len(s.values)) {
		size := int(float64(len(s.values)) / s.scaleFactor)
		if size < s.startSize {
			size = s.startSize
		}
		s.resize(size)
	}
}

func (s *WindowSample) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.numValues = 0
	s.earliest = 0
	s.count = 0
	s.dropped = 0
}

func (s *WindowSample) Count() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Dropped counts values evicted for lack of space while still inside the window.
func (s *WindowSample) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *WindowSample) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(0, s.clock.Now().UnixNano())
	return s.numValues
}

// Values returns the values inside the window, oldest first.
func (s *WindowSample) Values() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expire(0, s.clock.Now().UnixNano())
	values := make([]int64, s.numValues)
	for i := range values {
		values[i] = s.at(i).value
	}
	return values
}

func (s *WindowSample) Max() int64 {
	return _metrics.SampleMax(s.Values())
}

func (s *WindowSample) Mean() float64 {
	return _metrics.SampleMean(s.Values())
}

func (s *WindowSample) Min() int64 {
	return _metrics.SampleMin(s.Values())
}

func (s *WindowSample) Percentile(p float64) float64 {
	return _metrics.SamplePercentile(s.Values(), p)
}

func (s *WindowSample) Percentiles(ps []float64) []float64 {
	return _metrics.SamplePercentiles(s.Values(), ps)
}

func (s *WindowSample) Snapshot() _metrics.Sample {
	values := s.Values()
	return _metrics.NewSampleSnapshot(s.Count(), values)
}

func (s *WindowSample) StdDev() float64 {
	return _metrics.SampleStdDev(s.Values())
}

func (s *WindowSample) Sum() int64 {
	return _metrics.SampleSum(s.Values())
}

func (s *WindowSample) Variance() float64 {
	return _metrics.SampleVariance(s.Values())
}
