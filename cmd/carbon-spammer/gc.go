package main

import (
	"context"
	"runtime"
	"time"
)

type sender interface {
	SendAt(ctx context.Context, name string, value interface{}, ts time.Time) error
}

// memStats is the subset of runtime.MemStats sent as the "runtime.mem" record.
type memStats struct {
	HeapAlloc  uint64 `carbon:"heap_allocated_bytes"`
	TotalAlloc uint64 `carbon:"total_heap_allocated_bytes"`
	Sys        uint64 `carbon:"system_allocated_bytes"`
	NumGC      uint32 `carbon:"gc_count"`
}

// gcStats describes the collections since the previous report.
type gcStats struct {
	Cycles       uint32        `carbon:"cycles"`
	CyclesMissed uint32        `carbon:"cycles_missed"`
	MaxPause     time.Duration `carbon:"max_pause"`
	TotalPause   time.Duration `carbon:"total_pause"`
}

type gcReporter struct {
	memstats runtime.MemStats
	numGCs   uint32
}

func (r *gcReporter) report(ctx context.Context, s sender, now time.Time) error {
	runtime.ReadMemStats(&r.memstats)
	mem := memStats{
		HeapAlloc:  r.memstats.HeapAlloc,
		TotalAlloc: r.memstats.TotalAlloc,
		Sys:        r.memstats.Sys,
		NumGC:      r.memstats.NumGC,
	}
	if err := s.SendAt(ctx, "runtime.mem", mem, now); err != nil {
		return err
	}

	gc, count := gcsSince(&r.memstats, r.numGCs)
	r.numGCs = count
	if gc.Cycles == 0 {
		return nil
	}
	return s.SendAt(ctx, "runtime.gc", gc, now)
}

// gcsSince summarizes the collections after lastCount. Only the last len(PauseNs)
// pauses are kept by the runtime; older ones are counted as missed.
func gcsSince(memstats *runtime.MemStats, lastCount uint32) (gcStats, uint32) {
	newCount := memstats.NumGC
	var stats gcStats
	stats.Cycles = newCount - lastCount
	if stats.Cycles == 0 {
		return stats, newCount
	}

	numPresent := uint32(len(memstats.PauseNs))
	if numPresent < stats.Cycles {
		stats.CyclesMissed = stats.Cycles - numPresent
		lastCount = newCount - numPresent
	}

	for i := lastCount + 1; i <= newCount; i++ {
		pause := time.Duration(memstats.PauseNs[(i+numPresent-1)%numPresent])
		stats.TotalPause += pause
		if pause > stats.MaxPause {
			stats.MaxPause = pause
		}
	}
	return stats, newCount
}
