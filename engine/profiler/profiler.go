package profiler

import (
	"log"
	"runtime"
	"sync/atomic"
	"time"
)

// Profiler tracks frame rate, engine activity and memory statistics for
// performance monitoring. Outputs stats to the log at a configurable interval.
// The Record methods are safe to call from any goroutine; Tick belongs to the
// frame loop.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	draws    atomic.Int64
	uploads  atomic.Int64
	links    atomic.Int64
	launches atomic.Int64
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: optional configuration for the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		frameCount:     0,
		lastTime:       time.Now(),
		updateInterval: time.Second,
		memStats:       runtime.MemStats{},
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// RecordDraw counts one draw call toward the current interval.
func (p *Profiler) RecordDraw() {
	p.draws.Add(1)
}

// RecordUpload counts one texture or buffer upload toward the current interval.
// A warm frame loop should show zero uploads once every allocation is synced.
func (p *Profiler) RecordUpload() {
	p.uploads.Add(1)
}

// RecordLink counts one program link toward the current interval. Steady state
// shows zero links per interval once the cache holds every shader pair in use.
func (p *Profiler) RecordLink() {
	p.links.Add(1)
}

// RecordLaunch counts one kernel launch toward the current interval.
func (p *Profiler) RecordLaunch() {
	p.launches.Add(1)
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, draw/upload/link/launch counts, heap usage,
// allocation rate and GC count.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed >= p.updateInterval {
		fps := float64(p.frameCount) / elapsed.Seconds()

		runtime.ReadMemStats(&p.memStats)
		// Alloc: Bytes of allocated heap objects (live memory)
		// TotalAlloc: Cumulative bytes allocated for heap objects (increases forever, tracks churn)
		allocMB := float64(p.memStats.Alloc) / 1024 / 1024

		// Calculate allocation rate (MB/sec)
		allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
		allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

		gcCount := p.memStats.NumGC
		gcDelta := gcCount - p.lastGCCount

		log.Printf("[Profiler] FPS: %.2f | Draws: %d | Uploads: %d | Links: %d | Launches: %d | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d",
			fps, p.draws.Swap(0), p.uploads.Swap(0), p.links.Swap(0), p.launches.Swap(0),
			allocMB, allocRateMB, gcDelta)

		p.frameCount = 0
		p.lastTime = currentTime
		p.lastGCCount = gcCount
		p.lastTotalAlloc = p.memStats.TotalAlloc
		return true
	}

	return false
}
