package profiler

import "time"

// ProfilerBuilderOption defines a function type for configuring a Profiler
// during creation.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often Tick logs accumulated statistics.
// Panics if the interval is negative. A zero interval logs on every tick,
// which tests use to exercise the reporting path without waiting.
//
// Parameters:
//   - interval: time between log lines
//
// Returns:
//   - ProfilerBuilderOption: option to set the update interval
func WithInterval(interval time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if interval < 0 {
			panic("profiler: update interval cannot be negative")
		}
		p.updateInterval = interval
	}
}
