package engine

import (
	"time"

	"github.com/ember-gfx/ember-go/engine/device"
	"github.com/ember-gfx/ember-go/engine/report"
	"github.com/ember-gfx/ember-go/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// The tick callback will be called at this rate for logic updates.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Second / time.Duration(fps)
	}
}

// WithWindow sets a custom configured window for the engine to use rather
// than running headless. The engine creates a GL device against the window's
// context unless WithDevice supplies one.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithDevice sets the device the engine initializes and renders through.
// Tests inject trace devices here to run full frames without a GPU.
//
// Parameters:
//   - dev: the device instance, not yet initialized
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDevice(dev device.Device) EngineBuilderOption {
	return func(e *engine) {
		e.device = dev
	}
}

// WithReporter sets the failure sink shared by the engine, the renderer and
// every allocation. Defaults to the standard log.
//
// Parameters:
//   - rep: the reporter to deliver failure reports to
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithReporter(rep report.Reporter) EngineBuilderOption {
	return func(e *engine) {
		if rep != nil {
			e.reporter = rep
		}
	}
}

// WithReportCallback delivers every failure report to the given function on
// a dedicated engine goroutine instead of the log. Reports are queued through
// a buffered channel, so a slow callback never stalls the thread that raised
// the failure. Takes precedence over WithReporter.
//
// Parameters:
//   - callback: function receiving each report while the engine runs
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithReportCallback(callback func(report.Message)) EngineBuilderOption {
	return func(e *engine) {
		e.reportCallback = callback
	}
}

// WithComputeWorkers sets the number of threads in the barrier worker pool.
// Zero is allowed and runs kernel launches inline on the caller. Defaults to
// the host's CPU count minus one.
//
// Parameters:
//   - count: worker thread count (>= 0)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithComputeWorkers(count int) EngineBuilderOption {
	return func(e *engine) {
		e.computeWorkers = count
	}
}

// WithQueueWorkers sets the number of threads serving the asynchronous
// kernel queue. Defaults to the host's CPU count minus one, with a minimum
// of one.
//
// Parameters:
//   - count: queue worker count
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithQueueWorkers(count int) EngineBuilderOption {
	return func(e *engine) {
		e.queueWorkers = count
	}
}

// WithFrameLimit sets an optional frame rate cap in frames per second.
// Pass 0 to uncap the frame loop (default).
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.frameLimit = 0
			return
		}
		e.frameLimit = time.Second / time.Duration(fps)
	}
}
