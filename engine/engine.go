package engine

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/ember-gfx/ember-go/engine/device"
	"github.com/ember-gfx/ember-go/engine/kernel"
	"github.com/ember-gfx/ember-go/engine/profiler"
	"github.com/ember-gfx/ember-go/engine/renderer"
	"github.com/ember-gfx/ember-go/engine/report"
	"github.com/ember-gfx/ember-go/engine/window"
	"github.com/ember-gfx/ember-go/engine/worker"
)

// engine implements the Engine interface.
// Coordinates the GPU-context thread, the logic tick goroutine and the
// compute workers.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window   window.Window
	device   device.Device
	renderer renderer.Renderer
	reporter report.Reporter
	pool     worker.Pool
	queue    kernel.Queue

	// reportCallback, when set, receives every failure report on the report
	// pump goroutine. reportChannel carries reports from the reporter to it.
	reportCallback func(report.Message)
	reportChannel  chan report.Message

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	frameCallback  func(deltaTime float32)
	resizeCallback func(width, height int)

	lastFrame time.Time

	frameLimit time.Duration // minimum frame duration; 0 = uncapped

	// computeWorkers and queueWorkers hold configured counts until the pool
	// and queue are built. -1 means use the package defaults.
	computeWorkers int
	queueWorkers   int
}

// Engine is the main entry point. It owns the window, the GPU device, the
// renderer, the compute worker pool and the kernel queue, and runs the frame
// loop on the goroutine that holds the GPU context. Everything that touches
// the device or the renderer must happen on that goroutine; the tick callback
// runs on its own goroutine and must stay off GPU resources.
type Engine interface {
	// Window returns the underlying window, or nil when running headless.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Device returns the GPU device, or nil when the engine is running
	// CPU-only after a failed device initialization.
	//
	// Returns:
	//   - device.Device: the device instance
	Device() device.Device

	// Renderer returns the renderer, or nil when the engine is running
	// CPU-only.
	//
	// Returns:
	//   - renderer.Renderer: the renderer instance
	Renderer() renderer.Renderer

	// Reporter returns the failure sink shared by every engine component.
	//
	// Returns:
	//   - report.Reporter: the reporter instance
	Reporter() report.Reporter

	// Workers returns the barrier worker pool for data-parallel kernels.
	//
	// Returns:
	//   - worker.Pool: the pool instance
	Workers() worker.Pool

	// Queue returns the asynchronous kernel queue.
	//
	// Returns:
	//   - kernel.Queue: the queue instance
	Queue() kernel.Queue

	// Profiler returns the profiler so applications can record draw, upload
	// and launch counts toward the logged intervals.
	//
	// Returns:
	//   - *profiler.Profiler: the profiler instance
	Profiler() *profiler.Profiler

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate for logic updates.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	// Runs on the tick goroutine, so it must not touch the device, the
	// renderer or any allocation a running kernel is writing.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetFrameCallback registers the function called each frame on the
	// GPU-context goroutine. This is where kernels launch, allocations sync
	// and draws are issued. The engine swaps buffers after the callback
	// returns.
	//
	// Parameters:
	//   - callback: function to call each frame, receiving the delta time in seconds
	SetFrameCallback(callback func(deltaTime float32))

	// SetResizeCallback registers a function called after the engine has
	// updated the viewport for a new framebuffer size.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the frame loop (default).
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetFrameLimit(fps float64)

	// Run starts the main engine loop. Blocks until the window closes or
	// Quit is called. Must be called from the goroutine that created the
	// engine, which owns the GPU context.
	Run()

	// Quit signals all engine goroutines to stop and ends the frame loop.
	// Safe to call multiple times and from any goroutine.
	Quit()

	// Shutdown releases the worker pool, the renderer, the device and the
	// window. Call after Run returns, on the GPU-context goroutine.
	Shutdown()
}

// NewEngine creates a new Engine instance with the provided options.
// Builds the worker pool and kernel queue, then initializes the device when
// one is configured or a window is present. A device that fails to
// initialize is reported and dropped, leaving the engine in CPU-only mode
// where kernels and allocations keep working without any GPU backing.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel:  make(chan time.Duration, 1),
		quitChannel:      make(chan struct{}),
		running:          false,
		wg:               sync.WaitGroup{},
		reporter:         report.NewLogReporter(),
		profiler:         profiler.NewProfiler(),
		profilingEnabled: false,
		engineTickRate:   time.Second / 60,
		computeWorkers:   -1,
		queueWorkers:     -1,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.reportCallback != nil {
		e.reportChannel = make(chan report.Message, 64)
		e.reporter = report.NewChannelReporter(e.reportChannel)
	}

	if e.computeWorkers >= 0 {
		e.pool = worker.NewPool(worker.WithWorkers(e.computeWorkers))
	} else {
		e.pool = worker.NewPool()
	}

	queueWorkers := e.queueWorkers
	if queueWorkers < 0 {
		queueWorkers = runtime.NumCPU() - 1
	}
	e.queue = kernel.NewQueue(queueWorkers)

	if e.device == nil && e.window != nil {
		e.device = device.NewGLDevice()
	}
	if e.device != nil {
		if err := e.device.Init(); err != nil {
			e.reporter.Report(report.KindOutOfResources,
				fmt.Sprintf("device unavailable, continuing CPU-only: %v", err))
			e.device = nil
		}
	}
	if e.device != nil {
		e.renderer = renderer.NewRenderer(e.device, renderer.WithReporter(e.reporter))
		if e.window != nil {
			e.renderer.Viewport(e.window.Width(), e.window.Height())
		}
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			if e.renderer != nil {
				e.renderer.Viewport(width, height)
			}
			if e.resizeCallback != nil {
				e.resizeCallback(width, height)
			}
		})
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Device() device.Device {
	return e.device
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Reporter() report.Reporter {
	return e.reporter
}

func (e *engine) Workers() worker.Pool {
	return e.pool
}

func (e *engine) Queue() kernel.Queue {
	return e.queue
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) Run() {
	e.running = true
	e.lastFrame = time.Now()
	e.handle()

	if e.window != nil {
		e.window.SetUpdateCallback(func() {
			select {
			case <-e.quitChannel:
				// Quit may fire on any goroutine; the window itself must be
				// closed here on its own thread.
				_ = e.window.Close()
				return
			default:
			}
			e.frameStep()
		})
		e.window.ProcessMessages()
	} else {
		e.runHeadless()
	}

	e.signalQuit()
	e.wg.Wait()
}

// runHeadless drives the frame loop directly on the calling goroutine when
// there is no window. Compute-only hosts and tests use this path; with an
// injected device the full sync and draw surface still works.
func (e *engine) runHeadless() {
	for {
		select {
		case <-e.quitChannel:
			return
		default:
			e.frameStep()
		}
	}
}

// frameStep executes one frame on the GPU-context goroutine: the frame
// callback, the buffer swap, the profiler tick and the optional frame cap.
// Recovers from panics to avoid crashing the process and signals quit on
// recovery.
func (e *engine) frameStep() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("frame loop recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	now := time.Now()
	dt := float32(now.Sub(e.lastFrame).Seconds())
	e.lastFrame = now

	if e.frameCallback != nil {
		e.frameCallback(dt)
	}

	if e.window != nil && e.renderer != nil {
		e.window.SwapBuffers()
	}

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick()
	}

	// Frame rate limiting
	if e.frameLimit > 0 {
		elapsed := time.Since(now)
		if remaining := e.frameLimit - elapsed; remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

// Quit signals all engine goroutines to stop and ends the frame loop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// Shutdown flushes pending kernels, closes the worker pool and releases the
// renderer, the device and the window in dependency order.
func (e *engine) Shutdown() {
	e.signalQuit()
	e.wg.Wait()

	e.queue.Flush()
	e.pool.Close()

	if e.renderer != nil {
		e.renderer.Destroy()
		e.renderer = nil
	}
	if e.device != nil {
		e.device.Destroy()
		e.device = nil
	}
	if e.window != nil {
		_ = e.window.Close()
		e.window = nil
	}
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		close(e.quitChannel)
	})
}

// handle launches the tick and quit goroutines, plus the report pump when a
// report callback is registered. Each goroutine is tracked by the engine's
// WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleTick()
	go e.handleQuit()

	if e.reportChannel != nil {
		e.wg.Add(1)
		go e.handleReports()
	}
}

// handleReports delivers queued failure reports to the registered callback in
// its own goroutine. On quit it drains whatever is still queued before
// exiting, so reports raised during the final frame are not lost.
func (e *engine) handleReports() {
	defer e.wg.Done()

	for {
		select {
		case <-e.quitChannel:
			for {
				select {
				case msg := <-e.reportChannel:
					e.reportCallback(msg)
				default:
					return
				}
			}
		case msg := <-e.reportChannel:
			e.reportCallback(msg)
		}
	}
}

// handleTick runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic
// rate changes via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleTick() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Second / time.Duration(fps)

	if e.running {
		// Send to channel for immediate update in running engine loop
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			// Channel has a pending update, drain and send new value
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		// Engine not running, just update the field
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetFrameCallback registers the function called each frame on the
// GPU-context goroutine.
func (e *engine) SetFrameCallback(callback func(deltaTime float32)) {
	e.frameCallback = callback
}

// SetResizeCallback registers a function called after viewport updates.
func (e *engine) SetResizeCallback(callback func(width, height int)) {
	e.resizeCallback = callback
}

// SetFrameLimit sets an optional frame rate cap.
// Pass 0 to uncap the frame loop.
func (e *engine) SetFrameLimit(fps float64) {
	if fps <= 0 {
		e.frameLimit = 0
		return
	}
	e.frameLimit = time.Second / time.Duration(fps)
}
