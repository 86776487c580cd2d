package engine

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ember-gfx/ember-go/engine/device"
	"github.com/ember-gfx/ember-go/engine/report"
	"github.com/stretchr/testify/assert"
)

func TestNewEngineDefaultsToHeadlessCPUOnly(t *testing.T) {
	e := NewEngine(WithComputeWorkers(2))
	defer e.Shutdown()

	assert.Nil(t, e.Window())
	assert.Nil(t, e.Device())
	assert.Nil(t, e.Renderer())
	assert.NotNil(t, e.Reporter())
	assert.NotNil(t, e.Workers())
	assert.NotNil(t, e.Queue())
	assert.NotNil(t, e.Profiler())
	assert.Equal(t, 2, e.Workers().Workers())
}

func TestDefaultWorkerPoolSizesFromHost(t *testing.T) {
	e := NewEngine()
	defer e.Shutdown()

	assert.Equal(t, runtime.NumCPU()-1, e.Workers().Workers())
}

func TestInjectedDeviceEnablesRenderer(t *testing.T) {
	dev := device.NewTraceDevice()
	rec := report.NewRecorder()
	e := NewEngine(WithDevice(dev), WithReporter(rec), WithComputeWorkers(1))
	defer e.Shutdown()

	assert.Same(t, dev, e.Device())
	assert.NotNil(t, e.Renderer())
	assert.Empty(t, rec.Messages())
}

func TestFailedDeviceInitFallsBackToCPUOnly(t *testing.T) {
	dev := device.NewTraceDevice()
	dev.FailInit = true
	rec := report.NewRecorder()
	e := NewEngine(WithDevice(dev), WithReporter(rec), WithComputeWorkers(1))
	defer e.Shutdown()

	assert.Nil(t, e.Device())
	assert.Nil(t, e.Renderer())
	assert.Equal(t, 1, rec.Count(report.KindOutOfResources))

	// The compute side is unaffected.
	var ran atomic.Int32
	e.Workers().Launch(func(data any, workerIndex int) {
		ran.Add(1)
	}, nil)
	assert.Equal(t, int32(1), ran.Load())
}

func TestRunHeadlessDrivesFrameCallback(t *testing.T) {
	e := NewEngine(WithComputeWorkers(1))
	defer e.Shutdown()

	frames := 0
	e.SetFrameCallback(func(deltaTime float32) {
		frames++
		if frames == 3 {
			e.Quit()
		}
	})

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
	assert.GreaterOrEqual(t, frames, 3)
}

func TestTickCallbackRunsAtConfiguredRate(t *testing.T) {
	e := NewEngine(WithComputeWorkers(1), WithTickRate(500))
	defer e.Shutdown()

	var ticks atomic.Int32
	e.SetTickCallback(func(deltaTime float32) {
		ticks.Add(1)
	})
	e.SetFrameCallback(func(deltaTime float32) {
		if ticks.Load() >= 3 {
			e.Quit()
		}
		time.Sleep(time.Millisecond)
	})

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.GreaterOrEqual(t, ticks.Load(), int32(3))
}

func TestFrameLimitCapsLoopRate(t *testing.T) {
	e := NewEngine(WithComputeWorkers(1), WithFrameLimit(100))
	defer e.Shutdown()

	frames := 0
	start := time.Now()
	e.SetFrameCallback(func(deltaTime float32) {
		frames++
		if frames == 5 {
			e.Quit()
		}
	})
	e.Run()

	// Five frames at 100 fps cannot finish faster than ~40ms.
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestQuitIsIdempotent(t *testing.T) {
	e := NewEngine(WithComputeWorkers(1))
	defer e.Shutdown()

	e.Quit()
	e.Quit()

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
}

func TestFramePanicStopsTheLoop(t *testing.T) {
	e := NewEngine(WithComputeWorkers(1))
	defer e.Shutdown()

	e.SetFrameCallback(func(deltaTime float32) {
		panic("kernel misbehaved")
	})

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after frame panic")
	}
}

func TestReportCallbackReceivesQueuedReports(t *testing.T) {
	dev := device.NewTraceDevice()
	dev.FailInit = true
	rec := report.NewRecorder()

	var mu sync.Mutex
	var got []report.Message
	e := NewEngine(WithDevice(dev), WithReporter(rec), WithComputeWorkers(1),
		WithReportCallback(func(msg report.Message) {
			mu.Lock()
			got = append(got, msg)
			mu.Unlock()
		}))
	defer e.Shutdown()

	frames := 0
	e.SetFrameCallback(func(deltaTime float32) {
		frames++
		if frames == 1 {
			e.Reporter().Report(report.KindUsage, "bad bind")
		}
		if frames == 3 {
			e.Quit()
		}
	})
	e.Run()

	// The failed device init queued a report before Run started the pump;
	// the frame callback added a second. Both arrive in order before Run
	// returns, and the callback takes precedence over the plain reporter.
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, got, 2)
	assert.Equal(t, report.KindOutOfResources, got[0].Kind)
	assert.Contains(t, got[0].Text, "device unavailable")
	assert.Equal(t, report.KindUsage, got[1].Kind)
	assert.Empty(t, rec.Messages())
}

func TestShutdownClosesWorkerPool(t *testing.T) {
	e := NewEngine(WithComputeWorkers(1))
	pool := e.Workers()

	e.Shutdown()

	assert.Panics(t, func() {
		pool.Launch(func(data any, workerIndex int) {}, nil)
	})
}
