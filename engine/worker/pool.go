package worker

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Task is the callback a launch fans out to every worker. Each worker calls
// it exactly once per launch with its own index.
type Task func(data any, workerIndex int)

// pool is the implementation of the Pool interface.
type pool struct {
	// count is the number of persistent workers, fixed at construction.
	count int
	// launch holds one buffered signal channel per worker. Closing them
	// shuts the workers down.
	launch []chan struct{}
	// done receives one signal per launch, sent by whichever worker
	// finishes last.
	done chan struct{}

	// fn and data are the current launch's work, written before the launch
	// signals and read by workers after them.
	fn   Task
	data any

	// running counts workers still inside the current launch.
	running atomic.Int32
	// exiting flips once on Close so later launches fail loudly.
	exiting atomic.Bool
	// wg joins the worker goroutines on Close.
	wg sync.WaitGroup
}

// Pool fans work out over a fixed set of persistent worker goroutines.
// Launch blocks the caller until every worker has finished, giving each
// launch barrier semantics. Launch and Close must be called from a single
// controlling goroutine.
type Pool interface {
	// Workers returns the number of persistent workers. A count of zero
	// means launches run inline on the calling goroutine.
	//
	// Returns:
	//   - int: the worker count
	Workers() int

	// Launch runs the task once on every worker and blocks until all of
	// them have returned. With zero workers the task runs once, inline,
	// with index 0. Panics when called after Close.
	//
	// Parameters:
	//   - fn: the task to run, must not be nil
	//   - data: opaque payload handed to every invocation
	Launch(fn Task, data any)

	// Close shuts the workers down and waits for them to exit. Safe to
	// call more than once.
	Close()
}

var _ Pool = &pool{}

// NewPool starts the worker goroutines and returns once all of them are
// parked and ready to accept a launch. The default worker count leaves one
// core for the caller, so single-core hosts get zero workers and run
// launches inline.
//
// Parameters:
//   - options: optional configuration (worker count)
//
// Returns:
//   - Pool: the running pool
func NewPool(options ...PoolBuilderOption) Pool {
	p := &pool{
		count: runtime.NumCPU() - 1,
		done:  make(chan struct{}, 1),
	}
	for _, opt := range options {
		opt(p)
	}

	p.launch = make([]chan struct{}, p.count)
	var ready sync.WaitGroup
	ready.Add(p.count)
	p.wg.Add(p.count)
	for i := range p.launch {
		p.launch[i] = make(chan struct{}, 1)
		go p.work(i, &ready)
	}
	ready.Wait()
	return p
}

func (p *pool) Workers() int {
	return p.count
}

func (p *pool) Launch(fn Task, data any) {
	if fn == nil {
		panic("worker pool launch requires a task")
	}
	if p.exiting.Load() {
		panic("worker pool launch after close")
	}
	if p.count == 0 {
		fn(data, 0)
		return
	}

	p.fn = fn
	p.data = data
	p.running.Store(int32(p.count))
	for _, ch := range p.launch {
		ch <- struct{}{}
	}
	<-p.done
	p.fn = nil
	p.data = nil
}

func (p *pool) Close() {
	if !p.exiting.CompareAndSwap(false, true) {
		return
	}
	for _, ch := range p.launch {
		close(ch)
	}
	p.wg.Wait()
}

// work is the body of one worker goroutine. The last worker out of a launch
// signals completion.
func (p *pool) work(index int, ready *sync.WaitGroup) {
	defer p.wg.Done()
	ready.Done()
	for range p.launch[index] {
		p.fn(p.data, index)
		if p.running.Add(-1) == 0 {
			p.done <- struct{}{}
		}
	}
}
