package kernel

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// queue is the implementation of the Queue interface.
type queue struct {
	// pool manages a bounded set of reusable goroutines for queued kernels.
	// Workers persist across flushes, avoiding per-kernel goroutine
	// spawn/teardown overhead.
	pool worker.DynamicWorkerPool
	// pending provides barrier sync for Flush since pool workers idle-exit
	// on their own schedule.
	pending sync.WaitGroup
	// nextID tags submitted tasks in enqueue order.
	nextID int
}

// Queue runs kernels asynchronously on a bounded goroutine pool. Enqueue and
// Flush must be called from a single controlling goroutine; the kernels
// themselves run concurrently and must write disjoint data.
type Queue interface {
	// Enqueue schedules a kernel to run on a pool worker and returns
	// immediately.
	//
	// Parameters:
	//   - fn: the kernel to run, must not be nil
	Enqueue(fn func())

	// Flush blocks until every kernel enqueued so far has finished.
	Flush()
}

var _ Queue = &queue{}

// NewQueue creates an asynchronous kernel queue. Idle pool workers exit on
// their own after a second and respawn on demand, so the queue needs no
// explicit teardown.
//
// Parameters:
//   - workers: the maximum number of kernels running at once, minimum 1
//
// Returns:
//   - Queue: the ready queue
func NewQueue(workers int) Queue {
	if workers < 1 {
		workers = 1
	}
	return &queue{
		pool: worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
	}
}

func (q *queue) Enqueue(fn func()) {
	if fn == nil {
		panic("kernel queue requires a function")
	}
	q.pending.Add(1)
	id := q.nextID
	q.nextID++
	q.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			defer q.pending.Done()
			fn()
			return nil, nil
		},
	})
}

func (q *queue) Flush() {
	q.pending.Wait()
}
