package eventlog

import (
	"errors"
	"sync"
)

var (
	// ErrExecutorClosed is returned when work is submitted after Close.
	ErrExecutorClosed = errors.New("eventlog: executor closed")
	// ErrExecutorBusy is returned when the executor queue is full.
	ErrExecutorBusy = errors.New("eventlog: executor queue full")
)

// Executor is a fixed-size worker pool on which cursor operations and their
// completion callbacks run. Submit never blocks.
type Executor struct {
	jobs chan func()
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewExecutor starts workers goroutines with a queue of queueLen pending jobs.
func NewExecutor(workers, queueLen int) *Executor {
	if workers <= 0 {
		workers = 4
	}
	if queueLen <= 0 {
		queueLen = 1024
	}
	e := &Executor{jobs: make(chan func(), queueLen)}
	e.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go e.run()
	}
	return e
}

func (e *Executor) run() {
	defer e.wg.Done()
	for fn := range e.jobs {
		fn()
	}
}

// Submit queues fn for execution on a worker.
func (e *Executor) Submit(fn func()) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrExecutorClosed
	}
	select {
	case e.jobs <- fn:
		return nil
	default:
		return ErrExecutorBusy
	}
}

// Close stops accepting work, drains queued jobs, and waits for workers.
func (e *Executor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.jobs)
	e.mu.Unlock()
	e.wg.Wait()
}
