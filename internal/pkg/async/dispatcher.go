package async

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrDrainTimeout is returned by Stop when queued jobs did not finish in time.
	ErrDrainTimeout = errors.New("async: dispatcher drain timed out")
	ErrQueueFull    = errors.New("async: dispatcher queue full")
	ErrStopped      = errors.New("async: dispatcher stopped")
)

// Job is a unit of fire-and-forget work.
type Job func(ctx context.Context)

// Dispatcher runs submitted jobs on a fixed set of workers behind a bounded
// queue. Submission never blocks.
type Dispatcher struct {
	workerCount int
	queue       chan Job
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup

	mu      sync.RWMutex
	started bool
	stopped bool
}

func NewDispatcher(workerCount, queueSize int) *Dispatcher {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		workerCount: workerCount,
		queue:       make(chan Job, queueSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the workers. Jobs submitted before Start wait in the queue.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true

	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for job := range d.queue {
		job(d.ctx)
	}
}

// TrySubmit enqueues a job without blocking. It returns ErrStopped after Stop
// and ErrQueueFull when the queue has no room.
func (d *Dispatcher) TrySubmit(job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrStopped
	}

	select {
	case d.queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stopped reports whether Stop has been called.
func (d *Dispatcher) Stopped() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stopped
}

// Pending returns the number of queued jobs.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Stop refuses new jobs and waits up to timeout for queued ones to finish.
// Jobs still running after the timeout see their context cancelled.
func (d *Dispatcher) Stop(timeout time.Duration) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		// Nobody will ever read the queue; run what is left inline.
		for job := range d.queue {
			job(d.ctx)
		}
		d.cancel()
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-time.After(timeout):
		d.cancel()
		return ErrDrainTimeout
	}
}
