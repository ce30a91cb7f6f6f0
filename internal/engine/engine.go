// Package engine provides the single-owner execution model for world state:
// one goroutine drains a task queue and performs every world read and write,
// a fixed worker pool runs network-bound jobs, and job continuations are
// marshaled back onto the owning goroutine before they may touch anything
// shared.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const taskQueueSize = 256

// Engine owns the main loop and the worker pool.
type Engine struct {
	tasks  chan func()
	jobs   chan job
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type job struct {
	run       func(ctx context.Context) (any, error)
	onSuccess func(any)
	onFailure func(error)
}

// New creates an engine with the given worker pool size. Run must be called
// before posted tasks execute.
func New(logger *slog.Logger, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		tasks:  make(chan func(), taskQueueSize),
		jobs:   make(chan job, taskQueueSize),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.worker(i)
	}
	return e
}

// Run drains the task queue on the calling goroutine until Stop. All world
// mutation happens inside tasks executed here.
func (e *Engine) Run() {
	e.logger.Info("Engine loop starting")
	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("Engine loop shutting down")
			return
		case fn := <-e.tasks:
			fn()
		}
	}
}

// Stop shuts down the loop and the worker pool and waits for workers to
// exit. Queued tasks that have not run yet are dropped.
func (e *Engine) Stop() {
	e.cancel()
	e.wg.Wait()
}

// Do posts fn onto the main loop without waiting.
func (e *Engine) Do(fn func()) {
	select {
	case e.tasks <- fn:
	case <-e.ctx.Done():
	}
}

// Call posts fn onto the main loop and waits for it to finish. It must not
// be called from the loop itself.
func (e *Engine) Call(fn func()) {
	done := make(chan struct{})
	e.Do(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
	case <-e.ctx.Done():
	}
}

// Submit runs a job on the worker pool. Exactly one of onSuccess/onFailure
// is then invoked on the main loop; the job itself must not touch world
// state.
func (e *Engine) Submit(run func(ctx context.Context) (any, error), onSuccess func(any), onFailure func(error)) {
	select {
	case e.jobs <- job{run: run, onSuccess: onSuccess, onFailure: onFailure}:
	case <-e.ctx.Done():
	}
}

func (e *Engine) worker(id int) {
	defer e.wg.Done()
	for {
		select {
		case <-e.ctx.Done():
			return
		case j := <-e.jobs:
			result, err := j.run(e.ctx)
			if err != nil {
				if j.onFailure != nil {
					e.Do(func() { j.onFailure(err) })
				}
				continue
			}
			if j.onSuccess != nil {
				e.Do(func() { j.onSuccess(result) })
			}
		}
	}
}

// Timer is a cancellable delayed call. Cancel only suppresses a callback
// that has not yet run on the loop.
type Timer struct {
	mu        sync.Mutex
	cancelled bool
	timer     *time.Timer
}

// After schedules fn to run on the main loop after d.
func (e *Engine) After(d time.Duration, fn func()) *Timer {
	t := &Timer{}
	t.timer = time.AfterFunc(d, func() {
		e.Do(func() {
			t.mu.Lock()
			cancelled := t.cancelled
			t.mu.Unlock()
			if !cancelled {
				fn()
			}
		})
	})
	return t
}

// Cancel stops the timer. Safe to call more than once.
func (t *Timer) Cancel() {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
	t.timer.Stop()
}
