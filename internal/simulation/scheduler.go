package simulation

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// execBufferSize is the scheduler's pending-callback buffer size.
const execBufferSize = 128

// Task is a cancellable handle for a scheduled callback.
type Task struct {
	cancelled atomic.Bool
	stop      chan struct{}
	stopOnce  sync.Once
}

func newTask() *Task {
	return &Task{stop: make(chan struct{})}
}

// Cancel prevents any future firing of the task. A callback already
// executing runs to completion; cancellation is cooperative. Safe to call
// more than once.
func (t *Task) Cancel() {
	t.cancelled.Store(true)
	t.stopOnce.Do(func() { close(t.stop) })
}

// Cancelled reports whether the task has been cancelled.
func (t *Task) Cancelled() bool {
	return t.cancelled.Load()
}

// Scheduler multiplexes one-shot and interval timers onto a single
// executor goroutine.
//
// Every due callback is queued and run serially by Run's goroutine, so no
// two callbacks ever interleave. Coarse interleaving between callbacks of
// different tasks is the only concurrency the scheduler exposes.
type Scheduler struct {
	logger Logger

	exec chan func()
	quit chan struct{}
	once sync.Once
}

// NewScheduler creates a scheduler. Nothing fires until Run is called.
func NewScheduler() *Scheduler {
	return &Scheduler{
		logger: noopLogger{},
		exec:   make(chan func(), execBufferSize),
		quit:   make(chan struct{}),
	}
}

// SetLogger sets the logger for the scheduler.
func (s *Scheduler) SetLogger(logger Logger) {
	s.logger = logger
}

// Run executes due callbacks serially until the context is cancelled.
// It blocks; call it from a dedicated goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	defer s.shutdown()
	s.logger.Debug("scheduler started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("scheduler stopped")
			return
		case fn := <-s.exec:
			fn()
		}
	}
}

// shutdown releases every timer goroutine still waiting to fire.
func (s *Scheduler) shutdown() {
	s.once.Do(func() { close(s.quit) })
}

// ScheduleOnce fires fn on the executor goroutine after delay.
func (s *Scheduler) ScheduleOnce(delay time.Duration, fn func()) *Task {
	t := newTask()
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			s.submit(t, fn)
		case <-t.stop:
		case <-s.quit:
		}
	}()
	return t
}

// ScheduleInterval fires fn on the executor goroutine every interval until
// the task is cancelled or the scheduler shuts down.
func (s *Scheduler) ScheduleInterval(interval time.Duration, fn func()) *Task {
	t := newTask()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.submit(t, fn)
			case <-t.stop:
				return
			case <-s.quit:
				return
			}
		}
	}()
	return t
}

// submit queues a firing. The cancelled flag is re-checked at execution
// time so a cancel issued while the firing sits in the queue still wins.
func (s *Scheduler) submit(t *Task, fn func()) {
	job := func() {
		if t.Cancelled() {
			return
		}
		fn()
	}
	select {
	case s.exec <- job:
	case <-t.stop:
	case <-s.quit:
	}
}
