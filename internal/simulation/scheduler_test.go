package simulation

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func startScheduler(t *testing.T) *Scheduler {
	t.Helper()
	sched := NewScheduler()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go sched.Run(ctx)
	return sched
}

func TestScheduleOnceFires(t *testing.T) {
	sched := startScheduler(t)

	fired := make(chan struct{})
	sched.ScheduleOnce(5*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("one-shot never fired")
	}
}

func TestCancelPreventsFiring(t *testing.T) {
	sched := startScheduler(t)

	var fired atomic.Bool
	task := sched.ScheduleOnce(20*time.Millisecond, func() { fired.Store(true) })
	task.Cancel()
	task.Cancel() // idempotent

	time.Sleep(60 * time.Millisecond)
	if fired.Load() {
		t.Fatal("cancelled one-shot fired")
	}
}

func TestIntervalFiresUntilCancelled(t *testing.T) {
	sched := startScheduler(t)

	var ticks atomic.Int64
	task := sched.ScheduleInterval(5*time.Millisecond, func() { ticks.Add(1) })

	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d ticks before deadline", ticks.Load())
		}
		time.Sleep(time.Millisecond)
	}

	task.Cancel()
	settled := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	// One firing may already be queued at cancel time; it must not run.
	if got := ticks.Load(); got != settled {
		t.Fatalf("ticks advanced after cancel: %d -> %d", settled, got)
	}
}

func TestCallbacksNeverInterleave(t *testing.T) {
	sched := startScheduler(t)

	var inCallback atomic.Int32
	var violations atomic.Int32
	body := func() {
		if inCallback.Add(1) != 1 {
			violations.Add(1)
		}
		time.Sleep(time.Millisecond)
		inCallback.Add(-1)
	}

	a := sched.ScheduleInterval(2*time.Millisecond, body)
	b := sched.ScheduleInterval(3*time.Millisecond, body)
	time.Sleep(100 * time.Millisecond)
	a.Cancel()
	b.Cancel()

	if violations.Load() != 0 {
		t.Fatalf("%d interleaved callback executions", violations.Load())
	}
}
