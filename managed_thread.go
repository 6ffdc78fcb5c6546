package dataflow

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// sleepChunk bounds how long ManagedThread.Sleep blocks between checks of
// its stop signal, so a long requested sleep can still be cut short
// promptly when Stop is called (§4.6, grounded on the source's
// managed_thread sleeping in small increments rather than one long sleep).
const sleepChunk = 10 * time.Millisecond

// ManagedThread runs a single user function on a dedicated goroutine until
// stopped. It is the primitive Threadloop and any other recurring-work
// component is built on (§4.6).
type ManagedThread struct {
	name string

	body func(ctx context.Context)

	affinity  []int
	priority  int
	hasAffin  bool
	hasPrio   bool

	logger Logger

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManagedThread constructs a stopped ManagedThread. body is run on its
// own goroutine once Start is called, and is expected to loop internally,
// checking ctx.Done() to know when to exit.
func NewManagedThread(name string, body func(ctx context.Context), logger Logger) *ManagedThread {
	if logger == nil {
		logger = noopLogger{}
	}
	return &ManagedThread{name: name, body: body, logger: logger}
}

// SetAffinity requests (best-effort) that the thread's goroutine be pinned
// to the given OS CPU indices once started. Failure to apply it is
// reported through Start's return value, never swallowed (§4.6).
func (mt *ManagedThread) SetAffinity(cpus ...int) {
	mt.affinity = cpus
	mt.hasAffin = len(cpus) > 0
}

// SetPriority requests (best-effort) a scheduling priority for the thread
// once started, in the platform's native units (Linux: sched_setscheduler
// SCHED_FIFO priority 1-99).
func (mt *ManagedThread) SetPriority(priority int) {
	mt.priority = priority
	mt.hasPrio = true
}

// Start launches the thread's body on its own goroutine. It returns any
// error encountered applying the requested affinity/priority; the thread
// still runs even if those best-effort settings failed, since a missing
// scheduling hint is not a reason to refuse to do the work at all.
func (mt *ManagedThread) Start() error {
	if !mt.running.CompareAndSwap(false, true) {
		return ErrThreadAlreadyRunning
	}

	mt.ctx, mt.cancel = context.WithCancel(context.Background())

	var affinErr, prioErr error
	mt.wg.Add(1)
	started := make(chan struct{})
	go func() {
		defer mt.wg.Done()
		if mt.hasAffin {
			affinErr = setThreadAffinity(mt.affinity)
			if affinErr != nil {
				mt.logger.Warn("set affinity failed", "thread", mt.name, "error", affinErr)
			}
		}
		if mt.hasPrio {
			prioErr = setThreadPriority(mt.priority)
			if prioErr != nil {
				mt.logger.Warn("set priority failed", "thread", mt.name, "error", prioErr)
			}
		}
		close(started)
		mt.body(mt.ctx)
	}()
	<-started

	if affinErr != nil {
		return affinErr
	}
	return prioErr
}

// Stop cancels the thread's context and waits for its goroutine to return.
func (mt *ManagedThread) Stop() {
	if !mt.running.CompareAndSwap(true, false) {
		return
	}
	mt.cancel()
	mt.wg.Wait()
}

// Sleep blocks for d, or until ctx is cancelled, whichever comes first. It
// sleeps in sleepChunk increments with a final precise remainder so a
// cancellation is noticed within sleepChunk rather than after the full
// duration (§4.6). It returns false if ctx was cancelled before d elapsed.
func Sleep(ctx context.Context, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return true
		}
		chunk := sleepChunk
		if remaining < chunk {
			chunk = remaining
		}
		timer := time.NewTimer(chunk)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
}
