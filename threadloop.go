package dataflow

import (
	"context"
	"sync/atomic"
	"time"
)

// SkipOption is returned by a Threadloop's ShouldSkip hook to tell the loop
// what to do this iteration (§4.7, grounded on common/threadloop.hpp's
// skip_option enum).
type SkipOption int

const (
	// Run proceeds to call OneIteration this cycle.
	Run SkipOption = iota
	// SkipAndYield skips OneIteration this cycle and yields the CPU
	// briefly before checking ShouldSkip again.
	SkipAndYield
	// SkipAndSpin skips OneIteration this cycle and immediately
	// re-checks ShouldSkip with no yield, for tight polling loops.
	SkipAndSpin
	// Stop ends the loop entirely, as if Stop() had been called.
	Stop
)

// yieldDuration is how long SkipAndYield sleeps before re-checking
// ShouldSkip.
const yieldDuration = time.Millisecond

// Threadloop repeatedly calls ShouldSkip then, if it returns Run, calls
// OneIteration, until stopped (§4.7). It is built on ManagedThread for its
// actual goroutine and cooperative-sleep machinery.
//
// The source's implementation increments its iteration counter both in the
// scheduled-callback path and again in the free-running loop body, a
// double-count later callers have to work around. This port keeps a single
// counter, incremented exactly once per completed OneIteration call,
// because nothing in this system depends on matching the source's
// over-count and a single definition is easier to reason about.
type Threadloop struct {
	thread *ManagedThread

	shouldSkip   func() SkipOption
	oneIteration func()
	yieldFor     time.Duration

	iteration atomic.Uint64
	skips     atomic.Uint64
	records   RecordLogger
	pluginID  uint64
}

// NewThreadloop builds a Threadloop. shouldSkip is called once per cycle to
// decide whether to run, yield, spin, or stop; oneIteration does the actual
// work when shouldSkip returns Run. config.YieldMillis overrides the
// SkipAndYield sleep duration when non-zero (§3 RuntimeConfig), otherwise
// yieldDuration is used.
func NewThreadloop(name string, pluginID uint64, config ThreadloopConfig, shouldSkip func() SkipOption, oneIteration func(), logger Logger, records RecordLogger) *Threadloop {
	if shouldSkip == nil {
		shouldSkip = func() SkipOption { return Run }
	}
	if records == nil {
		records = NewCloudEventRecordLogger(nil, logger)
	}
	yieldFor := yieldDuration
	if config.YieldMillis > 0 {
		yieldFor = time.Duration(config.YieldMillis) * time.Millisecond
	}
	tl := &Threadloop{
		shouldSkip:   shouldSkip,
		oneIteration: oneIteration,
		yieldFor:     yieldFor,
		records:      records,
		pluginID:     pluginID,
	}
	tl.thread = NewManagedThread(name, tl.loop, logger)
	return tl
}

// Start begins the loop on its own goroutine.
func (tl *Threadloop) Start() error { return tl.thread.Start() }

// Stop ends the loop and waits for its goroutine to return.
func (tl *Threadloop) Stop() { tl.thread.Stop() }

// Iteration returns the number of OneIteration calls completed so far.
func (tl *Threadloop) Iteration() uint64 { return tl.iteration.Load() }

func (tl *Threadloop) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		switch tl.shouldSkip() {
		case Stop:
			return
		case SkipAndYield:
			tl.skips.Add(1)
			if !Sleep(ctx, tl.yieldFor) {
				return
			}
			continue
		case SkipAndSpin:
			tl.skips.Add(1)
			continue
		}

		start := time.Now()
		tl.oneIteration()
		stop := time.Now()
		n := tl.iteration.Add(1)
		skips := tl.skips.Swap(0)

		tl.records.Log(RecordTypeThreadloopIteration, "threadloop", ThreadloopIterationRecord{
			PluginID:    tl.pluginID,
			IterationNo: n,
			Skips:       skips,
			WallStart:   start,
			WallStop:    stop,
			Duration:    stop.Sub(start),
		})
	}
}
