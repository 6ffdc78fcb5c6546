package dataflow

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadloopRunsAndCountsIterations(t *testing.T) {
	var ran atomic.Int64
	tl := NewThreadloop("test", 1, ThreadloopConfig{}, func() SkipOption { return Run }, func() {
		ran.Add(1)
	}, nil, nil)

	require.NoError(t, tl.Start())
	time.Sleep(20 * time.Millisecond)
	tl.Stop()

	assert.Greater(t, ran.Load(), int64(0))
	assert.Equal(t, uint64(ran.Load()), tl.Iteration())
}

func TestThreadloopStopOptionEndsLoop(t *testing.T) {
	var calls atomic.Int64
	tl := NewThreadloop("test", 1, ThreadloopConfig{}, func() SkipOption {
		if calls.Load() >= 3 {
			return Stop
		}
		return Run
	}, func() {
		calls.Add(1)
	}, nil, nil)

	require.NoError(t, tl.Start())

	require.Eventually(t, func() bool {
		return calls.Load() >= 3
	}, time.Second, time.Millisecond)

	time.Sleep(10 * time.Millisecond)
	final := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, final, calls.Load())

	tl.Stop()
}

func TestThreadloopSkipAndSpinNeverRunsIteration(t *testing.T) {
	var ran atomic.Int64
	tl := NewThreadloop("test", 1, ThreadloopConfig{}, func() SkipOption { return SkipAndSpin }, func() {
		ran.Add(1)
	}, nil, nil)

	require.NoError(t, tl.Start())
	time.Sleep(10 * time.Millisecond)
	tl.Stop()

	assert.Zero(t, ran.Load())
}
