//go:build linux

package dataflow

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// setThreadAffinity pins the calling OS thread to the given CPU indices
// using sched_setaffinity, matching the source's set_cpu_affinity on Linux
// (common/managed_thread.hpp). Go goroutines migrate between OS threads by
// default; this is only effective combined with runtime.LockOSThread,
// which the body function is responsible for calling if it needs the
// affinity to stick for its whole lifetime.
func setThreadAffinity(cpus []int) error {
	var set unix.CPUSet
	set.Zero()
	for _, cpu := range cpus {
		set.Set(cpu)
	}
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("%w: %v", ErrAffinityUnsupported, err)
	}
	return nil
}

// setThreadPriority applies a SCHED_FIFO real-time priority to the calling
// OS thread, matching the source's set_priority.
func setThreadPriority(priority int) error {
	param := unix.SchedParam{Priority: int32(priority)}
	if err := unix.SchedSetscheduler(0, unix.SCHED_FIFO, &param); err != nil {
		return fmt.Errorf("%w: %v", ErrPriorityUnsupported, err)
	}
	return nil
}
