//go:build !linux

package dataflow

// setThreadAffinity is unsupported outside Linux; ManagedThread still runs,
// it just can't honor the affinity hint.
func setThreadAffinity(cpus []int) error {
	return ErrAffinityUnsupported
}

// setThreadPriority is unsupported outside Linux.
func setThreadPriority(priority int) error {
	return ErrPriorityUnsupported
}
