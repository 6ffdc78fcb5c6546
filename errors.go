// Package dataflow implements the ILLIXR dataflow-and-scheduling core: a
// process-wide service registry, a typed publish/subscribe switchboard, and
// the managed-thread primitives that sensor, tracking, and rendering plugins
// run on.
package dataflow

import (
	"errors"
)

// Service registry errors.
var (
	ErrServiceAlreadyRegistered = errors.New("service already registered for this interface")
	ErrServiceNotRegistered     = errors.New("service not registered for this interface")
)

// Switchboard and topic errors.
var (
	ErrTopicTypeMismatch = errors.New("topic already declared with a different element type")
	ErrNilCallback       = errors.New("subscription callback cannot be nil")
	ErrNilEvent          = errors.New("cannot publish a nil event")
)

// Clock errors.
var (
	ErrClockNotStarted = errors.New("relative_clock.now() called before start()")
)

// Managed thread errors.
var (
	ErrThreadAlreadyRunning = errors.New("managed thread is already running")
	ErrAffinityUnsupported  = errors.New("cpu affinity is not supported on this platform")
	ErrPriorityUnsupported  = errors.New("thread priority is not supported on this platform")
)
