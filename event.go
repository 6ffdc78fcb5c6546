package dataflow

import "time"

// Event is the minimal contract every value published on a topic satisfies.
// It is intentionally tiny: the payload type itself carries the domain
// fields (§4.3); the switchboard only needs to stamp and pass shared
// pointers around without knowing what's inside them.
type Event interface {
	// Time returns the RelativeClock instant the producer attached to this
	// event. The switchboard does not set this itself — it is sampled by
	// the writer so producers control exactly which instant an event
	// represents (e.g. the sensor sample time, not the publish time).
	Time() time.Duration
}

// EventWrapper gives any payload type T an Event's Time() method without
// requiring T itself to implement it, mirroring the source's
// switchboard::event<T> template that wraps an arbitrary plugin-owned type
// in a small header carrying the timestamp.
type EventWrapper[T any] struct {
	Value     T
	Timestamp time.Duration
}

// NewEvent wraps value with the given timestamp, ready to publish.
func NewEvent[T any](value T, timestamp time.Duration) *EventWrapper[T] {
	return &EventWrapper[T]{Value: value, Timestamp: timestamp}
}

// Time implements Event.
func (e *EventWrapper[T]) Time() time.Duration { return e.Timestamp }
