package dataflow

import "reflect"

// Writer publishes values of type T onto a topic. Many writers may share a
// topic; the switchboard does not serialize or order writes across them
// (§9, multi-writer ordering is left unspecified — do not depend on it).
type Writer[T any] struct {
	tp *topic
}

func newWriter[T any](tp *topic) *Writer[T] {
	tp.checkType(reflect.TypeOf((*T)(nil)).Elem())
	return &Writer[T]{tp: tp}
}

// Publish fans event out to every current subscriber and stores it as the
// topic's latest value. event must not be nil (§4.3).
func (w *Writer[T]) Publish(event *EventWrapper[T]) {
	if event == nil {
		panic(ErrNilEvent)
	}
	w.tp.publish(event)
}

// Reader subscribes a callback to every event published on a topic. It is
// the asynchronous delivery handle: each Reader's callback runs on its own
// dedicated goroutine, decoupled from every other subscriber (§4.4).
type Reader[T any] struct {
	tp  *topic
	sub *subscription
}

func newReader[T any](tp *topic, callback func(*EventWrapper[T]), policy QueuePolicy, queueBound int, records RecordLogger) *Reader[T] {
	tp.checkType(reflect.TypeOf((*T)(nil)).Elem())
	if callback == nil {
		panic(ErrNilCallback)
	}
	wrapped := func(event any) {
		callback(event.(*EventWrapper[T]))
	}
	sub := newSubscription(tp, wrapped, policy, queueBound, records)
	tp.addSubscription(sub)
	return &Reader[T]{tp: tp, sub: sub}
}

// Stop unsubscribes: the worker drains whatever is already queued, then
// exits and emits its summary record (§4.4 step 4).
func (r *Reader[T]) Stop() {
	r.tp.removeSubscription(r.sub)
	r.sub.stop()
}

// BufferedReader gives synchronous, pull-based access to a topic's most
// recently published value, for callers that poll on their own schedule
// instead of reacting to every event (e.g. a renderer sampling the latest
// pose once per frame) (§4.3 "BufferedReader").
type BufferedReader[T any] struct {
	tp *topic
}

func newBufferedReader[T any](tp *topic) *BufferedReader[T] {
	tp.checkType(reflect.TypeOf((*T)(nil)).Elem())
	return &BufferedReader[T]{tp: tp}
}

// Latest returns the most recently published event and true, or (nil,
// false) if nothing has been published yet.
func (b *BufferedReader[T]) Latest() (*EventWrapper[T], bool) {
	raw := b.tp.latest()
	if raw == nil {
		return nil, false
	}
	return raw.(*EventWrapper[T]), true
}
