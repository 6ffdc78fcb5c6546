package dataflow

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// ringCapacity is the number of most-recent events a topic retains for
// BufferedReader polling (§4.3, "B=256-capacity latest-value
// ring"). It mirrors the source's switchboard_topic default buffer size.
const ringCapacity = 256

// topic owns one named channel of typed events: the ring buffer recent
// readers can poll, and the list of live subscriptions recent writers fan
// out to. A topic's element type is fixed the first time it is acquired by
// either a reader, a writer, or a subscription, and every later acquisition
// is checked against it (§4.3 "declared element type identity").
type topic struct {
	name        string
	elementType reflect.Type

	ring   [ringCapacity]atomic.Pointer[any]
	writeI atomic.Uint64 // next ring slot to write, mod ringCapacity

	mu   sync.RWMutex
	subs []*subscription
}

func newTopic(name string, elementType reflect.Type) *topic {
	return &topic{name: name, elementType: elementType}
}

// checkType panics with ErrTopicTypeMismatch if t is not the topic's
// declared element type. Every Reader/Writer/BufferedReader/Subscribe call
// routes through this, so a type mistake fails at acquisition time rather
// than silently corrupting delivery later.
func (tp *topic) checkType(t reflect.Type) {
	if tp.elementType != t {
		panic(ErrTopicTypeMismatch)
	}
}

// publish stores event in the ring and fans it out to every live
// subscription's queue. It never blocks on a slow subscriber for longer than
// that subscriber's own queue policy allows (§4.4): a lossless subscription
// applies backpressure to this call, a lossy one drops silently. The ring
// slot is stored before the index is advanced, under the topic lock, so
// latest never sees an index whose slot still holds an older event.
func (tp *topic) publish(event any) {
	var boxed any = event

	tp.mu.Lock()
	slot := tp.writeI.Load()
	tp.ring[slot%ringCapacity].Store(&boxed)
	tp.writeI.Store(slot + 1)
	subs := make([]*subscription, len(tp.subs))
	copy(subs, tp.subs)
	tp.mu.Unlock()

	for _, sub := range subs {
		sub.enqueue(event)
	}
}

// latest returns the most recently published event, or nil if nothing has
// been published yet. Used by BufferedReader's synchronous "latest value"
// read path.
func (tp *topic) latest() any {
	slot := tp.writeI.Load()
	if slot == 0 {
		return nil
	}
	boxed := tp.ring[(slot-1)%ringCapacity].Load()
	if boxed == nil {
		return nil
	}
	return *boxed
}

// addSubscription registers sub as a live subscriber of this topic.
func (tp *topic) addSubscription(sub *subscription) {
	tp.mu.Lock()
	tp.subs = append(tp.subs, sub)
	tp.mu.Unlock()
}

// removeSubscription drops sub from the live subscriber list. Callers remove
// a subscription before stopping its worker, so later publishes no longer
// enqueue into it (§4.4 step 4).
func (tp *topic) removeSubscription(sub *subscription) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	for i, s := range tp.subs {
		if s == sub {
			tp.subs = append(tp.subs[:i], tp.subs[i+1:]...)
			return
		}
	}
}

// subscriberCount reports the number of live subscriptions, used in tests
// and diagnostics.
func (tp *topic) subscriberCount() int {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return len(tp.subs)
}
