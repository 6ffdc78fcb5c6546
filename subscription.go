package dataflow

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// subscriptionPollInterval bounds how long a subscription worker blocks
// waiting for the next event before it loops to check for a stop request.
// This mirrors the source's topic_subscription worker thread, which wakes
// periodically rather than blocking forever so it can notice shutdown
// promptly (§4.4).
const subscriptionPollInterval = 100 * time.Millisecond

// defaultQueueBound is the subscription queue's default capacity. Past this
// many unconsumed events, a lossless subscription's Publish blocks and a
// lossy one drops the newest event (§4.4, "bounded MPSC queue").
const defaultQueueBound = 1024

// QueuePolicy controls what a subscription's queue does when it is full.
type QueuePolicy int

const (
	// QueueLossy drops the newest event when the queue is full, so a slow
	// subscriber never stalls publishers.
	QueueLossy QueuePolicy = iota
	// QueueLossless blocks the publisher until the queue has room, so no
	// subscriber ever misses an event at the cost of back-pressuring
	// every writer on the topic.
	QueueLossless
)

// subscription is one callback's private queue and worker goroutine. Each
// subscription gets its own goroutine and channel (§4.4 "dedicated worker
// goroutine"), so callbacks of different subscribers run independently. A
// full lossless queue still blocks the publisher, delaying fan-out to the
// topic's remaining subscribers, and a panicking callback is not recovered.
type subscription struct {
	id        string
	topic     *topic
	topicName string
	callback  func(any)
	policy    QueuePolicy
	records   RecordLogger

	queue   chan any
	done    chan struct{}
	stopped chan struct{}

	enqueued   atomic.Uint64
	dequeued   atomic.Uint64
	idleCycles atomic.Uint64
	dropped    atomic.Uint64
	drained    atomic.Uint64
}

func newSubscription(tp *topic, callback func(any), policy QueuePolicy, queueBound int, records RecordLogger) *subscription {
	if callback == nil {
		panic(ErrNilCallback)
	}
	if records == nil {
		records = NewCloudEventRecordLogger(nil, nil)
	}
	if queueBound <= 0 {
		queueBound = defaultQueueBound
	}
	sub := &subscription{
		id:        uuid.New().String(),
		topic:     tp,
		topicName: tp.name,
		callback:  callback,
		policy:    policy,
		records:   records,
		queue:     make(chan any, queueBound),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go sub.run()
	return sub
}

// enqueue delivers event to this subscription's queue according to its
// policy. Called from the publishing goroutine, never from the
// subscription's own worker.
func (s *subscription) enqueue(event any) {
	switch s.policy {
	case QueueLossless:
		select {
		case s.queue <- event:
			s.enqueued.Add(1)
		case <-s.done:
		}
	default: // QueueLossy
		select {
		case s.queue <- event:
			s.enqueued.Add(1)
		default:
			s.dropped.Add(1)
		}
	}
}

// run is the subscription's dedicated worker loop: wait for an event up to
// subscriptionPollInterval, invoke the callback if one arrived, otherwise
// bump the idle-cycle counter and loop again, until Stop is called.
func (s *subscription) run() {
	defer close(s.stopped)
	timer := time.NewTimer(subscriptionPollInterval)
	defer timer.Stop()

	for {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(subscriptionPollInterval)

		select {
		case event := <-s.queue:
			s.deliver(event)
		case <-timer.C:
			s.idleCycles.Add(1)
		case <-s.done:
			s.drain()
			return
		}
	}
}

func (s *subscription) deliver(event any) {
	start := time.Now()
	s.callback(event)
	stop := time.Now()
	n := s.dequeued.Add(1)

	s.records.Log(RecordTypeSwitchboardCallback, s.topicName, CallbackRecord{
		TopicName:   s.topicName,
		IterationNo: n,
		WallStart:   start,
		WallStop:    stop,
		Duration:    stop.Sub(start),
	})
}

// drain releases whatever remains in the queue without blocking and without
// invoking the callback: once stop has been requested, no subscription
// callback may begin execution (§4.4 step 4 "releasing each without calling
// back"; invariant 4; §8 scenario S4), mirroring the source's
// thread_on_stop, which does try_dequeue plus this_event.reset() with no
// callback involved.
func (s *subscription) drain() {
	for {
		select {
		case <-s.queue:
			s.drained.Add(1)
		default:
			return
		}
	}
}

// stop signals the worker to drain and exit, then blocks until it has, and
// finally emits a TopicStopRecord summarizing the subscription's lifetime.
func (s *subscription) stop() {
	close(s.done)
	<-s.stopped

	s.records.Log(RecordTypeSwitchboardTopicStop, s.topicName, TopicStopRecord{
		TopicName:  s.topicName,
		Enqueued:   s.enqueued.Load(),
		Dequeued:   s.dequeued.Load(),
		IdleCycles: s.idleCycles.Load(),
		Drained:    s.drained.Load(),
	})
}
