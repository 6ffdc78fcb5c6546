package dataflow

import (
	"fmt"
	"reflect"
	"sync"
)

// Switchboard owns every named topic in a process (§4.3). It is the typed
// publish/subscribe bus that decouples plugins from one another: a plugin
// asks for a Reader, BufferedReader, or Writer on a named topic without
// knowing who else publishes or subscribes to it.
//
// A topic's element type is fixed by whichever call (GetReader,
// GetBufferedReader, or GetWriter) first names it; every later call against
// the same name is checked against that type and panics on mismatch
// (§4.3 "declared element type identity").
type Switchboard struct {
	mu      sync.RWMutex
	topics  map[string]*topic
	config  SwitchboardConfig
	records RecordLogger
	logger  Logger
}

// NewSwitchboard returns an empty switchboard tuned by config (queue bound
// and default delivery policy; see RuntimeConfig). If records is nil, a
// CloudEventRecordLogger with no sink is used (records are computed but
// dropped). If logger is nil, a no-op logger is used.
func NewSwitchboard(config SwitchboardConfig, records RecordLogger, logger Logger) *Switchboard {
	if logger == nil {
		logger = noopLogger{}
	}
	if records == nil {
		records = NewCloudEventRecordLogger(nil, logger)
	}
	return &Switchboard{
		topics:  make(map[string]*topic),
		config:  config,
		records: records,
		logger:  logger,
	}
}

// topicFor returns the named topic, creating it with elementType if it
// doesn't exist yet, and panicking if it exists with a different type.
func (sb *Switchboard) topicFor(name string, elementType reflect.Type) *topic {
	sb.mu.RLock()
	tp, ok := sb.topics[name]
	sb.mu.RUnlock()
	if ok {
		tp.checkType(elementType)
		return tp
	}

	sb.mu.Lock()
	defer sb.mu.Unlock()
	if tp, ok = sb.topics[name]; ok {
		tp.checkType(elementType)
		return tp
	}
	tp = newTopic(name, elementType)
	sb.topics[name] = tp
	sb.logger.Debug("topic declared", "name", name, "type", elementType)
	return tp
}

// GetWriter returns a Writer[T] for the named topic, declaring it with
// element type T if this is the topic's first acquisition.
func GetWriter[T any](sb *Switchboard, name string) *Writer[T] {
	tp := sb.topicFor(name, reflect.TypeOf((*T)(nil)).Elem())
	return newWriter[T](tp)
}

// GetReader returns a Reader[T] for the named topic, subscribing callback
// with the given queue policy. callback runs on a dedicated goroutine
// owned by the returned Reader; call Reader.Stop to unsubscribe. The
// subscription's queue is bounded by sb's configured QueueBound (§3
// RuntimeConfig), falling back to defaultQueueBound when unset.
func GetReader[T any](sb *Switchboard, name string, callback func(*EventWrapper[T]), policy QueuePolicy) *Reader[T] {
	tp := sb.topicFor(name, reflect.TypeOf((*T)(nil)).Elem())
	return newReader[T](tp, callback, policy, sb.config.QueueBound, sb.records)
}

// GetReaderDefaultPolicy is GetReader using the switchboard's configured
// default delivery policy (RuntimeConfig's switchboard.default_policy)
// instead of requiring the caller to choose one explicitly.
func GetReaderDefaultPolicy[T any](sb *Switchboard, name string, callback func(*EventWrapper[T])) *Reader[T] {
	return GetReader[T](sb, name, callback, sb.config.Policy())
}

// GetBufferedReader returns a BufferedReader[T] for the named topic, for
// pull-based access to its latest published value.
func GetBufferedReader[T any](sb *Switchboard, name string) *BufferedReader[T] {
	tp := sb.topicFor(name, reflect.TypeOf((*T)(nil)).Elem())
	return newBufferedReader[T](tp)
}

// TopicNames returns the names of every topic declared so far, for
// diagnostics and tests.
func (sb *Switchboard) TopicNames() []string {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	names := make([]string, 0, len(sb.topics))
	for name := range sb.topics {
		names = append(names, name)
	}
	return names
}

// SubscriberCount reports how many live subscriptions the named topic has,
// or an error if the topic hasn't been declared yet.
func (sb *Switchboard) SubscriberCount(name string) (int, error) {
	sb.mu.RLock()
	tp, ok := sb.topics[name]
	sb.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("topic %q not declared", name)
	}
	return tp.subscriberCount(), nil
}

// Stop unsubscribes and drains every live reader on every topic, in no
// particular order. Intended for process shutdown; individual readers
// should normally be stopped via their own Reader.Stop as plugins retire.
func (sb *Switchboard) Stop() {
	sb.mu.RLock()
	topics := make([]*topic, 0, len(sb.topics))
	for _, tp := range sb.topics {
		topics = append(topics, tp)
	}
	sb.mu.RUnlock()

	var wg sync.WaitGroup
	for _, tp := range topics {
		tp.mu.RLock()
		subs := make([]*subscription, len(tp.subs))
		copy(subs, tp.subs)
		tp.mu.RUnlock()

		for _, sub := range subs {
			wg.Add(1)
			go func(tp *topic, sub *subscription) {
				defer wg.Done()
				tp.removeSubscription(sub)
				sub.stop()
			}(tp, sub)
		}
	}
	wg.Wait()
}
