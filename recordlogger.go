package dataflow

import (
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// Structured record types emitted by the core. These mirror the source's
// record_header constants (switchboard_callback, switchboard_topic_stop,
// threadloop_iteration, plugin_name) but as CloudEvents types so any
// CloudEvents-aware sink (file, broker, test spy) can consume them without
// the core knowing about the transport.
const (
	RecordTypePluginStart          = "illixr.plugin.start"
	RecordTypeSwitchboardCallback  = "illixr.switchboard.callback"
	RecordTypeSwitchboardTopicStop = "illixr.switchboard.topic_stop"
	RecordTypeThreadloopIteration  = "illixr.threadloop.iteration"
)

// PluginStartRecord is logged once per plugin, in the plugin's constructor,
// as soon as it has an id and a name (§4.9).
type PluginStartRecord struct {
	PluginID uint64 `json:"plugin_id"`
	Name     string `json:"name"`
}

// CallbackRecord times a single subscription callback invocation (§4.4
// step 2: "optionally log the callback's CPU/wall timings").
type CallbackRecord struct {
	PluginID    uint64        `json:"plugin_id"`
	TopicName   string        `json:"topic_name"`
	IterationNo uint64        `json:"iteration_no"`
	WallStart   time.Time     `json:"wall_time_start"`
	WallStop    time.Time     `json:"wall_time_stop"`
	Duration    time.Duration `json:"duration"`
}

// TopicStopRecord is the final summary a subscription worker emits when it
// drains and exits (§4.4 step 4, §8 scenario S4).
type TopicStopRecord struct {
	TopicName   string `json:"topic_name"`
	Enqueued    uint64 `json:"enqueued"`
	Dequeued    uint64 `json:"dequeued"`
	IdleCycles  uint64 `json:"idle_cycles"`
	Drained     uint64 `json:"drained"`
}

// ThreadloopIterationRecord accompanies every completed threadloop
// iteration (§4.7).
type ThreadloopIterationRecord struct {
	PluginID    uint64        `json:"plugin_id"`
	IterationNo uint64        `json:"iteration_no"`
	Skips       uint64        `json:"skips"`
	WallStart   time.Time     `json:"wall_time_start"`
	WallStop    time.Time     `json:"wall_time_stop"`
	Duration    time.Duration `json:"duration"`
}

// RecordLogger is the "record_logger" capability named in §6: a structured
// diagnostic sink that plugins, the switchboard, and the threadloop use to
// emit timing and lifecycle records. It never participates in the bus's
// fast path — logging failures are swallowed, never propagated, because a
// full diagnostic sink must not be able to stall event delivery.
type RecordLogger interface {
	Log(eventType, source string, data any)
}

// CloudEventSink receives a fully-formed CloudEvent. Implementations might
// write it to a file, forward it to a broker, or (in tests) append it to a
// slice.
type CloudEventSink func(cloudevents.Event)

// CloudEventRecordLogger is the default RecordLogger: every record is
// wrapped as a CloudEvent (source = the emitting component, type = one of
// the RecordType constants, data = the record struct as JSON) and handed to
// a sink function.
type CloudEventRecordLogger struct {
	sink   CloudEventSink
	logger Logger
}

// NewCloudEventRecordLogger builds a record logger. If sink is nil, records
// are silently dropped after construction (logging is always optional per
// §4.4: "optionally log"); logger, if non-nil, additionally receives a debug
// line per record for local troubleshooting.
func NewCloudEventRecordLogger(sink CloudEventSink, logger Logger) *CloudEventRecordLogger {
	if logger == nil {
		logger = noopLogger{}
	}
	return &CloudEventRecordLogger{sink: sink, logger: logger}
}

// Log builds and emits one record. It never returns an error and never
// blocks the caller on sink failure; diagnostics are best-effort by design.
func (r *CloudEventRecordLogger) Log(eventType, source string, data any) {
	r.logger.Debug("record", "type", eventType, "source", source)
	if r.sink == nil {
		return
	}
	event := newRecordEvent(eventType, source, data)
	r.sink(event)
}

func newRecordEvent(eventType, source string, data any) cloudevents.Event {
	event := cloudevents.NewEvent()
	event.SetID(generateRecordID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)
	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}
	return event
}

// generateRecordID uses UUIDv7 so records are time-ordered by construction;
// it falls back to v4 if the clock-based generator ever errors.
func generateRecordID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}
