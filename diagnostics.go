package dataflow

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// DiagnosticsReporter periodically emits a snapshot of every topic's
// subscriber count as a record, on a cron schedule. This is an ambient
// observability concern, not the job-scheduler-with-priorities explicitly
// out of scope for this core (§1 Non-goals) — it runs exactly one fixed
// task on a timer, never arbitrary user work.
type DiagnosticsReporter struct {
	sb      *Switchboard
	records RecordLogger
	logger  Logger
	cron    *cron.Cron
}

// NewDiagnosticsReporter builds a reporter against sb. Call Start with a
// cron spec (e.g. "@every 10s") to begin emitting snapshots.
func NewDiagnosticsReporter(sb *Switchboard, records RecordLogger, logger Logger) *DiagnosticsReporter {
	if logger == nil {
		logger = noopLogger{}
	}
	if records == nil {
		records = NewCloudEventRecordLogger(nil, logger)
	}
	return &DiagnosticsReporter{
		sb:      sb,
		records: records,
		logger:  logger,
		cron:    cron.New(),
	}
}

// TopicSnapshot is one topic's subscriber count at report time.
type TopicSnapshot struct {
	Name        string `json:"name"`
	Subscribers int    `json:"subscribers"`
}

const recordTypeDiagnosticsSnapshot = "illixr.diagnostics.snapshot"

// Start schedules the snapshot job on spec (standard cron syntax, plus the
// "@every" shorthand) and begins running it in the background.
func (d *DiagnosticsReporter) Start(spec string) error {
	_, err := d.cron.AddFunc(spec, d.report)
	if err != nil {
		return fmt.Errorf("schedule diagnostics report %q: %w", spec, err)
	}
	d.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for any in-flight report to finish.
func (d *DiagnosticsReporter) Stop() {
	ctx := d.cron.Stop()
	<-ctx.Done()
}

func (d *DiagnosticsReporter) report() {
	names := d.sb.TopicNames()
	snapshots := make([]TopicSnapshot, 0, len(names))
	for _, name := range names {
		count, err := d.sb.SubscriberCount(name)
		if err != nil {
			continue
		}
		snapshots = append(snapshots, TopicSnapshot{Name: name, Subscribers: count})
	}
	d.records.Log(recordTypeDiagnosticsSnapshot, "diagnostics", snapshots)
	d.logger.Debug("diagnostics snapshot", "topics", len(snapshots))
}
