package dataflow

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cucumber/godog"
)

// switchboardWorld holds the state threaded through one scenario's steps.
type switchboardWorld struct {
	sb *Switchboard

	writer *Writer[intPayload]

	mu       sync.Mutex
	received []int

	reader          *Reader[intPayload]
	block           chan struct{}
	once            sync.Once
	deliveredAtStop int
}

func (w *switchboardWorld) freshSwitchboard() error {
	w.sb = NewSwitchboard(SwitchboardConfig{}, nil, nil)
	w.block = make(chan struct{})
	return nil
}

func (w *switchboardWorld) writerForTopic(name, elementType string) error {
	if elementType != "int" {
		return fmt.Errorf("unsupported element type %q in this step definition", elementType)
	}
	w.writer = GetWriter[intPayload](w.sb, name)
	return nil
}

func (w *switchboardWorld) publishOn(n int, name string) error {
	w.writer.Publish(NewEvent(intPayload{N: n}, 0))
	return nil
}

func (w *switchboardWorld) subscribeCountingReader(name string) error {
	w.reader = GetReader[intPayload](w.sb, name, func(e *EventWrapper[intPayload]) {
		w.mu.Lock()
		w.received = append(w.received, e.Value.N)
		w.mu.Unlock()
	}, QueueLossless)
	return nil
}

func (w *switchboardWorld) blockingCountingReader(name string) error {
	w.reader = GetReader[intPayload](w.sb, name, func(e *EventWrapper[intPayload]) {
		w.once.Do(func() { <-w.block })
		w.mu.Lock()
		w.received = append(w.received, e.Value.N)
		w.mu.Unlock()
	}, QueueLossless)
	return nil
}

func (w *switchboardWorld) publishNEventsOn(n int, name string) error {
	for i := 0; i < n; i++ {
		w.writer.Publish(NewEvent(intPayload{N: i}, 0))
	}
	return nil
}

func (w *switchboardWorld) unblockAndStopReaderOn(name string) error {
	stopDone := make(chan struct{})
	go func() {
		w.reader.Stop()
		close(stopDone)
	}()
	time.Sleep(5 * time.Millisecond)
	close(w.block)
	<-stopDone

	w.mu.Lock()
	w.deliveredAtStop = len(w.received)
	w.mu.Unlock()
	return nil
}

func (w *switchboardWorld) noCallbackFiresAfterStop(name string) error {
	time.Sleep(20 * time.Millisecond)
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.received) != w.deliveredAtStop {
		return fmt.Errorf("reader on %q received %d events after stop returned, want no change from %d", name, len(w.received), w.deliveredAtStop)
	}
	return nil
}

func (w *switchboardWorld) eventuallyReceivesExactly(name, expected string) error {
	deadline := time.Now().Add(2 * time.Second)
	var wantParts []string
	for _, part := range strings.Split(expected, ",") {
		if part = strings.Trim(strings.TrimSpace(part), `"`); part != "" {
			wantParts = append(wantParts, part)
		}
	}
	want := strings.Join(wantParts, ",")
	for time.Now().Before(deadline) {
		w.mu.Lock()
		gotParts := make([]string, len(w.received))
		for i, n := range w.received {
			gotParts[i] = strconv.Itoa(n)
		}
		w.mu.Unlock()
		if strings.Join(gotParts, ",") == want {
			return nil
		}
		time.Sleep(time.Millisecond)
	}
	return fmt.Errorf("reader on %q did not receive the expected events, got %v", name, w.received)
}

func (w *switchboardWorld) latestValueOnIs(name, value string) error {
	br := GetBufferedReader[intPayload](w.sb, name)
	latest, ok := br.Latest()
	if !ok {
		return fmt.Errorf("no latest value on %q", name)
	}
	if fmt.Sprintf("%d", latest.Value.N) != value {
		return fmt.Errorf("latest value on %q was %d, want %s", name, latest.Value.N, value)
	}
	return nil
}

func (w *switchboardWorld) readerHasDeliveredExactly(name string, n int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.received) != n {
		return fmt.Errorf("reader on %q delivered %d events, want %d", name, len(w.received), n)
	}
	return nil
}

func (w *switchboardWorld) readerHasDeliveredNoMoreThan(name string, max int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.received) > max {
		return fmt.Errorf("reader on %q delivered %d events, want no more than %d", name, len(w.received), max)
	}
	return nil
}

func initializeScenario(ctx *godog.ScenarioContext) {
	w := &switchboardWorld{}

	ctx.Step(`^a fresh switchboard$`, w.freshSwitchboard)
	ctx.Step(`^a writer for topic "([^"]*)" of type "([^"]*)"$`, w.writerForTopic)
	ctx.Step(`^I publish (\d+) on "([^"]*)"$`, w.publishOn)
	ctx.Step(`^I subscribe a counting reader to "([^"]*)"$`, w.subscribeCountingReader)
	ctx.Step(`^a blocking counting reader on "([^"]*)"$`, w.blockingCountingReader)
	ctx.Step(`^I publish (\d+) events on "([^"]*)"$`, w.publishNEventsOn)
	ctx.Step(`^I unblock and stop the reader on "([^"]*)"$`, w.unblockAndStopReaderOn)
	ctx.Step(`^the reader on "([^"]*)" eventually receives exactly \[(.*)\]$`, w.eventuallyReceivesExactly)
	ctx.Step(`^the latest value on "([^"]*)" is "([^"]*)"$`, w.latestValueOnIs)
	ctx.Step(`^the reader on "([^"]*)" has delivered exactly (\d+) events$`, w.readerHasDeliveredExactly)
	ctx.Step(`^no callback on "([^"]*)" fires after stop returns$`, w.noCallbackFiresAfterStop)
	ctx.Step(`^the reader on "([^"]*)" has delivered no more than (\d+) events$`, w.readerHasDeliveredNoMoreThan)
}

func TestSwitchboardFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
