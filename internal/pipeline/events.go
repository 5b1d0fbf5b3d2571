package pipeline

import (
	"fmt"
	"time"

	"github.com/soppliger/auteur/internal/generate"
)

// EventKind classifies a progress event.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventInfo      EventKind = "info"
	EventRetry     EventKind = "retry"
	EventFallback  EventKind = "fallback"
	EventCompleted EventKind = "completed"
	EventFailed    EventKind = "failed"
)

// Event is one progress message. Events of a run arrive in step order.
type Event struct {
	Index   int           `json:"index"` // 1-based step index
	Step    string        `json:"step"`
	Kind    EventKind     `json:"kind"`
	Message string        `json:"message"`
	Attempt int           `json:"attempt,omitempty"`
	Delay   time.Duration `json:"delay,omitempty"`
	Time    time.Time     `json:"time"`
}

// String renders the event as a log line.
func (e Event) String() string {
	return fmt.Sprintf("[%d/%d] %s", e.Index, len(Steps), e.Message)
}

// Reporter receives progress events. Calls are made from the goroutine
// running the pipeline.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

func (f ReporterFunc) Report(e Event) { f(e) }

type nopReporter struct{}

func (nopReporter) Report(Event) {}

// StepError names the step that aborted a run.
type StepError struct {
	Index int
	Step  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Kind returns the failure class of the cause.
func (e *StepError) Kind() generate.Kind {
	return generate.Classify(e.Err)
}
