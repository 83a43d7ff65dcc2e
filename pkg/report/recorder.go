package report

import (
	"sync"

	"github.com/goliatone/go-textgen/pkg/engine"
)

// EventKind names the Reporter method an Event came from.
type EventKind string

const (
	EventRendered EventKind = "rendered"
	EventSummary  EventKind = "summary"
	EventInfo     EventKind = "info"
	EventError    EventKind = "error"
)

// Event is one recorded Reporter call.
type Event struct {
	Kind     EventKind
	Template string
	Output   string
	Summary  engine.Summary
	Message  string
}

// Recorder keeps every call in order. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

var _ Reporter = (*Recorder)(nil)

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Rendered(template, output string) {
	r.add(Event{Kind: EventRendered, Template: template, Output: output})
}

func (r *Recorder) Summary(summary engine.Summary) {
	r.add(Event{Kind: EventSummary, Summary: summary, Message: SummaryMessage(summary)})
}

func (r *Recorder) Info(msg string) {
	r.add(Event{Kind: EventInfo, Message: msg})
}

func (r *Recorder) Error(err error) {
	if err == nil {
		return
	}
	r.add(Event{Kind: EventError, Message: err.Error()})
}

// Events returns a copy of the recorded calls.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Filter returns the recorded calls of one kind.
func (r *Recorder) Filter(kind EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, event := range r.events {
		if event.Kind == kind {
			out = append(out, event)
		}
	}
	return out
}

// Reset drops every recorded call.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *Recorder) add(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}
