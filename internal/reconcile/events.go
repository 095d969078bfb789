package reconcile

import (
	"time"

	"github.com/go-logr/logr"
)

// EventType classifies engine events.
type EventType string

const (
	// EventPlanStarted indicates a dry run began.
	EventPlanStarted EventType = "plan.started"
	// EventPlanComputed indicates a dry run finished, actionable or not.
	EventPlanComputed EventType = "plan.computed"
	// EventSupernetSkipped indicates a supernet was passed over during
	// reservation planning (exhausted or unreadable).
	EventSupernetSkipped EventType = "supernet.skipped"
	// EventApplyStarted indicates the mutating call is about to run.
	EventApplyStarted EventType = "apply.started"
	// EventApplyCompleted indicates the mutating call succeeded.
	EventApplyCompleted EventType = "apply.completed"
	// EventApplyFailed indicates the mutating call failed.
	EventApplyFailed EventType = "apply.failed"
)

// Event is a structured engine event, consumed by logging, metrics and
// the progress display.
type Event struct {
	Type      EventType
	Kind      Kind
	Identity  string
	Message   string
	Timestamp time.Time
	Fields    map[string]string
}

// Observer receives engine events.
type Observer interface {
	Event(event Event)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) Event(Event) {}

// LogObserver forwards events to a logr.Logger as structured lines.
type LogObserver struct {
	Log logr.Logger
}

func (o LogObserver) Event(event Event) {
	kv := []any{"kind", string(event.Kind), "identity", event.Identity}
	for k, v := range event.Fields {
		kv = append(kv, k, v)
	}
	o.Log.V(1).Info(string(event.Type)+": "+event.Message, kv...)
}

// MultiObserver fans events out to several observers.
func MultiObserver(observers ...Observer) Observer {
	return multiObserver(observers)
}

type multiObserver []Observer

func (m multiObserver) Event(event Event) {
	for _, o := range m {
		o.Event(event)
	}
}

func emit(obs Observer, eventType EventType, kind Kind, identity, message string, fields map[string]string) {
	obs.Event(Event{
		Type:      eventType,
		Kind:      kind,
		Identity:  identity,
		Message:   message,
		Timestamp: time.Now(),
		Fields:    fields,
	})
}
