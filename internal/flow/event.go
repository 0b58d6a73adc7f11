package flow

import (
	"context"
	"time"

	domain "github.com/oshokin/recall-lens/internal/domain/recall"
)

// EventKind tells the presentation layer what to render.
type EventKind string

// Event kinds.
const (
	// EventPhase reports a state transition.
	EventPhase EventKind = "phase"
	// EventLabel asks for a result label anchored at a world position.
	EventLabel EventKind = "label"
	// EventPrompt asks for the clarifying question and an answer field.
	EventPrompt EventKind = "prompt"
	// EventRemediation asks for the remediation URL to be opened.
	EventRemediation EventKind = "remediation"
	// EventBusy toggles the busy spinner.
	EventBusy EventKind = "busy"
	// EventNotice carries a neutral, non-blocking failure message.
	EventNotice EventKind = "notice"
)

// Label is the result card placed in the scene.
type Label struct {
	// Title is the object name.
	Title string
	// Status is domain.StatusRecalled or domain.StatusNotRecalled.
	Status string
	// Position is the anchor captured at selection time.
	Position domain.WorldPosition
}

// Event is one state-entry side effect.
type Event struct {
	Kind      EventKind
	SessionID string
	At        time.Time

	// Phase is set for EventPhase.
	Phase domain.Phase
	// Label is set for EventLabel.
	Label *Label
	// Title is the object name for EventPrompt.
	Title string
	// Text is the question for EventPrompt or the message for EventNotice.
	Text string
	// URL is set for EventRemediation.
	URL string
	// Busy is set for EventBusy.
	Busy bool
}

// Sink receives flow events.
// Publish is called with the flow lock held: it must not block and must not
// call back into the Flow.
type Sink interface {
	Publish(ctx context.Context, event Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event)

// Publish implements Sink.
func (f SinkFunc) Publish(ctx context.Context, event Event) {
	f(ctx, event)
}

func phaseEvent(phase domain.Phase) Event {
	return Event{Kind: EventPhase, Phase: phase}
}

func busyEvent(busy bool) Event {
	return Event{Kind: EventBusy, Busy: busy}
}

func labelEvent(title, status string, position domain.WorldPosition) Event {
	return Event{
		Kind: EventLabel,
		Label: &Label{
			Title:    title,
			Status:   status,
			Position: position,
		},
	}
}
