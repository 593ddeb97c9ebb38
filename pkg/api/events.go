package api

import "time"

// EventType identifies a transition history event.
type EventType string

const (
	EventLaunched  EventType = "workflow.launched"
	EventProceeded EventType = "step.proceeded"
	EventBackedUp  EventType = "step.backed_up"
	EventAbandoned EventType = "workflow.abandoned"
	EventCompleted EventType = "workflow.completed"
)

// TransitionEvent is a minimal append-only record of one responder
// notification, kept for audit and debugging.
type TransitionEvent struct {
	RunID        string
	WorkflowName string
	At           time.Time
	Type         EventType

	// Step and Position describe the node navigated to; From and
	// FromPosition the node navigated from. Positions are -1 when absent.
	Step         string
	Position     int
	From         string
	FromPosition int

	// Small, human-oriented details (anchor markers, final args summary).
	// Keep this low-volume: do NOT dump large payloads here.
	Detail string
}

// NewTransitionEvent returns an event of type typ for info with both
// positions unset.
func NewTransitionEvent(info WorkflowInfo, typ EventType) TransitionEvent {
	return TransitionEvent{
		RunID:        info.RunID,
		WorkflowName: info.Name,
		At:           time.Now(),
		Type:         typ,
		Position:     -1,
		FromPosition: -1,
	}
}

// WithTo fills the destination fields from n.
func (e TransitionEvent) WithTo(n Node) TransitionEvent {
	e.Step = n.StepName()
	e.Position = n.Position
	if !n.Loaded {
		e.Detail = "anchor"
	}
	return e
}

// WithFrom fills the origin fields from n.
func (e TransitionEvent) WithFrom(n Node) TransitionEvent {
	e.From = n.StepName()
	e.FromPosition = n.Position
	return e
}
