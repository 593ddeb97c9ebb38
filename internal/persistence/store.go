// Package persistence stores the transition journal: an append-only history
// of responder notifications, keyed by run.
package persistence

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/petrijr/waypoint/pkg/api"
)

var (
	// ErrMissingRunID is returned when an event without a run ID is appended.
	ErrMissingRunID = errors.New("journal: event has no run id")
)

// Appender is the write side of an EventStore.
type Appender interface {
	AppendEvent(ctx context.Context, ev api.TransitionEvent) error
}

// EventStore is an append-only history store for workflow transitions.
// Implementations must be safe for concurrent use and return events of a run
// in the order they were appended.
type EventStore interface {
	Appender
	ListEvents(ctx context.Context, runID string) ([]api.TransitionEvent, error)
	// ListRuns summarizes every run of workflow, oldest first. An empty
	// workflow name lists all runs.
	ListRuns(ctx context.Context, workflow string) ([]RunSummary, error)
}

// RunSummary describes one run as seen by the journal.
type RunSummary struct {
	RunID     string
	Workflow  string
	StartedAt time.Time
	UpdatedAt time.Time
	LastEvent api.EventType
	Events    int
}

// Finished reports whether the run was completed or abandoned.
func (s RunSummary) Finished() bool {
	return s.LastEvent == api.EventCompleted || s.LastEvent == api.EventAbandoned
}

// NoopEventStore discards all events.
type NoopEventStore struct{}

func (NoopEventStore) AppendEvent(ctx context.Context, ev api.TransitionEvent) error { return nil }
func (NoopEventStore) ListEvents(ctx context.Context, runID string) ([]api.TransitionEvent, error) {
	return nil, nil
}
func (NoopEventStore) ListRuns(ctx context.Context, workflow string) ([]RunSummary, error) {
	return nil, nil
}

// prepare validates ev and stamps it if needed.
func prepare(ev api.TransitionEvent) (api.TransitionEvent, error) {
	if ev.RunID == "" {
		return ev, ErrMissingRunID
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	return ev, nil
}

// summarize folds the events of one run into a summary. events must be in
// append order and non-empty.
func summarize(events []api.TransitionEvent) RunSummary {
	first, last := events[0], events[len(events)-1]
	return RunSummary{
		RunID:     first.RunID,
		Workflow:  first.WorkflowName,
		StartedAt: first.At,
		UpdatedAt: last.At,
		LastEvent: last.Type,
		Events:    len(events),
	}
}

func sortRuns(runs []RunSummary) {
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.Before(runs[j].StartedAt)
	})
}
