package persistence

import (
	"context"
	"sync"

	"github.com/petrijr/waypoint/pkg/api"
)

// InMemoryEventStore is a simple, goroutine-safe EventStore backed by maps.
type InMemoryEventStore struct {
	mu     sync.RWMutex
	events map[string][]api.TransitionEvent
	order  []string
}

// NewInMemoryEventStore creates a new InMemoryEventStore.
func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		events: make(map[string][]api.TransitionEvent),
	}
}

var _ EventStore = (*InMemoryEventStore)(nil)

func (s *InMemoryEventStore) AppendEvent(ctx context.Context, ev api.TransitionEvent) error {
	ev, err := prepare(ev)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[ev.RunID]; !ok {
		s.order = append(s.order, ev.RunID)
	}
	s.events[ev.RunID] = append(s.events[ev.RunID], ev)
	return nil
}

func (s *InMemoryEventStore) ListEvents(ctx context.Context, runID string) ([]api.TransitionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	evs := s.events[runID]
	out := make([]api.TransitionEvent, len(evs))
	copy(out, evs)
	return out, nil
}

func (s *InMemoryEventStore) ListRuns(ctx context.Context, workflow string) ([]RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []RunSummary
	for _, id := range s.order {
		evs := s.events[id]
		if workflow != "" && evs[0].WorkflowName != workflow {
			continue
		}
		result = append(result, summarize(evs))
	}
	sortRuns(result)
	return result, nil
}
