package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/petrijr/waypoint/pkg/api"
)

// EventStoreSuite is the behaviour every EventStore backend must share.
// Backends embed it and set store in SetupSuite.
type EventStoreSuite struct {
	suite.Suite
	store EventStore
	ctx   context.Context

	// workflow is unique per test so backends need no cleanup between tests.
	workflow string
}

func (s *EventStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.workflow = "journal-" + uuid.NewString()
}

func (s *EventStoreSuite) event(runID string, typ api.EventType, step string, position int, at time.Time) api.TransitionEvent {
	ev := api.NewTransitionEvent(api.WorkflowInfo{Name: s.workflow, RunID: runID}, typ)
	ev.Step = step
	ev.Position = position
	ev.At = at
	return ev
}

func (s *EventStoreSuite) TestAppendAndListPreservesOrder() {
	runID := uuid.NewString()
	base := time.Unix(1_700_000_000, 0)

	launch := s.event(runID, api.EventLaunched, "welcome", 0, base)
	proceed := s.event(runID, api.EventProceeded, "details", 2, base.Add(time.Second))
	proceed.From = "welcome"
	proceed.FromPosition = 0
	proceed.Detail = "anchor"
	done := s.event(runID, api.EventCompleted, "", -1, base.Add(2*time.Second))
	done.Detail = "args(ok)"

	for _, ev := range []api.TransitionEvent{launch, proceed, done} {
		s.Require().NoError(s.store.AppendEvent(s.ctx, ev))
	}

	got, err := s.store.ListEvents(s.ctx, runID)
	s.Require().NoError(err)
	s.Require().Len(got, 3)

	s.Equal(api.EventLaunched, got[0].Type)
	s.Equal("welcome", got[0].Step)
	s.Equal(-1, got[0].FromPosition)

	s.Equal(api.EventProceeded, got[1].Type)
	s.Equal("details", got[1].Step)
	s.Equal(2, got[1].Position)
	s.Equal("welcome", got[1].From)
	s.Equal(0, got[1].FromPosition)
	s.Equal("anchor", got[1].Detail)
	s.True(got[1].At.Equal(base.Add(time.Second)), "timestamp round-trips: %v", got[1].At)

	s.Equal(api.EventCompleted, got[2].Type)
	s.Equal("args(ok)", got[2].Detail)
	s.Equal(s.workflow, got[2].WorkflowName)
}

func (s *EventStoreSuite) TestListEventsUnknownRun() {
	got, err := s.store.ListEvents(s.ctx, uuid.NewString())
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *EventStoreSuite) TestAppendRejectsMissingRunID() {
	err := s.store.AppendEvent(s.ctx, api.TransitionEvent{Type: api.EventLaunched})
	s.Require().ErrorIs(err, ErrMissingRunID)
}

func (s *EventStoreSuite) TestAppendStampsZeroTime() {
	runID := uuid.NewString()
	before := time.Now()

	ev := s.event(runID, api.EventLaunched, "a", 0, time.Time{})
	s.Require().NoError(s.store.AppendEvent(s.ctx, ev))

	got, err := s.store.ListEvents(s.ctx, runID)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.False(got[0].At.Before(before.Add(-time.Second)), "event was stamped: %v", got[0].At)
}

func (s *EventStoreSuite) TestListRunsSummarizesByWorkflow() {
	base := time.Unix(1_700_000_000, 0)
	first, second := uuid.NewString(), uuid.NewString()

	s.Require().NoError(s.store.AppendEvent(s.ctx, s.event(first, api.EventLaunched, "a", 0, base)))
	s.Require().NoError(s.store.AppendEvent(s.ctx, s.event(first, api.EventProceeded, "b", 1, base.Add(time.Second))))
	s.Require().NoError(s.store.AppendEvent(s.ctx, s.event(first, api.EventCompleted, "", -1, base.Add(2*time.Second))))

	s.Require().NoError(s.store.AppendEvent(s.ctx, s.event(second, api.EventLaunched, "a", 0, base.Add(time.Minute))))

	other := api.NewTransitionEvent(api.WorkflowInfo{Name: s.workflow + "-other", RunID: uuid.NewString()}, api.EventLaunched)
	s.Require().NoError(s.store.AppendEvent(s.ctx, other))

	runs, err := s.store.ListRuns(s.ctx, s.workflow)
	s.Require().NoError(err)
	s.Require().Len(runs, 2)

	s.Equal(first, runs[0].RunID)
	s.Equal(s.workflow, runs[0].Workflow)
	s.Equal(3, runs[0].Events)
	s.Equal(api.EventCompleted, runs[0].LastEvent)
	s.True(runs[0].Finished())
	s.True(runs[0].StartedAt.Equal(base))
	s.True(runs[0].UpdatedAt.Equal(base.Add(2 * time.Second)))

	s.Equal(second, runs[1].RunID)
	s.Equal(1, runs[1].Events)
	s.False(runs[1].Finished())

	all, err := s.store.ListRuns(s.ctx, "")
	s.Require().NoError(err)
	s.GreaterOrEqual(len(all), 3)
}
