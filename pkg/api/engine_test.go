package api

import (
	"errors"
	"testing"
)

// fakeNavigator records the refs it was called with.
type fakeNavigator struct {
	proceeded []StepRef
	args      []PassedArgs
	backedUp  []StepRef
	abandoned []StepRef

	backUpErr error
}

func (n *fakeNavigator) ProceedFrom(ref StepRef, args PassedArgs) error {
	n.proceeded = append(n.proceeded, ref)
	n.args = append(n.args, args)
	return nil
}

func (n *fakeNavigator) BackUpFrom(ref StepRef) error {
	n.backedUp = append(n.backedUp, ref)
	return n.backUpErr
}

func (n *fakeNavigator) AbandonFrom(ref StepRef) error {
	n.abandoned = append(n.abandoned, ref)
	return nil
}

func TestHandle_ZeroIsDetached(t *testing.T) {
	var h Handle
	if h.Attached() {
		t.Fatalf("zero handle must not be attached")
	}
	for name, err := range map[string]error{
		"proceed": h.Proceed(NoArgs()),
		"back up": h.BackUp(),
		"abandon": h.Abandon(),
	} {
		if !errors.Is(err, ErrDetached) {
			t.Fatalf("%s: expected ErrDetached, got %v", name, err)
		}
	}
}

func TestStepBase_RoutesThroughHandle(t *testing.T) {
	nav := &fakeNavigator{backUpErr: ErrCannotBackUp}
	ref := StepRef{Position: 2, Serial: 7}

	var s StepBase
	if !s.ShouldLoad() {
		t.Fatalf("StepBase loads by default")
	}
	s.Attach(NewHandle(nav, ref))
	if !s.Handle().Attached() || s.Handle().Ref() != ref {
		t.Fatalf("unexpected handle %+v", s.Handle())
	}

	if err := s.ProceedWith("ada"); err != nil {
		t.Fatalf("proceed: %v", err)
	}
	if err := s.BackUp(); !errors.Is(err, ErrCannotBackUp) {
		t.Fatalf("expected navigator error, got %v", err)
	}
	if err := s.Abandon(); err != nil {
		t.Fatalf("abandon: %v", err)
	}

	if len(nav.proceeded) != 1 || nav.proceeded[0] != ref || nav.args[0].Extract(nil) != "ada" {
		t.Fatalf("unexpected proceed calls %+v %+v", nav.proceeded, nav.args)
	}
	if len(nav.backedUp) != 1 || len(nav.abandoned) != 1 {
		t.Fatalf("unexpected calls: back up %d, abandon %d", len(nav.backedUp), len(nav.abandoned))
	}

	s.Attach(Handle{})
	if err := s.Proceed(NoArgs()); !errors.Is(err, ErrDetached) {
		t.Fatalf("expected ErrDetached after detaching, got %v", err)
	}
}

func TestTransitionEvent_Fields(t *testing.T) {
	info := WorkflowInfo{Name: "Signup", RunID: "run-1"}
	welcome := node("welcome", 0, true)
	terms := node("terms", 1, false)

	ev := NewTransitionEvent(info, EventProceeded).WithTo(terms).WithFrom(welcome)
	if ev.RunID != "run-1" || ev.WorkflowName != "Signup" || ev.At.IsZero() {
		t.Fatalf("unexpected identity %+v", ev)
	}
	if ev.Step != "terms" || ev.Position != 1 || ev.From != "welcome" || ev.FromPosition != 0 {
		t.Fatalf("unexpected positions %+v", ev)
	}
	if ev.Detail != "anchor" {
		t.Fatalf("anchors are marked, got %q", ev.Detail)
	}

	bare := NewTransitionEvent(info, EventAbandoned)
	if bare.Position != -1 || bare.FromPosition != -1 || bare.Step != "" {
		t.Fatalf("unset positions must be -1, got %+v", bare)
	}
}
