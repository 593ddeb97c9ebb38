package wizard

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/waypoint"
)

const signupYAML = `
name: signup
steps:
  - name: welcome
    kind: note
    prompt: Welcome aboard
  - name: email
    kind: prompt
    key: email
    skip_when: email
    persist_when: email
  - name: newsletter
    kind: confirm
    key: newsletter
    default: "no"
  - name: thanks
    kind: note
    persistence: removedAfterProceeding
`

// screen remembers the node on display.
type screen struct {
	waypoint.NoopResponder

	current   waypoint.Node
	trail     []string
	completed *waypoint.Node
	result    waypoint.PassedArgs
	finished  bool
}

func (s *screen) Launch(to waypoint.Node)        { s.show(to) }
func (s *screen) Proceed(to, from waypoint.Node) { s.show(to) }
func (s *screen) BackUp(from, to waypoint.Node)  { s.show(to) }

func (s *screen) Complete(info waypoint.WorkflowInfo, display *waypoint.Node, args waypoint.PassedArgs) {
	s.finished = true
	s.completed = display
	s.result = args
}

func (s *screen) show(to waypoint.Node) {
	s.current = to
	s.trail = append(s.trail, to.StepName())
}

func (s *screen) step(t *testing.T) Step {
	t.Helper()
	ws, ok := As(s.current.Step)
	require.True(t, ok, "node %s is not a wizard step", s.current.StepName())
	return ws
}

func newSignup(t *testing.T) (*waypoint.Runner, *screen) {
	t.Helper()
	spec, err := waypoint.ParseFlowSpec([]byte(signupYAML))
	require.NoError(t, err)

	b, err := NewRegistry().Builder(spec)
	require.NoError(t, err)

	scr := &screen{}
	runner, err := waypoint.NewRunner(b, waypoint.Config{
		Logger:     slog.New(slog.DiscardHandler),
		Responders: []waypoint.Responder{scr},
	})
	require.NoError(t, err)
	return runner, scr
}

func TestWizard_FreshRunAsksEverything(t *testing.T) {
	runner, scr := newSignup(t)

	runner.Launch(waypoint.NoArgs(), nil)
	require.Equal(t, "welcome", scr.current.StepName())
	require.Equal(t, KindNote, scr.step(t).Kind())
	require.Equal(t, "Welcome aboard", scr.step(t).Prompt())

	require.NoError(t, scr.step(t).Submit(""))
	require.Equal(t, "email", scr.current.StepName())
	require.True(t, scr.current.Loaded)

	require.NoError(t, scr.step(t).Submit("  ada@example.com "))
	require.Equal(t, "newsletter", scr.current.StepName())
	require.Equal(t, "no", scr.step(t).Placeholder())

	require.ErrorIs(t, scr.step(t).Submit("maybe"), ErrInvalidAnswer)
	require.NoError(t, scr.step(t).Submit(""))
	require.Equal(t, "thanks", scr.current.StepName())

	require.NoError(t, scr.step(t).Submit(""))
	require.True(t, scr.finished)
	require.NotNil(t, scr.completed)
	require.Equal(t, "newsletter", scr.completed.StepName(), "thanks is removed after proceeding")
	require.Equal(t, map[string]any{"email": "ada@example.com", "newsletter": false}, waypoint.Answers(scr.result))
}

func TestWizard_KnownAnswerBecomesAnchor(t *testing.T) {
	runner, scr := newSignup(t)

	runner.Launch(waypoint.Args(map[string]any{"email": "known@example.com"}), nil)
	require.NoError(t, scr.step(t).Submit(""))

	require.Equal(t, []string{"welcome", "email", "newsletter"}, scr.trail)
	require.Equal(t, "newsletter", scr.current.StepName())

	// Backing up lands on the skipped but persisted email step.
	require.NoError(t, scr.step(t).BackUp())
	require.Equal(t, "email", scr.current.StepName())
	require.False(t, scr.current.Loaded)
	require.Equal(t, "known@example.com", scr.step(t).Answers()["email"])

	// Correcting it rebuilds the steps after it from the new answers.
	require.NoError(t, scr.step(t).Submit("new@example.com"))
	require.Equal(t, "newsletter", scr.current.StepName())
	require.Equal(t, "new@example.com", scr.step(t).Answers()["email"])

	require.NoError(t, scr.step(t).Submit("yes"))
	require.NoError(t, scr.step(t).Submit(""))
	require.Equal(t, map[string]any{"email": "new@example.com", "newsletter": true}, waypoint.Answers(scr.result))
}

func TestWizard_RequiredPrompt(t *testing.T) {
	reg := NewRegistry()
	b, err := reg.Builder(&waypoint.FlowSpec{
		Name: "required",
		Steps: []waypoint.StepSpec{{
			Name:    "name",
			Kind:    KindPrompt,
			Key:     "name",
			Options: map[string]string{"required": "true"},
		}},
	})
	require.NoError(t, err)

	scr := &screen{}
	flow := b.MustBuild()
	flow.SetResponder(scr)
	flow.Launch(waypoint.NoArgs(), nil)

	require.ErrorIs(t, scr.step(t).Submit("   "), ErrEmptyAnswer)
	require.False(t, scr.finished)
	require.NoError(t, scr.step(t).Submit("Ada"))
	require.True(t, scr.finished)
}

func TestRegister_KindsNeedKeys(t *testing.T) {
	reg := NewRegistry()
	require.Equal(t, []string{"confirm", "note", "passthrough", "prompt", "set"}, reg.Kinds())

	_, err := reg.Builder(&waypoint.FlowSpec{
		Name:  "broken",
		Steps: []waypoint.StepSpec{{Name: "ask", Kind: KindPrompt}},
	})
	require.ErrorContains(t, err, "prompt needs a key")

	_, err = reg.Builder(&waypoint.FlowSpec{
		Name:  "broken",
		Steps: []waypoint.StepSpec{{Name: "ok", Kind: KindConfirm, Key: "ok", Default: "perhaps"}},
	})
	require.ErrorIs(t, err, ErrInvalidAnswer)

	require.ErrorIs(t, Register(reg), waypoint.ErrDuplicateKind)
}

func TestAs_UnwrapsSkippableSteps(t *testing.T) {
	factory, err := promptFactory(waypoint.StepSpec{Name: "n", Key: "n"})
	require.NoError(t, err)

	wrapped := waypoint.SkipWhen(func(waypoint.PassedArgs) bool { return false }, factory)(waypoint.NoArgs())
	ws, ok := As(wrapped)
	require.True(t, ok)
	require.Equal(t, KindPrompt, ws.Kind())

	_, ok = As(waypoint.Always()(waypoint.NoArgs()))
	require.False(t, ok)
}
