package waypoint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// navigable is what the tests use to drive the step on display.
type navigable interface {
	Proceed(args PassedArgs) error
	BackUp() error
	Abandon() error
}

// screen is a host responder that remembers the node on display.
type screen struct {
	NoopResponder

	shown     []Node
	current   *Node
	display   *Node
	result    PassedArgs
	completed int
	abandoned int
}

func (s *screen) Launch(to Node)        { s.show(to) }
func (s *screen) Proceed(to, from Node) { s.show(to) }
func (s *screen) BackUp(from, to Node)  { s.show(to) }

func (s *screen) Abandon(info WorkflowInfo, onFinish func()) {
	s.abandoned++
	s.current = nil
	onFinish()
}

func (s *screen) Complete(info WorkflowInfo, display *Node, args PassedArgs) {
	s.completed++
	s.display = display
	s.result = args
}

func (s *screen) show(to Node) {
	s.shown = append(s.shown, to)
	s.current = &to
}

func (s *screen) names() []string {
	out := make([]string, len(s.shown))
	for i, n := range s.shown {
		out[i] = n.StepName()
	}
	return out
}

// step returns the step on display, looking through SkipWhen wrappers.
func (s *screen) step(t *testing.T) navigable {
	t.Helper()
	require.NotNil(t, s.current, "nothing on display")

	st := s.current.Step
	if sk, ok := st.(*SkippableStep); ok {
		st = sk.Unwrap()
	}
	nav, ok := st.(navigable)
	require.True(t, ok, "step %s cannot navigate", s.current.StepName())
	return nav
}

func (s *screen) currentName(t *testing.T) string {
	t.Helper()
	require.NotNil(t, s.current, "nothing on display")
	return s.current.StepName()
}

// accepted reads a bool out of the args; missing args count as false.
func accepted(args PassedArgs) bool {
	v, _ := ArgsAs[bool](args)
	return v
}
