package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/waypoint/pkg/api"
)

// testStep is a configurable step. load decides ShouldLoad from the args the
// step was built with; forward, when set, replaces the args passed on.
type testStep struct {
	api.StepBase

	name    string
	args    api.PassedArgs
	load    func(api.PassedArgs) bool
	forward func(api.PassedArgs) api.PassedArgs
}

func (s *testStep) ShouldLoad() bool {
	if s.forward != nil {
		_ = s.Proceed(s.forward(s.args))
	}
	if s.load == nil {
		return true
	}
	return s.load(s.args)
}

// stepLog remembers every step materialized by definitions built through it.
type stepLog struct {
	byName map[string][]*testStep
}

func newStepLog() *stepLog {
	return &stepLog{byName: make(map[string][]*testStep)}
}

// latest returns the most recent materialization of name.
func (l *stepLog) latest(t *testing.T, name string) *testStep {
	t.Helper()
	steps := l.byName[name]
	require.NotEmpty(t, steps, "step %q was never materialized", name)
	return steps[len(steps)-1]
}

func (l *stepLog) count(name string) int {
	return len(l.byName[name])
}

type stepOption func(*api.StepDefinition, *testStep)

func withLoad(fn func(api.PassedArgs) bool) stepOption {
	return func(_ *api.StepDefinition, s *testStep) { s.load = fn }
}

func withForward(fn func(api.PassedArgs) api.PassedArgs) stepOption {
	return func(_ *api.StepDefinition, s *testStep) { s.forward = fn }
}

func skipping() stepOption {
	return withLoad(func(api.PassedArgs) bool { return false })
}

func persisting(p api.Persistence) stepOption {
	return func(d *api.StepDefinition, _ *testStep) { d.Persistence = api.FixedPersistence(p) }
}

func (l *stepLog) def(name string, opts ...stepOption) api.StepDefinition {
	d := api.StepDefinition{Name: name}
	// Options are applied once to the definition and again to every step the
	// factory builds.
	for _, o := range opts {
		o(&d, &testStep{})
	}
	d.Factory = func(args api.PassedArgs) api.Step {
		s := &testStep{name: name, args: args}
		for _, o := range opts {
			o(&api.StepDefinition{}, s)
		}
		l.byName[name] = append(l.byName[name], s)
		return s
	}
	return d
}

// call is one responder notification, flattened for comparison.
type call struct {
	Kind string
	To   string
	From string
}

func (c call) String() string {
	return fmt.Sprintf("%s(%s<-%s)", c.Kind, c.To, c.From)
}

type completion struct {
	Display string
	Args    api.PassedArgs
}

// recordingResponder records every notification it receives.
type recordingResponder struct {
	calls       []call
	nodes       []api.Node
	completions []completion
	abandons    []api.WorkflowInfo

	// callOnFinish makes Abandon run the hook itself.
	callOnFinish bool
}

func (r *recordingResponder) Launch(to api.Node) {
	r.calls = append(r.calls, call{Kind: "launch", To: to.StepName()})
	r.nodes = append(r.nodes, to)
}

func (r *recordingResponder) Proceed(to, from api.Node) {
	r.calls = append(r.calls, call{Kind: "proceed", To: to.StepName(), From: from.StepName()})
	r.nodes = append(r.nodes, to)
}

func (r *recordingResponder) BackUp(from, to api.Node) {
	r.calls = append(r.calls, call{Kind: "backUp", To: to.StepName(), From: from.StepName()})
	r.nodes = append(r.nodes, to)
}

func (r *recordingResponder) Abandon(info api.WorkflowInfo, onFinish func()) {
	r.abandons = append(r.abandons, info)
	if r.callOnFinish {
		onFinish()
	}
}

func (r *recordingResponder) Complete(info api.WorkflowInfo, display *api.Node, args api.PassedArgs) {
	c := completion{Args: args}
	if display != nil {
		c.Display = display.StepName()
	}
	r.completions = append(r.completions, c)
}

// finishRecorder captures onFinish invocations.
type finishRecorder struct {
	calls []api.PassedArgs
}

func (f *finishRecorder) fn(args api.PassedArgs) {
	f.calls = append(f.calls, args)
}

func newWorkflow(t *testing.T, r api.Responder, defs ...api.StepDefinition) *Workflow {
	t.Helper()
	n := 0
	w, err := NewWithConfig("test-flow", defs, Config{
		Responder: r,
		NewRunID: func() string {
			n++
			return fmt.Sprintf("run-%d", n)
		},
	})
	require.NoError(t, err)
	return w
}

func addSuffix(suffix string) func(api.PassedArgs) api.PassedArgs {
	return func(in api.PassedArgs) api.PassedArgs {
		s, _ := api.ArgsAs[string](in)
		return api.Args(s + suffix)
	}
}
