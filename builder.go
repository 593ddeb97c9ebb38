package waypoint

import (
	"fmt"

	"github.com/petrijr/waypoint/internal/engine"
	"github.com/petrijr/waypoint/pkg/api"
)

// FlowBuilder provides a fluent API for defining workflows:
//
//	flow := waypoint.New("Signup").
//	    Step("welcome", newWelcome).
//	    StepWithPersistence("terms", newTerms, waypoint.PersistWhenSkipped).
//	    Step("details", newDetails).
//	    OnFinish(func(args waypoint.PassedArgs) { save(args) }).
//	    MustBuild()
//
//	flow.SetResponder(screen)
//	flow.Launch(waypoint.NoArgs(), nil)
type FlowBuilder struct {
	name      string
	defs      []api.StepDefinition
	onFinish  []func(PassedArgs)
	onAbandon []func()
}

// New creates a new workflow builder with the given name.
func New(name string) *FlowBuilder {
	return &FlowBuilder{
		name: name,
		defs: make([]api.StepDefinition, 0),
	}
}

// Name returns the workflow name.
func (b *FlowBuilder) Name() string {
	return b.name
}

// Definitions returns a copy of the step definitions added so far.
func (b *FlowBuilder) Definitions() []StepDefinition {
	out := make([]StepDefinition, len(b.defs))
	copy(out, b.defs)
	return out
}

// Step appends a step that keeps the default persistence.
func (b *FlowBuilder) Step(name string, factory StepFactory) *FlowBuilder {
	return b.Define(StepDefinition{Name: name, Factory: factory})
}

// StepWithPersistence appends a step with a fixed persistence.
func (b *FlowBuilder) StepWithPersistence(name string, factory StepFactory, p Persistence) *FlowBuilder {
	return b.Define(StepDefinition{
		Name:        name,
		Factory:     factory,
		Persistence: api.FixedPersistence(p),
	})
}

// StepWithPersistenceFunc appends a step whose persistence is computed from
// the args it receives.
func (b *FlowBuilder) StepWithPersistenceFunc(name string, factory StepFactory, fn PersistenceFunc) *FlowBuilder {
	return b.Define(StepDefinition{
		Name:        name,
		Factory:     factory,
		Persistence: fn,
	})
}

// Modal appends a step presented with LaunchStyleModal.
func (b *FlowBuilder) Modal(name string, factory StepFactory) *FlowBuilder {
	return b.Define(StepDefinition{
		Name:        name,
		Factory:     factory,
		LaunchStyle: LaunchStyleModal,
	})
}

// Define appends a fully specified step definition.
func (b *FlowBuilder) Define(def StepDefinition) *FlowBuilder {
	if def.Name == "" {
		panic("waypoint: step name must not be empty")
	}
	if def.Factory == nil {
		panic(fmt.Sprintf("waypoint: step %q has nil factory", def.Name))
	}

	b.defs = append(b.defs, def)
	return b
}

// OnFinish registers fn to run, after the per-launch callback, whenever a
// launch of the built workflow finishes.
func (b *FlowBuilder) OnFinish(fn func(PassedArgs)) *FlowBuilder {
	if fn != nil {
		b.onFinish = append(b.onFinish, fn)
	}
	return b
}

// OnAbandon registers fn to run once each time the workflow is abandoned.
func (b *FlowBuilder) OnAbandon(fn func()) *FlowBuilder {
	if fn != nil {
		b.onAbandon = append(b.onAbandon, fn)
	}
	return b
}

// Build validates the definitions and returns a ready Flow.
func (b *FlowBuilder) Build() (*Flow, error) {
	return b.build(engine.Config{})
}

// MustBuild is like Build but panics on error.
// Useful for initialization in main().
func (b *FlowBuilder) MustBuild() *Flow {
	f, err := b.Build()
	if err != nil {
		panic(err)
	}
	return f
}

func (b *FlowBuilder) build(cfg engine.Config) (*Flow, error) {
	w, err := engine.NewWithConfig(b.name, b.defs, cfg)
	if err != nil {
		return nil, err
	}
	for _, fn := range b.onAbandon {
		w.OnAbandon(fn)
	}

	hooks := make([]func(PassedArgs), len(b.onFinish))
	copy(hooks, b.onFinish)
	return &Flow{Workflow: w, onFinish: hooks}, nil
}

// Flow is a Workflow carrying the finish hooks registered on its builder.
type Flow struct {
	*Workflow
	onFinish []func(PassedArgs)
}

// Launch starts the flow from its first step. onFinish, which may be nil, runs
// before the builder's OnFinish hooks when the launch finishes.
func (f *Flow) Launch(args PassedArgs, onFinish func(PassedArgs)) *Node {
	return f.Workflow.Launch(args, f.finisher(onFinish))
}

func (f *Flow) finisher(first func(PassedArgs)) func(PassedArgs) {
	if first == nil && len(f.onFinish) == 0 {
		return nil
	}
	return func(args PassedArgs) {
		if first != nil {
			first(args)
		}
		for _, fn := range f.onFinish {
			fn(args)
		}
	}
}
