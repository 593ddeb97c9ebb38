package api

// Step is a materialized workflow step.
//
// The engine builds a Step from its StepDefinition, hands it a Handle through
// Attach and then asks ShouldLoad. A step that declines to load may call
// Proceed on its handle from inside ShouldLoad to transform the args that are
// forwarded to the next position.
type Step interface {
	// ShouldLoad reports whether the step wants to become the current node
	// for the args it was constructed with.
	ShouldLoad() bool

	// Attach installs the step's navigation handle. It is called with a zero
	// Handle when the step is detached from its workflow.
	Attach(h Handle)
}

// StepFactory builds a step for the given args.
type StepFactory func(args PassedArgs) Step

// StepDefinition describes one workflow position. Definitions are immutable
// once a workflow has been built from them.
type StepDefinition struct {
	Name        string
	Factory     StepFactory
	Persistence PersistenceFunc
	LaunchStyle LaunchStyle
}

// CalculatePersistence returns the Persistence for args. A definition without
// a persistence function uses PersistenceDefault.
func (d StepDefinition) CalculatePersistence(args PassedArgs) Persistence {
	if d.Persistence == nil {
		return PersistenceDefault
	}
	return d.Persistence(args)
}

// Style returns the launch style, defaulting to LaunchStyleDefault.
func (d StepDefinition) Style() LaunchStyle {
	if d.LaunchStyle == "" {
		return LaunchStyleDefault
	}
	return d.LaunchStyle
}

// Validate checks the definition on its own; position is only used to
// annotate the error.
func (d StepDefinition) Validate(position int) error {
	if d.Name == "" {
		return &DefinitionError{Position: position, Err: ErrEmptyStepName}
	}
	if d.Factory == nil {
		return &DefinitionError{Position: position, Step: d.Name, Err: ErrNilFactory}
	}
	return nil
}

// WorkflowInfo identifies one launch of a workflow.
type WorkflowInfo struct {
	Name  string
	RunID string
}

// Node is what responders are told about: a materialized step together with
// the definition it came from. Responders must treat Definition as read-only
// and interact with the step only through its own exported surface.
type Node struct {
	Workflow WorkflowInfo

	Position    int
	Definition  StepDefinition
	Step        Step
	Persistence Persistence

	// Loaded is false for steps that declined to load but were retained
	// because of PersistWhenSkipped.
	Loaded bool
}

// StepName returns the name of the node's step definition.
func (n Node) StepName() string {
	return n.Definition.Name
}
