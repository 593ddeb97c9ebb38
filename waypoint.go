package waypoint

import (
	"github.com/petrijr/waypoint/internal/engine"
	"github.com/petrijr/waypoint/internal/persistence"
	"github.com/petrijr/waypoint/internal/taskqueue"
	"github.com/petrijr/waypoint/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Step                 = api.Step
	StepBase             = api.StepBase
	StepFactory          = api.StepFactory
	StepDefinition       = api.StepDefinition
	Handle               = api.Handle
	PassedArgs           = api.PassedArgs
	Persistence          = api.Persistence
	PersistenceFunc      = api.PersistenceFunc
	LaunchStyle          = api.LaunchStyle
	Node                 = api.Node
	WorkflowInfo         = api.WorkflowInfo
	Responder            = api.Responder
	NoopResponder        = api.NoopResponder
	CompositeResponder   = api.CompositeResponder
	LoggingResponder     = api.LoggingResponder
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	TransitionEvent      = api.TransitionEvent
	EventType            = api.EventType
	DefinitionError      = api.DefinitionError

	// Workflow is the engine driving a single definition list.
	Workflow = engine.Workflow

	// EventStore is the transition journal interface.
	EventStore = persistence.EventStore
	Appender   = persistence.Appender
	RunSummary = persistence.RunSummary
)

// Re-export common helpers.

var (
	Args                  = api.Args
	NoArgs                = api.NoArgs
	FixedPersistence      = api.FixedPersistence
	ParsePersistence      = api.ParsePersistence
	NewLoggingResponder   = api.NewLoggingResponder
	NewCompositeResponder = api.NewCompositeResponder
	NewInMemoryEventStore = persistence.NewInMemoryEventStore
	NewInMemoryQueue      = taskqueue.NewInMemoryQueue
)

// Re-export persistence and launch style values for convenience.

const (
	PersistenceDefault     = api.PersistenceDefault
	RemovedAfterProceeding = api.RemovedAfterProceeding
	PersistWhenSkipped     = api.PersistWhenSkipped

	LaunchStyleDefault = api.LaunchStyleDefault
	LaunchStyleModal   = api.LaunchStyleModal
)

// Re-export errors so callers can use errors.Is without importing pkg/api.

var (
	ErrCannotBackUp       = api.ErrCannotBackUp
	ErrDetached           = api.ErrDetached
	ErrNilFactory         = api.ErrNilFactory
	ErrEmptyStepName      = api.ErrEmptyStepName
	ErrDuplicateStepName  = api.ErrDuplicateStepName
	ErrInvalidPersistence = api.ErrInvalidPersistence
)

// ArgsAs returns the value carried by a as T.
func ArgsAs[T any](a PassedArgs) (T, bool) {
	return api.ArgsAs[T](a)
}
