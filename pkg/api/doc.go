// Package api contains the contracts shared by the waypoint engine and its
// hosts. It defines the values threaded through a workflow, the step
// capability contract and the responder contract used to observe transitions.
//
// Most users interact with the higher-level waypoint package, which re-exports
// selected types and helpers from this package. The api package is intended
// for hosts implementing their own steps or responders.
//
// # Steps
//
// A workflow is an ordered list of StepDefinition values. When traversal
// reaches a position the engine calls the definition's factory with the
// current PassedArgs, attaches a Handle to the resulting Step and asks whether
// it should load. Declining steps may transform the args they forward by
// calling Proceed on their handle before returning false.
//
// Each definition also computes a Persistence for the same args:
//
//   - PersistenceDefault: the step stays in the chain once it proceeds.
//   - RemovedAfterProceeding: responders should stop displaying it once the
//     workflow has moved past it.
//   - PersistWhenSkipped: a declining step is still kept as an anchor and
//     announced to the responder.
//
// # Navigation
//
// Steps never hold closures into the engine. A Handle pins a step to the
// position and materialization serial it was created for; once the step has
// been superseded, relaunched or abandoned its handle returns ErrDetached.
// StepBase can be embedded to get Attach, Proceed, BackUp and Abandon for free.
//
// # Responders
//
// Responder receives Launch, Proceed, BackUp, Abandon and Complete
// notifications. NoopResponder, CompositeResponder, LoggingResponder and
// BasicMetrics are ready-made implementations that can be combined.
package api
