// Package waypoint sequences the steps of a multi-step flow, such as a signup
// wizard or an onboarding checklist, without knowing anything about how the
// steps are presented.
//
// # Core Concepts
//
//  1. StepDefinition: a named position with a factory and a persistence rule
//  2. Step: what a factory builds for the args it receives
//  3. Workflow: the engine that launches, proceeds, backs up and abandons
//  4. Responder: the host side that is told about every transition
//
// # Navigation
//
// Launching walks the definitions from the first position. Every step is
// built from the args forwarded by the previous one and asked whether it
// should load. The first step that loads becomes current. A step that
// declines is dropped and its args are forwarded, unless its persistence is
// PersistWhenSkipped, in which case it stays behind as an anchor that backing
// up can land on.
//
// Steps navigate through the Handle they are attached with. A handle is only
// valid while its step is part of the live chain; afterwards calls return
// ErrDetached.
//
// # Building flows
//
// FlowBuilder defines flows in code:
//
//	flow := waypoint.New("Signup").
//	    Step("welcome", newWelcome).
//	    StepWithPersistence("terms", newTerms, waypoint.PersistWhenSkipped).
//	    MustBuild()
//
// Flows can also be described in YAML (see FlowSpec) and turned into a
// builder by a Registry of step kinds.
//
// # Runner
//
// Runner wires the ambient responders a host usually wants: structured
// logging through log/slog, in-memory counters, a transition journal
// (in-memory, SQLite, Postgres, Redis or MongoDB), Prometheus metrics and
// OpenTelemetry spans.
package waypoint
