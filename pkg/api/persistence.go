package api

import "fmt"

// Persistence controls whether a materialized step is retained.
type Persistence int

const (
	// PersistenceDefault keeps the step in the chain after it proceeds.
	PersistenceDefault Persistence = iota

	// RemovedAfterProceeding tells responders the step should no longer be
	// displayed once the workflow has moved past it.
	RemovedAfterProceeding

	// PersistWhenSkipped keeps a step that declined to load as a navigable
	// anchor; responders are told about it like any other node.
	PersistWhenSkipped
)

func (p Persistence) String() string {
	switch p {
	case PersistenceDefault:
		return "default"
	case RemovedAfterProceeding:
		return "removedAfterProceeding"
	case PersistWhenSkipped:
		return "persistWhenSkipped"
	default:
		return fmt.Sprintf("Persistence(%d)", int(p))
	}
}

// ParsePersistence parses the names produced by Persistence.String. The empty
// string parses as PersistenceDefault.
func ParsePersistence(s string) (Persistence, error) {
	switch s {
	case "", "default":
		return PersistenceDefault, nil
	case "removedAfterProceeding", "removed_after_proceeding":
		return RemovedAfterProceeding, nil
	case "persistWhenSkipped", "persist_when_skipped":
		return PersistWhenSkipped, nil
	default:
		return PersistenceDefault, fmt.Errorf("%w: %q", ErrInvalidPersistence, s)
	}
}

// PersistenceFunc computes the Persistence of a step from the args it is
// about to receive.
type PersistenceFunc func(args PassedArgs) Persistence

// FixedPersistence returns a PersistenceFunc that ignores its args.
func FixedPersistence(p Persistence) PersistenceFunc {
	return func(PassedArgs) Persistence { return p }
}

// LaunchStyle is a presentation hint carried by a step definition. The engine
// never interprets it; responders may.
type LaunchStyle string

const (
	LaunchStyleDefault LaunchStyle = "default"
	LaunchStyleModal   LaunchStyle = "modal"
)
