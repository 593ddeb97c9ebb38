package api

import (
	"errors"
	"fmt"
)

var (
	// ErrCannotBackUp is returned when there is no materialized step before
	// the one asking to back up. Hosts usually disable their back action.
	ErrCannotBackUp = errors.New("cannot back up: no earlier step")

	// ErrDetached is returned by handles whose step is no longer part of the
	// live chain (superseded, relaunched, abandoned or discarded).
	ErrDetached = errors.New("step is detached from its workflow")

	// ErrNilFactory is returned when a step definition has no factory.
	ErrNilFactory = errors.New("step definition has nil factory")

	// ErrEmptyStepName is returned when a step definition has no name.
	ErrEmptyStepName = errors.New("step definition has empty name")

	// ErrDuplicateStepName is returned when two definitions share a name.
	ErrDuplicateStepName = errors.New("duplicate step name")

	// ErrInvalidPersistence is returned when a persistence name is unknown.
	ErrInvalidPersistence = errors.New("invalid persistence")
)

// DefinitionError describes an invalid step definition.
type DefinitionError struct {
	Position int    // index of the offending definition
	Step     string // its name, when known
	Err      error
}

func (e *DefinitionError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("step %d: %v", e.Position, e.Err)
	}
	return fmt.Sprintf("step %d (%s): %v", e.Position, e.Step, e.Err)
}

func (e *DefinitionError) Unwrap() error {
	return e.Err
}
