package engine

import (
	"github.com/petrijr/waypoint/pkg/api"
)

// definitionIndex validates a definition list and maps step names to
// positions.
type definitionIndex struct {
	byName map[string]int
}

func newDefinitionIndex(defs []api.StepDefinition) (*definitionIndex, error) {
	idx := &definitionIndex{
		byName: make(map[string]int, len(defs)),
	}

	for i, def := range defs {
		if err := def.Validate(i); err != nil {
			return nil, err
		}
		if _, exists := idx.byName[def.Name]; exists {
			return nil, &api.DefinitionError{Position: i, Step: def.Name, Err: api.ErrDuplicateStepName}
		}
		idx.byName[def.Name] = i
	}

	return idx, nil
}

func (i *definitionIndex) position(name string) (int, bool) {
	p, ok := i.byName[name]
	return p, ok
}
