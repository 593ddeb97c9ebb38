package waypoint

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/petrijr/waypoint/pkg/api"
)

var (
	// ErrUnknownKind is returned when a flow spec names a step kind that is
	// not registered.
	ErrUnknownKind = errors.New("unknown step kind")

	// ErrDuplicateKind is returned when a kind is registered twice.
	ErrDuplicateKind = errors.New("step kind already registered")
)

// FlowSpec is the YAML description of a flow:
//
//	name: signup
//	steps:
//	  - name: welcome
//	    kind: note
//	    prompt: Welcome aboard
//	  - name: email
//	    kind: prompt
//	    key: email
//	    skip_when: email
//	    persist_when: email
type FlowSpec struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Steps       []StepSpec `yaml:"steps" json:"steps"`
}

// StepSpec describes one step of a FlowSpec. Kind selects the factory from a
// Registry; the remaining fields are interpreted by that kind.
type StepSpec struct {
	Name        string            `yaml:"name" json:"name"`
	Kind        string            `yaml:"kind" json:"kind"`
	Prompt      string            `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	Key         string            `yaml:"key,omitempty" json:"key,omitempty"`
	Default     string            `yaml:"default,omitempty" json:"default,omitempty"`
	Persistence string            `yaml:"persistence,omitempty" json:"persistence,omitempty"`
	PersistWhen string            `yaml:"persist_when,omitempty" json:"persist_when,omitempty"`
	SkipWhen    string            `yaml:"skip_when,omitempty" json:"skip_when,omitempty"`
	LaunchStyle string            `yaml:"launch_style,omitempty" json:"launch_style,omitempty"`
	Options     map[string]string `yaml:"options,omitempty" json:"options,omitempty"`
}

// ParseFlowSpec decodes and validates a flow spec from YAML bytes.
func ParseFlowSpec(data []byte) (*FlowSpec, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("flowspec: payload is empty")
	}
	var spec FlowSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("flowspec: decode: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// LoadFlowSpecReader reads a flow spec from r.
func LoadFlowSpecReader(r io.Reader) (*FlowSpec, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("flowspec: read: %w", err)
	}
	return ParseFlowSpec(content)
}

// LoadFlowSpecFile loads a flow spec from path.
func LoadFlowSpecFile(path string) (*FlowSpec, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("flowspec: read %s: %w", path, err)
	}
	spec, err := ParseFlowSpec(content)
	if err != nil {
		return nil, fmt.Errorf("flowspec: %s: %w", path, err)
	}
	return spec, nil
}

// Validate checks the parts of a flow spec that do not depend on a Registry.
func (s *FlowSpec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("flowspec: flow name is required")
	}
	seen := make(map[string]int, len(s.Steps))
	for i, st := range s.Steps {
		if err := st.validate(); err != nil {
			return fmt.Errorf("flowspec: step %d (%s): %w", i, st.Name, err)
		}
		if prev, dup := seen[st.Name]; dup {
			return fmt.Errorf("flowspec: step %d (%s): %w with step %d", i, st.Name, api.ErrDuplicateStepName, prev)
		}
		seen[st.Name] = i
	}
	return nil
}

func (s StepSpec) validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return api.ErrEmptyStepName
	}
	if strings.TrimSpace(s.Kind) == "" {
		return errors.New("kind is required")
	}
	if _, err := api.ParsePersistence(s.Persistence); err != nil {
		return err
	}
	if s.PersistWhen != "" && s.Persistence != "" {
		return errors.New("persistence and persist_when are mutually exclusive")
	}
	for _, expr := range []string{s.SkipWhen, s.PersistWhen} {
		if expr == "" {
			continue
		}
		if _, err := ParseCondition(expr); err != nil {
			return err
		}
	}
	return nil
}

// KindFactory turns the StepSpec of one step into a StepFactory.
type KindFactory func(spec StepSpec) (StepFactory, error)

// Registry maps step kinds to factories. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]KindFactory
}

// NewRegistry returns a registry holding the built-in kinds:
//
//   - passthrough: never loads, forwards its args unchanged.
//   - set: never loads, forwards its answers with every entry of options set.
func NewRegistry() *Registry {
	r := &Registry{kinds: make(map[string]KindFactory)}
	r.MustRegister("passthrough", func(StepSpec) (StepFactory, error) {
		return Passthrough(), nil
	})
	r.MustRegister("set", func(spec StepSpec) (StepFactory, error) {
		if len(spec.Options) == 0 {
			return nil, errors.New("set needs options")
		}
		return Transform(func(args PassedArgs) PassedArgs {
			for k, v := range spec.Options {
				args = WithAnswer(args, k, v)
			}
			return args
		}), nil
	})
	return r
}

// Register adds a kind. Registering a kind twice fails with ErrDuplicateKind.
func (r *Registry) Register(kind string, f KindFactory) error {
	if kind == "" || f == nil {
		return fmt.Errorf("flowspec: register %q: kind and factory are required", kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.kinds[kind]; exists {
		return fmt.Errorf("flowspec: register %q: %w", kind, ErrDuplicateKind)
	}
	r.kinds[kind] = f
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(kind string, f KindFactory) {
	if err := r.Register(kind, f); err != nil {
		panic(err)
	}
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.kinds))
	for k := range r.kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) lookup(kind string) (KindFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.kinds[kind]
	return f, ok
}

// Builder turns spec into a FlowBuilder. skip_when wraps the kind's factory
// with SkipWhen; persist_when yields PersistWhenSkipped whenever it holds.
func (r *Registry) Builder(spec *FlowSpec) (*FlowBuilder, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	b := New(spec.Name)
	for i, st := range spec.Steps {
		def, err := r.definition(st)
		if err != nil {
			return nil, fmt.Errorf("flowspec: step %d (%s): %w", i, st.Name, err)
		}
		b.Define(def)
	}
	return b, nil
}

func (r *Registry) definition(st StepSpec) (StepDefinition, error) {
	kf, ok := r.lookup(st.Kind)
	if !ok {
		return StepDefinition{}, fmt.Errorf("%w: %q", ErrUnknownKind, st.Kind)
	}
	factory, err := kf(st)
	if err != nil {
		return StepDefinition{}, fmt.Errorf("kind %s: %w", st.Kind, err)
	}

	if st.SkipWhen != "" {
		skip, _ := ParseCondition(st.SkipWhen)
		factory = SkipWhen(skip, factory)
	}

	var persistence PersistenceFunc
	if st.PersistWhen != "" {
		persist, _ := ParseCondition(st.PersistWhen)
		persistence = PersistWhen(persist)
	} else {
		p, _ := api.ParsePersistence(st.Persistence)
		persistence = api.FixedPersistence(p)
	}

	return StepDefinition{
		Name:        st.Name,
		Factory:     factory,
		Persistence: persistence,
		LaunchStyle: LaunchStyle(st.LaunchStyle),
	}, nil
}
