// Package wizard provides the interactive step kinds used by the terminal
// host: note, prompt and confirm. Answers travel between steps as a
// map[string]any inside the args.
package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/petrijr/waypoint"
	"github.com/petrijr/waypoint/pkg/api"
)

var (
	// ErrEmptyAnswer is returned when a required prompt is submitted empty.
	ErrEmptyAnswer = errors.New("an answer is required")

	// ErrInvalidAnswer is returned when a confirm step cannot parse its input.
	ErrInvalidAnswer = errors.New("answer with yes or no")
)

const (
	KindNote    = "note"
	KindPrompt  = "prompt"
	KindConfirm = "confirm"
)

// Step is what the terminal host needs from a wizard step.
type Step interface {
	waypoint.Step

	Kind() string
	Prompt() string
	// Placeholder is the suggested input, if any.
	Placeholder() string
	// Submit records input as the step's answer and proceeds.
	Submit(input string) error
	BackUp() error
	Abandon() error
	Answers() map[string]any
}

// Register adds the wizard kinds to reg.
func Register(reg *waypoint.Registry) error {
	for kind, f := range map[string]waypoint.KindFactory{
		KindNote:    noteFactory,
		KindPrompt:  promptFactory,
		KindConfirm: confirmFactory,
	} {
		if err := reg.Register(kind, f); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry with the built-in and wizard kinds.
func NewRegistry() *waypoint.Registry {
	reg := waypoint.NewRegistry()
	if err := Register(reg); err != nil {
		panic(err)
	}
	return reg
}

type base struct {
	api.StepBase

	spec waypoint.StepSpec
	args waypoint.PassedArgs
}

func (b *base) Prompt() string {
	if b.spec.Prompt != "" {
		return b.spec.Prompt
	}
	return b.spec.Name
}

func (b *base) Placeholder() string {
	return b.spec.Default
}

func (b *base) Answers() map[string]any {
	return waypoint.Answers(b.args)
}

func (b *base) answer(value any) error {
	return b.Proceed(waypoint.WithAnswer(b.args, b.spec.Key, value))
}

// Note shows a message and proceeds unchanged.
type Note struct{ base }

func noteFactory(spec waypoint.StepSpec) (waypoint.StepFactory, error) {
	return func(args waypoint.PassedArgs) waypoint.Step {
		return &Note{base{spec: spec, args: args}}
	}, nil
}

func (n *Note) Kind() string { return KindNote }

func (n *Note) Submit(string) error {
	return n.Proceed(n.args)
}

// PromptStep asks for free text stored under its key. The "required" option
// rejects empty answers once the default has been applied.
type PromptStep struct{ base }

func promptFactory(spec waypoint.StepSpec) (waypoint.StepFactory, error) {
	if spec.Key == "" {
		return nil, errors.New("prompt needs a key")
	}
	return func(args waypoint.PassedArgs) waypoint.Step {
		return &PromptStep{base{spec: spec, args: args}}
	}, nil
}

func (p *PromptStep) Kind() string { return KindPrompt }

func (p *PromptStep) Submit(input string) error {
	value := strings.TrimSpace(input)
	if value == "" {
		value = p.spec.Default
	}
	if value == "" && p.spec.Options["required"] == "true" {
		return ErrEmptyAnswer
	}
	return p.answer(value)
}

// ConfirmStep asks a yes/no question stored as a bool under its key.
type ConfirmStep struct{ base }

func confirmFactory(spec waypoint.StepSpec) (waypoint.StepFactory, error) {
	if spec.Key == "" {
		return nil, errors.New("confirm needs a key")
	}
	if spec.Default != "" {
		if _, err := parseYesNo(spec.Default); err != nil {
			return nil, fmt.Errorf("default: %w", err)
		}
	}
	return func(args waypoint.PassedArgs) waypoint.Step {
		return &ConfirmStep{base{spec: spec, args: args}}
	}, nil
}

func (c *ConfirmStep) Kind() string { return KindConfirm }

func (c *ConfirmStep) Placeholder() string {
	if c.spec.Default != "" {
		return c.spec.Default
	}
	return "y/n"
}

func (c *ConfirmStep) Submit(input string) error {
	in := strings.TrimSpace(input)
	if in == "" {
		in = c.spec.Default
	}
	yes, err := parseYesNo(in)
	if err != nil {
		return err
	}
	return c.answer(yes)
}

func parseYesNo(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true":
		return true, nil
	case "n", "no", "false":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidAnswer, s)
	}
}

// As finds the wizard step behind s, looking through wrappers such as the
// ones added by skip_when.
func As(s waypoint.Step) (Step, bool) {
	for s != nil {
		if ws, ok := s.(Step); ok {
			return ws, true
		}
		u, ok := s.(interface{ Unwrap() waypoint.Step })
		if !ok {
			return nil, false
		}
		s = u.Unwrap()
	}
	return nil, false
}
