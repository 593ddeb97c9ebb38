package waypoint

import (
	"github.com/petrijr/waypoint/pkg/api"
)

// FuncStep is a step whose load decision is made by a function of its args.
// Hosts that only need a handle to navigate with can use it directly.
type FuncStep struct {
	api.StepBase

	args PassedArgs
	load func(PassedArgs) bool
}

// Args returns the args the step was built with.
func (s *FuncStep) Args() PassedArgs {
	return s.args
}

// ShouldLoad implements Step.
func (s *FuncStep) ShouldLoad() bool {
	if s.load == nil {
		return true
	}
	return s.load(s.args)
}

// Always returns a factory of FuncSteps that always load.
func Always() StepFactory {
	return func(args PassedArgs) Step {
		return &FuncStep{args: args}
	}
}

// LoadWhen returns a factory of FuncSteps that load when pred(args) holds.
func LoadWhen(pred func(PassedArgs) bool) StepFactory {
	return func(args PassedArgs) Step {
		return &FuncStep{args: args, load: pred}
	}
}

// Passthrough returns a factory of steps that never load and forward their
// args unchanged.
func Passthrough() StepFactory {
	return LoadWhen(func(PassedArgs) bool { return false })
}

// transformStep never loads; it rewrites the args forwarded to the next
// position while it is being evaluated.
type transformStep struct {
	api.StepBase

	args PassedArgs
	fn   func(PassedArgs) PassedArgs
}

func (s *transformStep) ShouldLoad() bool {
	_ = s.Proceed(s.fn(s.args))
	return false
}

// Transform returns a factory of steps that never load and forward fn(args).
// Combined with PersistWhenSkipped it leaves a navigable anchor behind.
func Transform(fn func(PassedArgs) PassedArgs) StepFactory {
	return func(args PassedArgs) Step {
		return &transformStep{args: args, fn: fn}
	}
}

// SkippableStep wraps a step produced by another factory and declines to load
// when its skip predicate holds.
type SkippableStep struct {
	Step

	args PassedArgs
	skip func(PassedArgs) bool
}

// ShouldLoad implements Step.
func (s *SkippableStep) ShouldLoad() bool {
	if s.skip(s.args) {
		return false
	}
	return s.Step.ShouldLoad()
}

// Unwrap returns the wrapped step.
func (s *SkippableStep) Unwrap() Step {
	return s.Step
}

// SkipWhen wraps factory so its steps decline to load when pred(args) holds.
// The wrapped step is still built and attached either way. A nil step from
// factory is passed through as nil.
func SkipWhen(pred func(PassedArgs) bool, factory StepFactory) StepFactory {
	if pred == nil {
		return factory
	}
	return func(args PassedArgs) Step {
		inner := factory(args)
		if inner == nil {
			return nil
		}
		return &SkippableStep{Step: inner, args: args, skip: pred}
	}
}

// PersistenceFor adapts a function of typed args into a PersistenceFunc.
// fallback is used when the args carry no T.
func PersistenceFor[T any](fn func(T) Persistence, fallback Persistence) PersistenceFunc {
	return func(args PassedArgs) Persistence {
		v, ok := api.ArgsAs[T](args)
		if !ok {
			return fallback
		}
		return fn(v)
	}
}

// PersistWhen returns a PersistenceFunc yielding PersistWhenSkipped when
// pred(args) holds and PersistenceDefault otherwise.
func PersistWhen(pred func(PassedArgs) bool) PersistenceFunc {
	return func(args PassedArgs) Persistence {
		if pred(args) {
			return PersistWhenSkipped
		}
		return PersistenceDefault
	}
}
