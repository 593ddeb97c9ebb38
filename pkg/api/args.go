package api

import "fmt"

// PassedArgs is the value threaded from step to step. It either carries no
// value at all or an opaque value, which may itself be nil.
//
// A step that declines to load forwards whatever PassedArgs it received, or a
// transformed version of it, to the next position.
type PassedArgs struct {
	value any
	set   bool
}

// NoArgs returns PassedArgs carrying no value.
func NoArgs() PassedArgs {
	return PassedArgs{}
}

// Args wraps v. Args(nil) is distinct from NoArgs: it carries a nil value.
func Args(v any) PassedArgs {
	return PassedArgs{value: v, set: true}
}

// IsNone reports whether a carries no value.
func (a PassedArgs) IsNone() bool {
	return !a.set
}

// Value returns the carried value and whether one was set.
func (a PassedArgs) Value() (any, bool) {
	return a.value, a.set
}

// Extract returns the carried value, or defaultValue when there is none.
func (a PassedArgs) Extract(defaultValue any) any {
	if !a.set {
		return defaultValue
	}
	return a.value
}

func (a PassedArgs) String() string {
	if !a.set {
		return "none"
	}
	return fmt.Sprintf("args(%v)", a.value)
}

// ArgsAs returns the carried value as T. It reports false when a carries no
// value or the value is not a T.
func ArgsAs[T any](a PassedArgs) (T, bool) {
	var zero T
	if !a.set {
		return zero, false
	}
	v, ok := a.value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}
