package api

// StepRef pins a handle to one materialization of a position. A new Serial is
// issued every time a position is materialized, so a handle from an earlier
// pass never matches the current occupant.
type StepRef struct {
	Position int
	Serial   uint64
}

// Navigator is implemented by workflows. Steps do not call it directly; they
// go through their Handle.
type Navigator interface {
	ProceedFrom(ref StepRef, args PassedArgs) error
	BackUpFrom(ref StepRef) error
	AbandonFrom(ref StepRef) error
}

// Handle is the navigation capability a workflow gives to each step it
// materializes. The zero Handle is detached.
type Handle struct {
	nav Navigator
	ref StepRef
}

// NewHandle binds ref to nav.
func NewHandle(nav Navigator, ref StepRef) Handle {
	return Handle{nav: nav, ref: ref}
}

// Attached reports whether the handle was issued by a workflow. It does not
// guarantee the step is still live; calls may still return ErrDetached.
func (h Handle) Attached() bool {
	return h.nav != nil
}

// Ref returns the position and serial the handle is pinned to.
func (h Handle) Ref() StepRef {
	return h.ref
}

// Proceed moves the workflow forward from this step with args.
func (h Handle) Proceed(args PassedArgs) error {
	if h.nav == nil {
		return ErrDetached
	}
	return h.nav.ProceedFrom(h.ref, args)
}

// BackUp moves the workflow back to the nearest earlier materialized step.
// It returns ErrCannotBackUp when there is none.
func (h Handle) BackUp() error {
	if h.nav == nil {
		return ErrDetached
	}
	return h.nav.BackUpFrom(h.ref)
}

// Abandon tears the whole workflow down.
func (h Handle) Abandon() error {
	if h.nav == nil {
		return ErrDetached
	}
	return h.nav.AbandonFrom(h.ref)
}

// StepBase can be embedded by step implementations. It stores the handle,
// loads by default and exposes the navigation calls.
//
//	type Greeting struct {
//		api.StepBase
//		name string
//	}
//
//	func (g *Greeting) ShouldLoad() bool { return g.name != "" }
type StepBase struct {
	handle Handle
}

// Attach implements Step.
func (b *StepBase) Attach(h Handle) {
	b.handle = h
}

// ShouldLoad implements Step; embedders override it to skip themselves.
func (b *StepBase) ShouldLoad() bool {
	return true
}

// Handle returns the current handle.
func (b *StepBase) Handle() Handle {
	return b.handle
}

// Proceed forwards args to the next step.
func (b *StepBase) Proceed(args PassedArgs) error {
	return b.handle.Proceed(args)
}

// ProceedWith is shorthand for Proceed(Args(v)).
func (b *StepBase) ProceedWith(v any) error {
	return b.handle.Proceed(Args(v))
}

// BackUp returns to the previous materialized step.
func (b *StepBase) BackUp() error {
	return b.handle.BackUp()
}

// Abandon tears down the workflow the step belongs to.
func (b *StepBase) Abandon() error {
	return b.handle.Abandon()
}
