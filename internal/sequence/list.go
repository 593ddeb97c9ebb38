// Package sequence provides the positional container used by the workflow
// engine to keep step definitions and their materialized instances aligned.
package sequence

// Position identifies an element of a List. Positions are stable for the
// lifetime of the list: changing the value at one position never moves
// another element.
type Position int

// None is returned by searches that found nothing.
const None Position = -1

// List is an ordered sequence with stable positions and predicate search in
// both directions.
type List[T any] struct {
	values []T
}

// New creates a list holding values in order. The slice is copied.
func New[T any](values ...T) *List[T] {
	cp := make([]T, len(values))
	copy(cp, values)
	return &List[T]{values: cp}
}

// Map builds a list of the same length as src by applying fn to every
// element. The resulting list shares positions with src.
func Map[T, U any](src *List[T], fn func(Position, T) U) *List[U] {
	out := &List[U]{values: make([]U, src.Len())}
	for i, v := range src.values {
		out.values[i] = fn(Position(i), v)
	}
	return out
}

// Len returns the number of positions.
func (l *List[T]) Len() int {
	if l == nil {
		return 0
	}
	return len(l.values)
}

// Valid reports whether p addresses an element of l.
func (l *List[T]) Valid(p Position) bool {
	return p >= 0 && int(p) < l.Len()
}

// At returns the element at p.
func (l *List[T]) At(p Position) (T, bool) {
	var zero T
	if !l.Valid(p) {
		return zero, false
	}
	return l.values[p], true
}

// Set replaces the element at p. It reports false if p is out of range.
func (l *List[T]) Set(p Position, v T) bool {
	if !l.Valid(p) {
		return false
	}
	l.values[p] = v
	return true
}

// Forward applies pred to each element starting at start (inclusive) and
// moving towards the end, stopping at the first match.
func (l *List[T]) Forward(start Position, pred func(Position, T) bool) (Position, bool) {
	if start < 0 {
		start = 0
	}
	// Length is re-read on every iteration so predicates that Reset the list
	// end the walk instead of indexing past it.
	for i := int(start); i < l.Len(); i++ {
		if pred(Position(i), l.values[i]) {
			return Position(i), true
		}
	}
	return None, false
}

// Backward applies pred to each element starting at start (inclusive) and
// moving towards the head, stopping at the first match.
func (l *List[T]) Backward(start Position, pred func(Position, T) bool) (Position, bool) {
	if int(start) >= l.Len() {
		start = Position(l.Len() - 1)
	}
	for i := int(start); i >= 0 && i < l.Len(); i-- {
		if pred(Position(i), l.values[i]) {
			return Position(i), true
		}
	}
	return None, false
}

// Last returns the position of the last element satisfying pred.
func (l *List[T]) Last(pred func(Position, T) bool) (Position, bool) {
	return l.Backward(Position(l.Len()-1), pred)
}

// Each calls fn for every element in order.
func (l *List[T]) Each(fn func(Position, T)) {
	for i := 0; i < l.Len(); i++ {
		fn(Position(i), l.values[i])
	}
}

// RemoveAll clears every value while keeping the list's shape.
func (l *List[T]) RemoveAll() {
	var zero T
	for i := range l.values {
		l.values[i] = zero
	}
}

// Reset drops every position.
func (l *List[T]) Reset() {
	l.values = nil
}

// Values returns a copy of the elements in order.
func (l *List[T]) Values() []T {
	out := make([]T, l.Len())
	copy(out, l.values)
	return out
}

// Resolve returns the element of target sitting at a position recorded
// against another list.
func Resolve[T any](target *List[T], p Position) (T, bool) {
	return target.At(p)
}
