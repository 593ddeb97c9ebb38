package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/petrijr/waypoint/internal/sequence"
	"github.com/petrijr/waypoint/pkg/api"
)

// slot is one materialized position. A nil *slot means the position is
// unmaterialized.
type slot struct {
	step        api.Step
	serial      uint64
	persistence api.Persistence
	loaded      bool
}

// evaluation tracks the step whose ShouldLoad is currently running, so that a
// Proceed issued from inside ShouldLoad rewrites the forwarded args instead of
// navigating.
type evaluation struct {
	serial uint64
	args   api.PassedArgs
}

// Config describes how to construct a Workflow.
type Config struct {
	// Responder is notified of transitions. It may be replaced later with
	// SetResponder.
	Responder api.Responder

	// Logger receives debug records for every step evaluation. Defaults to a
	// logger that discards everything.
	Logger *slog.Logger

	// NewRunID generates the ID of each launch. Defaults to uuid.NewString.
	NewRunID func() string
}

// Workflow owns an ordered list of step definitions and the parallel list of
// materialized steps, and drives a single Responder through launch, proceed,
// back up, abandon and complete.
//
// A Workflow is not safe for concurrent use; it is driven synchronously by its
// host and by the steps it materializes.
type Workflow struct {
	name  string
	defs  *sequence.List[api.StepDefinition]
	slots *sequence.List[*slot]
	index *definitionIndex

	responder api.Responder
	logger    *slog.Logger
	newRunID  func() string

	runID        string
	active       bool
	serial       uint64
	eval         *evaluation
	onFinish     func(api.PassedArgs)
	abandonHooks []func()
}

var _ api.Navigator = (*Workflow)(nil)

// New builds a Workflow from defs with the default configuration.
func New(name string, defs []api.StepDefinition) (*Workflow, error) {
	return NewWithConfig(name, defs, Config{})
}

// NewWithConfig builds a Workflow from defs. The definitions are validated and
// copied; the workflow's shape never changes afterwards. An empty list is
// valid and launches straight to completion.
func NewWithConfig(name string, defs []api.StepDefinition, cfg Config) (*Workflow, error) {
	idx, err := newDefinitionIndex(defs)
	if err != nil {
		return nil, fmt.Errorf("waypoint: workflow %q: %w", name, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	newRunID := cfg.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}

	w := &Workflow{
		name:      name,
		defs:      sequence.New(defs...),
		index:     idx,
		responder: cfg.Responder,
		logger:    logger.With(slog.String("workflow", name)),
		newRunID:  newRunID,
	}
	w.slots = sequence.Map(w.defs, func(sequence.Position, api.StepDefinition) *slot { return nil })
	return w, nil
}

// Name returns the workflow name.
func (w *Workflow) Name() string {
	return w.name
}

// Len returns the number of step definitions.
func (w *Workflow) Len() int {
	return w.defs.Len()
}

// Definitions returns a copy of the step definitions in order.
func (w *Workflow) Definitions() []api.StepDefinition {
	return w.defs.Values()
}

// Position returns the position of the step called name.
func (w *Workflow) Position(name string) (int, bool) {
	return w.index.position(name)
}

// RunID returns the ID of the current launch, or "" before the first launch
// and after Abandon.
func (w *Workflow) RunID() string {
	return w.runID
}

// Active reports whether the current launch announced a node and has not
// completed or been abandoned since. A relaunch resets it without notifying
// the responder.
func (w *Workflow) Active() bool {
	return w.active
}

// Info identifies the current launch.
func (w *Workflow) Info() api.WorkflowInfo {
	return api.WorkflowInfo{Name: w.name, RunID: w.runID}
}

// SetResponder registers r, replacing any previous responder. A nil r
// removes it.
func (w *Workflow) SetResponder(r api.Responder) {
	w.responder = r
}

// Responder returns the registered responder, or nil.
func (w *Workflow) Responder() api.Responder {
	return w.responder
}

// OnAbandon registers fn to run once each time the workflow is abandoned.
func (w *Workflow) OnAbandon(fn func()) {
	if fn != nil {
		w.abandonHooks = append(w.abandonHooks, fn)
	}
}

// Node returns the materialized node at position.
func (w *Workflow) Node(position int) (api.Node, bool) {
	s, ok := w.slots.At(sequence.Position(position))
	if !ok || s == nil {
		return api.Node{}, false
	}
	return w.node(sequence.Position(position)), true
}

// Nodes returns every materialized node in order.
func (w *Workflow) Nodes() []api.Node {
	var out []api.Node
	w.slots.Each(func(p sequence.Position, s *slot) {
		if s != nil {
			out = append(out, w.node(p))
		}
	})
	return out
}

// LastMaterialized returns the last materialized node.
func (w *Workflow) LastMaterialized() (api.Node, bool) {
	p, ok := w.slots.Last(func(_ sequence.Position, s *slot) bool { return s != nil })
	if !ok {
		return api.Node{}, false
	}
	return w.node(p), true
}

// LastPresentable returns the last materialized node whose persistence is not
// RemovedAfterProceeding.
func (w *Workflow) LastPresentable() (api.Node, bool) {
	p, ok := w.slots.Last(presentable)
	if !ok {
		return api.Node{}, false
	}
	return w.node(p), true
}

// Launch discards every materialized step and walks the definitions from the
// first one, carrying args forward until a step elects to load.
//
// Steps that decline but are PersistWhenSkipped are kept and announced to the
// responder on the way. The first loading step is announced with Launch, or
// with Proceed from the last kept anchor if there was one, and returned. When
// no step loads, onFinish is called with the args the last step forwarded and
// Launch returns nil.
func (w *Workflow) Launch(args api.PassedArgs, onFinish func(api.PassedArgs)) *api.Node {
	w.resetSlots()
	w.runID = w.newRunID()
	w.active = false
	w.onFinish = onFinish
	w.logger.Debug("workflow_launch",
		slog.String("run_id", w.runID),
		slog.String("args", args.String()),
	)

	current := args
	var root, first *api.Node
	w.defs.Forward(0, func(p sequence.Position, def api.StepDefinition) bool {
		s, out := w.evaluate(p, def, current)
		current = out

		switch {
		case s.loaded:
			w.store(p, s)
			n := w.node(p)
			first = &n
			return true
		case s.persistence == api.PersistWhenSkipped:
			w.store(p, s)
			n := w.node(p)
			w.active = true
			w.launchOrProceed(n, root)
			root = &n
		default:
			w.discard(s)
		}
		return false
	})

	if first == nil {
		// Anchors were announced: close the run with Complete.
		if root != nil {
			w.complete(current)
		} else {
			w.finish(current)
		}
		return nil
	}

	w.active = true
	w.launchOrProceed(*first, root)
	return first
}

// ProceedFrom implements api.Navigator. While the step behind ref is being
// evaluated it only replaces the args forwarded to the next position.
func (w *Workflow) ProceedFrom(ref api.StepRef, args api.PassedArgs) error {
	if w.eval != nil && w.eval.serial == ref.Serial {
		w.eval.args = args
		return nil
	}
	if !w.live(ref) {
		return api.ErrDetached
	}
	w.proceed(sequence.Position(ref.Position), args)
	return nil
}

// BackUpFrom implements api.Navigator.
func (w *Workflow) BackUpFrom(ref api.StepRef) error {
	if !w.live(ref) {
		return api.ErrDetached
	}
	return w.backUp(sequence.Position(ref.Position))
}

// AbandonFrom implements api.Navigator.
func (w *Workflow) AbandonFrom(ref api.StepRef) error {
	if !w.live(ref) {
		return api.ErrDetached
	}
	w.Abandon()
	return nil
}

// Abandon detaches and drops every materialized step, forgets the responder
// and tells it the workflow was abandoned. Abandon hooks run exactly once.
func (w *Workflow) Abandon() {
	r := w.responder
	info := w.Info()

	w.resetSlots()
	w.responder = nil
	w.onFinish = nil
	w.runID = ""
	w.active = false

	hooks := append([]func(){}, w.abandonHooks...)
	var once sync.Once
	done := func() {
		once.Do(func() {
			for _, h := range hooks {
				h()
			}
		})
	}

	w.logger.Debug("workflow_abandon", slog.String("run_id", info.RunID))
	if r != nil {
		r.Abandon(info, done)
	}
	done()
}

// proceed walks forward from the position after from. Every kept anchor is
// announced with the node before it as "from", so the notifications form a
// connected chain ending at the step that loads.
func (w *Workflow) proceed(from sequence.Position, args api.PassedArgs) {
	prev := w.node(from)
	current := args
	var next *api.Node

	w.defs.Forward(from+1, func(p sequence.Position, def api.StepDefinition) bool {
		s, out := w.evaluate(p, def, current)
		current = out

		switch {
		case s.loaded:
			w.store(p, s)
			n := w.node(p)
			next = &n
			return true
		case s.persistence == api.PersistWhenSkipped:
			w.store(p, s)
			n := w.node(p)
			w.respond().Proceed(n, prev)
			prev = n
		default:
			w.discard(s)
			w.clear(p)
		}
		return false
	})

	if next == nil {
		w.complete(current)
		return
	}

	w.clearAfter(sequence.Position(next.Position))
	w.respond().Proceed(*next, prev)
}

func (w *Workflow) backUp(from sequence.Position) error {
	p, ok := w.slots.Backward(from-1, func(_ sequence.Position, s *slot) bool { return s != nil })
	if !ok {
		return api.ErrCannotBackUp
	}
	w.respond().BackUp(w.node(from), w.node(p))
	return nil
}

// complete runs when the chain is exhausted. The node left on display is the
// last materialized one, unless it is RemovedAfterProceeding, in which case it
// is the nearest earlier presentable node, or nothing.
func (w *Workflow) complete(args api.PassedArgs) {
	var display *api.Node
	if last, ok := w.LastMaterialized(); ok {
		if last.Persistence != api.RemovedAfterProceeding {
			display = &last
		} else if p, ok := w.slots.Backward(sequence.Position(last.Position-1), presentable); ok {
			n := w.node(p)
			display = &n
		}
	}

	w.active = false
	w.respond().Complete(w.Info(), display, args)
	w.finish(args)
}

func (w *Workflow) finish(args api.PassedArgs) {
	w.logger.Debug("workflow_finish",
		slog.String("run_id", w.runID),
		slog.String("args", args.String()),
	)
	if w.onFinish != nil {
		w.onFinish(args)
	}
}

// evaluate materializes def at p for args and asks it whether it loads. It
// returns the new slot and the args to forward if the step does not load.
func (w *Workflow) evaluate(p sequence.Position, def api.StepDefinition, args api.PassedArgs) (*slot, api.PassedArgs) {
	persistence := def.CalculatePersistence(args)
	step := def.Factory(args)
	if step == nil {
		invariant("factory for step %q at position %d returned nil", def.Name, p)
	}

	w.serial++
	s := &slot{step: step, serial: w.serial, persistence: persistence}

	prev := w.eval
	ev := &evaluation{serial: s.serial, args: args}
	w.eval = ev
	step.Attach(api.NewHandle(w, api.StepRef{Position: int(p), Serial: s.serial}))
	s.loaded = step.ShouldLoad()
	w.eval = prev

	w.logger.Debug("step_evaluated",
		slog.String("run_id", w.runID),
		slog.String("step", def.Name),
		slog.Int("position", int(p)),
		slog.Bool("loaded", s.loaded),
		slog.String("persistence", persistence.String()),
	)
	return s, ev.args
}

func (w *Workflow) launchOrProceed(to api.Node, from *api.Node) {
	if from == nil {
		w.respond().Launch(to)
		return
	}
	w.respond().Proceed(to, *from)
}

func (w *Workflow) respond() api.Responder {
	if w.responder == nil {
		return api.NoopResponder{}
	}
	return w.responder
}

func (w *Workflow) live(ref api.StepRef) bool {
	s, ok := w.slots.At(sequence.Position(ref.Position))
	return ok && s != nil && s.serial == ref.Serial
}

func (w *Workflow) node(p sequence.Position) api.Node {
	def, ok := sequence.Resolve(w.defs, p)
	if !ok {
		invariant("no step definition at position %d", p)
	}
	s, ok := w.slots.At(p)
	if !ok || s == nil {
		invariant("no materialized step at position %d (%s)", p, def.Name)
	}
	return api.Node{
		Workflow:    w.Info(),
		Position:    int(p),
		Definition:  def,
		Step:        s.step,
		Persistence: s.persistence,
		Loaded:      s.loaded,
	}
}

func (w *Workflow) store(p sequence.Position, s *slot) {
	if old, _ := w.slots.At(p); old != nil {
		old.step.Attach(api.Handle{})
	}
	if !w.slots.Set(p, s) {
		invariant("cannot store step at position %d of %d", p, w.slots.Len())
	}
}

func (w *Workflow) clear(p sequence.Position) {
	if old, _ := w.slots.At(p); old != nil {
		old.step.Attach(api.Handle{})
		w.slots.Set(p, nil)
	}
}

func (w *Workflow) clearAfter(p sequence.Position) {
	for i := p + 1; int(i) < w.slots.Len(); i++ {
		w.clear(i)
	}
}

func (w *Workflow) discard(s *slot) {
	s.step.Attach(api.Handle{})
}

func (w *Workflow) resetSlots() {
	w.slots.Each(func(_ sequence.Position, s *slot) {
		if s != nil {
			s.step.Attach(api.Handle{})
		}
	})
	w.slots.RemoveAll()
	if w.slots.Len() != w.defs.Len() {
		invariant("%d step slots for %d definitions", w.slots.Len(), w.defs.Len())
	}
}

func presentable(_ sequence.Position, s *slot) bool {
	return s != nil && s.persistence != api.RemovedAfterProceeding
}

// invariant aborts on states the algorithms assume can never happen.
// Continuing would silently corrupt the navigation chain.
func invariant(format string, args ...any) {
	panic(fmt.Sprintf("waypoint: internal state mangled: "+format, args...))
}
