package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/waypoint/pkg/api"
)

func TestLaunch_FirstLoadingStepIsLaunched(t *testing.T) {
	log := newStepLog()
	r := &recordingResponder{}
	w := newWorkflow(t, r,
		log.def("a", skipping()),
		log.def("b", skipping()),
		log.def("c"),
		log.def("d"),
	)

	node := w.Launch(api.NoArgs(), nil)

	require.NotNil(t, node)
	require.Equal(t, 2, node.Position)
	require.Equal(t, "c", node.StepName())
	require.True(t, node.Loaded)
	require.Equal(t, []call{{Kind: "launch", To: "c"}}, r.calls)
	require.Zero(t, log.count("d"), "steps after the first loaded one are not materialized")

	_, ok := w.Node(0)
	require.False(t, ok, "declining steps without persistence are discarded")
}

func TestLaunch_EmptyWorkflowFinishesImmediately(t *testing.T) {
	r := &recordingResponder{}
	w := newWorkflow(t, r)
	fin := &finishRecorder{}

	node := w.Launch(api.Args("hello"), fin.fn)

	require.Nil(t, node)
	require.Equal(t, []api.PassedArgs{api.Args("hello")}, fin.calls)
	require.Empty(t, r.calls)
	require.Empty(t, r.completions)
}

func TestLaunch_NothingLoadsFinishesWithOriginalArgs(t *testing.T) {
	log := newStepLog()
	r := &recordingResponder{}
	w := newWorkflow(t, r,
		log.def("a", skipping()),
		log.def("b", skipping()),
	)
	fin := &finishRecorder{}

	node := w.Launch(api.Args(42), fin.fn)

	require.Nil(t, node)
	require.Equal(t, []api.PassedArgs{api.Args(42)}, fin.calls)
	require.Empty(t, r.calls, "no responder notification when nothing loads")
	require.Empty(t, w.Nodes())
}

func TestLaunch_ForwardsTransformedArgs(t *testing.T) {
	log := newStepLog()
	w := newWorkflow(t, nil,
		log.def("a", skipping(), withForward(addSuffix("-a"))),
		log.def("b", skipping()),
		log.def("c", skipping(), withForward(addSuffix("-c"))),
		log.def("d"),
	)

	node := w.Launch(api.Args("in"), nil)

	require.NotNil(t, node)
	require.Equal(t, "d", node.StepName())
	require.Equal(t, api.Args("in-a-c"), log.latest(t, "d").args)
	require.Equal(t, api.Args("in-a"), log.latest(t, "b").args, "untransformed decliners forward what they received")
}

func TestLaunch_PersistedAnchorsAreAnnouncedInChain(t *testing.T) {
	log := newStepLog()
	r := &recordingResponder{}
	w := newWorkflow(t, r,
		log.def("a", skipping(), persisting(api.PersistWhenSkipped)),
		log.def("b", skipping()),
		log.def("c", skipping(), persisting(api.PersistWhenSkipped)),
		log.def("d"),
	)

	node := w.Launch(api.NoArgs(), nil)

	require.NotNil(t, node)
	require.Equal(t, []call{
		{Kind: "launch", To: "a"},
		{Kind: "proceed", To: "c", From: "a"},
		{Kind: "proceed", To: "d", From: "c"},
	}, r.calls)
	require.False(t, r.nodes[0].Loaded)
	require.False(t, r.nodes[1].Loaded)
	require.True(t, r.nodes[2].Loaded)

	var names []string
	for _, n := range w.Nodes() {
		names = append(names, n.StepName())
	}
	require.Equal(t, []string{"a", "c", "d"}, names)
}

func TestProceed_ChainsThroughConsecutiveAnchors(t *testing.T) {
	log := newStepLog()
	r := &recordingResponder{}
	w := newWorkflow(t, r,
		log.def("fr1"),
		log.def("fr2", skipping(), persisting(api.PersistWhenSkipped)),
		log.def("fr3", skipping(), persisting(api.PersistWhenSkipped)),
		log.def("fr4"),
	)

	w.Launch(api.NoArgs(), nil)
	require.NoError(t, log.latest(t, "fr1").ProceedWith("x"))

	require.Equal(t, []call{
		{Kind: "launch", To: "fr1"},
		{Kind: "proceed", To: "fr2", From: "fr1"},
		{Kind: "proceed", To: "fr3", From: "fr2"},
		{Kind: "proceed", To: "fr4", From: "fr3"},
	}, r.calls)
	require.Equal(t, api.Args("x"), log.latest(t, "fr4").args)
}

func TestProceed_ToLastStepCompletes(t *testing.T) {
	log := newStepLog()
	r := &recordingResponder{}
	w := newWorkflow(t, r,
		log.def("a"),
		log.def("b", skipping(), withForward(addSuffix("!"))),
	)
	fin := &finishRecorder{}

	w.Launch(api.NoArgs(), fin.fn)
	require.NoError(t, log.latest(t, "a").ProceedWith("done"))

	require.Equal(t, []call{{Kind: "launch", To: "a"}}, r.calls, "no proceed notification at the tail")
	require.Equal(t, []completion{{Display: "a", Args: api.Args("done!")}}, r.completions)
	require.Equal(t, []api.PassedArgs{api.Args("done!")}, fin.calls)
}

func TestComplete_RehomesPastRemovedSteps(t *testing.T) {
	log := newStepLog()
	r := &recordingResponder{}
	w := newWorkflow(t, r,
		log.def("a"),
		log.def("b", persisting(api.RemovedAfterProceeding)),
		log.def("c", persisting(api.RemovedAfterProceeding)),
	)

	w.Launch(api.NoArgs(), nil)
	require.NoError(t, log.latest(t, "a").Proceed(api.NoArgs()))
	require.NoError(t, log.latest(t, "b").Proceed(api.NoArgs()))
	require.NoError(t, log.latest(t, "c").Proceed(api.Args("end")))

	require.Equal(t, []completion{{Display: "a", Args: api.Args("end")}}, r.completions)
}

func TestComplete_EmptyDisplayWhenNothingPresentable(t *testing.T) {
	log := newStepLog()
	r := &recordingResponder{}
	w := newWorkflow(t, r,
		log.def("only", persisting(api.RemovedAfterProceeding)),
	)

	w.Launch(api.NoArgs(), nil)
	require.NoError(t, log.latest(t, "only").Proceed(api.NoArgs()))

	require.Equal(t, []completion{{Args: api.NoArgs()}}, r.completions)
}

func TestLaunch_AnchorsWithoutLoadedStepComplete(t *testing.T) {
	log := newStepLog()
	r := &recordingResponder{}
	fin := &finishRecorder{}
	w := newWorkflow(t, r,
		log.def("anchor", skipping(), persisting(api.PersistWhenSkipped)),
		log.def("skip", skipping(), withForward(func(api.PassedArgs) api.PassedArgs { return api.Args("out") })),
	)

	require.Nil(t, w.Launch(api.Args("in"), fin.fn))

	require.Equal(t, []call{{Kind: "launch", To: "anchor"}}, r.calls)
	require.Equal(t, []completion{{Display: "anchor", Args: api.Args("out")}}, r.completions)
	require.Equal(t, []api.PassedArgs{api.Args("out")}, fin.calls)
	require.False(t, w.Active())
}

func TestActive_FollowsRunLifetime(t *testing.T) {
	log := newStepLog()
	w := newWorkflow(t, &recordingResponder{}, log.def("a"), log.def("b"))
	require.False(t, w.Active())

	w.Launch(api.NoArgs(), nil)
	require.True(t, w.Active())
	require.NoError(t, log.latest(t, "a").Proceed(api.NoArgs()))
	require.True(t, w.Active())
	require.NoError(t, log.latest(t, "b").Proceed(api.NoArgs()))
	require.False(t, w.Active(), "completed")

	w.Launch(api.NoArgs(), nil)
	w.Abandon()
	require.False(t, w.Active(), "abandoned")

	empty := newWorkflow(t, &recordingResponder{}, log.def("never", skipping()))
	empty.Launch(api.NoArgs(), nil)
	require.False(t, empty.Active(), "nothing was announced")
}

func TestBackUp_FromHeadFails(t *testing.T) {
	log := newStepLog()
	r := &recordingResponder{}
	w := newWorkflow(t, r,
		log.def("a", skipping()),
		log.def("b"),
	)

	w.Launch(api.NoArgs(), nil)
	err := log.latest(t, "b").BackUp()

	require.ErrorIs(t, err, api.ErrCannotBackUp)
	require.Equal(t, []call{{Kind: "launch", To: "b"}}, r.calls)
}

func TestBackUp_ToNearestMaterializedStep(t *testing.T) {
	log := newStepLog()
	r := &recordingResponder{}
	w := newWorkflow(t, r,
		log.def("a"),
		log.def("b"),
		log.def("c", skipping()),
		log.def("d"),
	)

	w.Launch(api.NoArgs(), nil)
	require.NoError(t, log.latest(t, "a").Proceed(api.NoArgs()))
	require.NoError(t, log.latest(t, "b").Proceed(api.NoArgs()))
	require.NoError(t, log.latest(t, "d").BackUp())

	require.Equal(t, call{Kind: "backUp", To: "b", From: "d"}, r.calls[len(r.calls)-1])
	require.Len(t, r.calls, 4)
}

func TestBackUp_ReachesPersistedAnchor(t *testing.T) {
	log := newStepLog()
	r := &recordingResponder{}
	w := newWorkflow(t, r,
		log.def("anchor", skipping(), persisting(api.PersistWhenSkipped)),
		log.def("b"),
	)

	w.Launch(api.NoArgs(), nil)
	require.NoError(t, log.latest(t, "b").BackUp())

	require.Equal(t, call{Kind: "backUp", To: "anchor", From: "b"}, r.calls[len(r.calls)-1])
}

func TestHandles_StaleAfterNewPass(t *testing.T) {
	log := newStepLog()
	r := &recordingResponder{}
	w := newWorkflow(t, r,
		log.def("a"),
		log.def("b"),
		log.def("c"),
	)

	w.Launch(api.NoArgs(), nil)
	a := log.latest(t, "a")
	require.NoError(t, a.Proceed(api.NoArgs()))
	firstB := log.latest(t, "b")
	require.NoError(t, firstB.BackUp())

	// Proceeding again from a materializes a fresh b.
	require.NoError(t, a.Proceed(api.NoArgs()))
	require.Equal(t, 2, log.count("b"))

	before := len(r.calls)
	require.ErrorIs(t, firstB.Proceed(api.NoArgs()), api.ErrDetached)
	require.ErrorIs(t, firstB.BackUp(), api.ErrDetached)
	require.Len(t, r.calls, before)

	require.NoError(t, log.latest(t, "b").Proceed(api.NoArgs()))
	require.Equal(t, call{Kind: "proceed", To: "c", From: "b"}, r.calls[len(r.calls)-1])
}

func TestHandles_DiscardedStepIsDetached(t *testing.T) {
	log := newStepLog()
	r := &recordingResponder{}
	w := newWorkflow(t, r,
		log.def("skip", skipping()),
		log.def("b"),
	)

	w.Launch(api.NoArgs(), nil)

	skipped := log.latest(t, "skip")
	require.False(t, skipped.Handle().Attached())
	require.ErrorIs(t, skipped.Proceed(api.NoArgs()), api.ErrDetached)
}

func TestProceed_ClearsSlotsPastNewlyLoadedStep(t *testing.T) {
	log := newStepLog()
	w := newWorkflow(t, nil,
		log.def("a"),
		log.def("b"),
		log.def("c"),
	)

	w.Launch(api.NoArgs(), nil)
	require.NoError(t, log.latest(t, "a").Proceed(api.NoArgs()))
	require.NoError(t, log.latest(t, "b").Proceed(api.NoArgs()))
	require.Len(t, w.Nodes(), 3)

	require.NoError(t, log.latest(t, "c").BackUp())
	require.NoError(t, log.latest(t, "b").BackUp())

	require.NoError(t, log.latest(t, "a").Proceed(api.NoArgs()))
	require.Len(t, w.Nodes(), 2, "c from the earlier pass is dropped")

	last, ok := w.LastMaterialized()
	require.True(t, ok)
	require.Equal(t, "b", last.StepName())
}

func TestAbandon_ThenLaunchBehavesLikeFreshWorkflow(t *testing.T) {
	build := func(log *stepLog) []api.StepDefinition {
		return []api.StepDefinition{
			log.def("a", skipping(), persisting(api.PersistWhenSkipped)),
			log.def("b"),
			log.def("c"),
		}
	}

	freshLog := newStepLog()
	fresh := &recordingResponder{}
	newWorkflow(t, fresh, build(freshLog)...).Launch(api.Args(1), nil)

	log := newStepLog()
	r := &recordingResponder{}
	w := newWorkflow(t, r, build(log)...)
	w.Launch(api.Args(1), nil)
	oldB := log.latest(t, "b")

	w.Abandon()
	require.Nil(t, w.Responder())
	require.Empty(t, w.Nodes())
	require.Len(t, r.abandons, 1)

	relaunched := &recordingResponder{}
	w.SetResponder(relaunched)
	w.Launch(api.Args(1), nil)

	require.Equal(t, fresh.calls, relaunched.calls)
	require.ErrorIs(t, oldB.Proceed(api.NoArgs()), api.ErrDetached)
	require.Equal(t, fresh.calls, relaunched.calls, "pre-abandon handles never fire")
}

func TestAbandon_HooksRunOnce(t *testing.T) {
	for _, responderCalls := range []bool{false, true} {
		log := newStepLog()
		r := &recordingResponder{callOnFinish: responderCalls}
		w := newWorkflow(t, r, log.def("a"))

		hooks := 0
		w.OnAbandon(func() { hooks++ })

		w.Launch(api.NoArgs(), nil)
		runID := w.RunID()
		require.NoError(t, log.latest(t, "a").Abandon())

		require.Equal(t, 1, hooks)
		require.Equal(t, []api.WorkflowInfo{{Name: "test-flow", RunID: runID}}, r.abandons)
		require.Empty(t, w.RunID())
	}
}

func TestAbandon_DetachedStepCannotAbandon(t *testing.T) {
	log := newStepLog()
	w := newWorkflow(t, nil, log.def("a"))

	w.Launch(api.NoArgs(), nil)
	a := log.latest(t, "a")
	w.Launch(api.NoArgs(), nil)

	require.ErrorIs(t, a.Abandon(), api.ErrDetached)
}

func TestPersistence_ComputedFromArgs(t *testing.T) {
	log := newStepLog()
	r := &recordingResponder{}

	def := log.def("maybe", skipping())
	def.Persistence = func(args api.PassedArgs) api.Persistence {
		if v, ok := api.ArgsAs[bool](args); ok && v {
			return api.PersistWhenSkipped
		}
		return api.PersistenceDefault
	}
	w := newWorkflow(t, r, def, log.def("last"))

	w.Launch(api.Args(false), nil)
	require.Equal(t, []call{{Kind: "launch", To: "last"}}, r.calls)

	r.calls = nil
	w.Launch(api.Args(true), nil)
	require.Equal(t, []call{
		{Kind: "launch", To: "maybe"},
		{Kind: "proceed", To: "last", From: "maybe"},
	}, r.calls)
	require.Equal(t, api.PersistWhenSkipped, r.nodes[len(r.nodes)-2].Persistence)
}

func TestLaunch_NewRunIDEachLaunch(t *testing.T) {
	log := newStepLog()
	r := &recordingResponder{}
	w := newWorkflow(t, r, log.def("a"))

	w.Launch(api.NoArgs(), nil)
	first := w.RunID()
	w.Launch(api.NoArgs(), nil)

	require.NotEqual(t, first, w.RunID())
	require.Equal(t, w.RunID(), r.nodes[1].Workflow.RunID)
}

func TestNew_RejectsInvalidDefinitions(t *testing.T) {
	log := newStepLog()

	_, err := New("dup", []api.StepDefinition{log.def("a"), log.def("a")})
	require.ErrorIs(t, err, api.ErrDuplicateStepName)

	_, err = New("nil-factory", []api.StepDefinition{{Name: "a"}})
	require.ErrorIs(t, err, api.ErrNilFactory)

	var defErr *api.DefinitionError
	_, err = New("unnamed", []api.StepDefinition{log.def("a"), {Factory: log.def("b").Factory}})
	require.True(t, errors.As(err, &defErr))
	require.Equal(t, 1, defErr.Position)
	require.ErrorIs(t, err, api.ErrEmptyStepName)
}

func TestLaunch_NilStepFromFactoryPanics(t *testing.T) {
	w, err := New("broken", []api.StepDefinition{{
		Name:    "nil",
		Factory: func(api.PassedArgs) api.Step { return nil },
	}})
	require.NoError(t, err)

	require.PanicsWithValue(t,
		`waypoint: internal state mangled: factory for step "nil" at position 0 returned nil`,
		func() { w.Launch(api.NoArgs(), nil) },
	)
}

func TestWorkflow_Introspection(t *testing.T) {
	log := newStepLog()
	w := newWorkflow(t, nil,
		log.def("a"),
		log.def("b", persisting(api.RemovedAfterProceeding)),
	)

	require.Equal(t, "test-flow", w.Name())
	require.Equal(t, 2, w.Len())
	require.Len(t, w.Definitions(), 2)

	p, ok := w.Position("b")
	require.True(t, ok)
	require.Equal(t, 1, p)

	w.Launch(api.NoArgs(), nil)
	require.NoError(t, log.latest(t, "a").Proceed(api.NoArgs()))

	last, ok := w.LastMaterialized()
	require.True(t, ok)
	require.Equal(t, "b", last.StepName())

	presentable, ok := w.LastPresentable()
	require.True(t, ok)
	require.Equal(t, "a", presentable.StepName())
}
