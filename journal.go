package waypoint

import (
	"context"
	"log/slog"

	"github.com/petrijr/waypoint/pkg/api"
)

// JournalResponder appends one TransitionEvent per notification to an
// EventStore or a background writer. Responders cannot fail, so append
// errors are logged and counted instead of returned.
type JournalResponder struct {
	store  Appender
	ctx    context.Context
	logger *slog.Logger

	failures BasicMetrics
}

var _ Responder = (*JournalResponder)(nil)

// NewJournalResponder creates a JournalResponder writing to store. logger may
// be nil, in which case slog.Default() is used.
func NewJournalResponder(store Appender, logger *slog.Logger) *JournalResponder {
	if logger == nil {
		logger = slog.Default()
	}
	return &JournalResponder{
		store:  store,
		ctx:    context.Background(),
		logger: logger,
	}
}

// WithContext returns a copy of j that uses ctx for every append.
func (j *JournalResponder) WithContext(ctx context.Context) *JournalResponder {
	return &JournalResponder{store: j.store, ctx: ctx, logger: j.logger}
}

// Failures returns how many appends failed, per notification kind.
func (j *JournalResponder) Failures() BasicMetricsSnapshot {
	return j.failures.Snapshot()
}

func (j *JournalResponder) Launch(to Node) {
	ev := api.NewTransitionEvent(to.Workflow, api.EventLaunched).WithTo(to)
	if j.append(ev) {
		return
	}
	j.failures.Launch(to)
}

func (j *JournalResponder) Proceed(to, from Node) {
	ev := api.NewTransitionEvent(to.Workflow, api.EventProceeded).WithTo(to).WithFrom(from)
	if j.append(ev) {
		return
	}
	j.failures.Proceed(to, from)
}

func (j *JournalResponder) BackUp(from, to Node) {
	ev := api.NewTransitionEvent(to.Workflow, api.EventBackedUp).WithTo(to).WithFrom(from)
	if j.append(ev) {
		return
	}
	j.failures.BackUp(from, to)
}

func (j *JournalResponder) Abandon(info WorkflowInfo, onFinish func()) {
	if j.append(api.NewTransitionEvent(info, api.EventAbandoned)) {
		return
	}
	j.failures.Abandon(info, onFinish)
}

func (j *JournalResponder) Complete(info WorkflowInfo, display *Node, args PassedArgs) {
	ev := api.NewTransitionEvent(info, api.EventCompleted)
	if display != nil {
		ev = ev.WithTo(*display)
	}
	ev.Detail = args.String()
	if j.append(ev) {
		return
	}
	j.failures.Complete(info, display, args)
}

func (j *JournalResponder) append(ev TransitionEvent) bool {
	if err := j.store.AppendEvent(j.ctx, ev); err != nil {
		j.logger.Error("journal_append_failed",
			slog.String("workflow", ev.WorkflowName),
			slog.String("run_id", ev.RunID),
			slog.String("type", string(ev.Type)),
			slog.Any("error", err),
		)
		return false
	}
	return true
}
