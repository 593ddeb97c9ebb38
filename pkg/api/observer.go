package api

import (
	"log/slog"
	"sync/atomic"
)

// Responder is notified of every transition of a workflow and is solely
// responsible for any visible effect, such as presenting the current step.
//
// Calls happen synchronously on the goroutine driving the workflow.
type Responder interface {
	// Launch is called when the first node of a launch becomes current and
	// nothing precedes it.
	Launch(to Node)

	// Proceed is called when navigation moves forward from one node to the
	// next materialized one.
	Proceed(to, from Node)

	// BackUp is called when navigation moves backward.
	BackUp(from, to Node)

	// Abandon is called once when the workflow is torn down. onFinish runs
	// the workflow's abandon hooks; the responder may call it when its own
	// teardown is done. The workflow calls it afterwards if it has not run.
	Abandon(info WorkflowInfo, onFinish func())

	// Complete is called when the last node proceeds and nothing after it
	// loads. display is the node that should remain visible, or nil when
	// nothing should.
	Complete(info WorkflowInfo, display *Node, args PassedArgs)
}

// NoopResponder ignores every notification. It is the default when no
// responder is configured and is handy to embed.
type NoopResponder struct{}

func (NoopResponder) Launch(to Node)                                             {}
func (NoopResponder) Proceed(to, from Node)                                      {}
func (NoopResponder) BackUp(from, to Node)                                       {}
func (NoopResponder) Abandon(info WorkflowInfo, onFinish func())                 {}
func (NoopResponder) Complete(info WorkflowInfo, display *Node, args PassedArgs) {}

// CompositeResponder fans notifications out to several responders in order.
type CompositeResponder struct {
	responders []Responder
}

// NewCompositeResponder creates a Responder forwarding to each non-nil
// responder in rs.
func NewCompositeResponder(rs ...Responder) Responder {
	filtered := make([]Responder, 0, len(rs))
	for _, r := range rs {
		if r != nil {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		return NoopResponder{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeResponder{responders: filtered}
}

func (c *CompositeResponder) Launch(to Node) {
	for _, r := range c.responders {
		r.Launch(to)
	}
}

func (c *CompositeResponder) Proceed(to, from Node) {
	for _, r := range c.responders {
		r.Proceed(to, from)
	}
}

func (c *CompositeResponder) BackUp(from, to Node) {
	for _, r := range c.responders {
		r.BackUp(from, to)
	}
}

// Abandon hands onFinish only to the last responder; the workflow makes sure
// it runs exactly once either way.
func (c *CompositeResponder) Abandon(info WorkflowInfo, onFinish func()) {
	last := len(c.responders) - 1
	for i, r := range c.responders {
		if i == last {
			r.Abandon(info, onFinish)
			continue
		}
		r.Abandon(info, func() {})
	}
}

func (c *CompositeResponder) Complete(info WorkflowInfo, display *Node, args PassedArgs) {
	for _, r := range c.responders {
		r.Complete(info, display, args)
	}
}

// LoggingResponder writes structured logs using log/slog.
type LoggingResponder struct {
	Logger *slog.Logger
}

// NewLoggingResponder creates a Responder that logs every transition using
// logger. If logger is nil, slog.Default() is used.
func NewLoggingResponder(logger *slog.Logger) Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingResponder{Logger: logger}
}

func (r *LoggingResponder) Launch(to Node) {
	r.Logger.Info("workflow_launched",
		slog.String("workflow", to.Workflow.Name),
		slog.String("run_id", to.Workflow.RunID),
		slog.String("step", to.StepName()),
		slog.Int("position", to.Position),
		slog.Bool("loaded", to.Loaded),
	)
}

func (r *LoggingResponder) Proceed(to, from Node) {
	r.Logger.Info("step_proceeded",
		slog.String("workflow", to.Workflow.Name),
		slog.String("run_id", to.Workflow.RunID),
		slog.String("from", from.StepName()),
		slog.String("step", to.StepName()),
		slog.Int("position", to.Position),
		slog.Bool("loaded", to.Loaded),
	)
}

func (r *LoggingResponder) BackUp(from, to Node) {
	r.Logger.Info("step_backed_up",
		slog.String("workflow", to.Workflow.Name),
		slog.String("run_id", to.Workflow.RunID),
		slog.String("from", from.StepName()),
		slog.String("step", to.StepName()),
		slog.Int("position", to.Position),
	)
}

func (r *LoggingResponder) Abandon(info WorkflowInfo, onFinish func()) {
	r.Logger.Info("workflow_abandoned",
		slog.String("workflow", info.Name),
		slog.String("run_id", info.RunID),
	)
}

func (r *LoggingResponder) Complete(info WorkflowInfo, display *Node, args PassedArgs) {
	attrs := []any{
		slog.String("workflow", info.Name),
		slog.String("run_id", info.RunID),
		slog.String("args", args.String()),
	}
	if display != nil {
		attrs = append(attrs, slog.String("display", display.StepName()))
	}
	r.Logger.Info("workflow_completed", attrs...)
}

// BasicMetrics counts transitions. It implements Responder and can be
// combined with other responders via NewCompositeResponder.
type BasicMetrics struct {
	NoopResponder

	launches    atomic.Int64
	proceeds    atomic.Int64
	backUps     atomic.Int64
	abandons    atomic.Int64
	completions atomic.Int64
	anchors     atomic.Int64
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	Launches    int64
	Proceeds    int64
	BackUps     int64
	Abandons    int64
	Completions int64

	// Anchors counts nodes announced with Loaded == false.
	Anchors int64

	// Active is launches minus runs that were completed or abandoned.
	Active int64
}

func (m *BasicMetrics) Launch(to Node) {
	m.launches.Add(1)
	m.countAnchor(to)
}

func (m *BasicMetrics) Proceed(to, from Node) {
	m.proceeds.Add(1)
	m.countAnchor(to)
}

func (m *BasicMetrics) BackUp(from, to Node) {
	m.backUps.Add(1)
}

func (m *BasicMetrics) Abandon(info WorkflowInfo, onFinish func()) {
	m.abandons.Add(1)
}

func (m *BasicMetrics) Complete(info WorkflowInfo, display *Node, args PassedArgs) {
	m.completions.Add(1)
}

func (m *BasicMetrics) countAnchor(n Node) {
	if !n.Loaded {
		m.anchors.Add(1)
	}
}

// Snapshot returns a snapshot of the current counters.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	launches := m.launches.Load()
	abandons := m.abandons.Load()
	completions := m.completions.Load()

	return BasicMetricsSnapshot{
		Launches:    launches,
		Proceeds:    m.proceeds.Load(),
		BackUps:     m.backUps.Load(),
		Abandons:    abandons,
		Completions: completions,
		Anchors:     m.anchors.Load(),
		Active:      launches - abandons - completions,
	}
}
