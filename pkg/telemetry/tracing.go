package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petrijr/waypoint/pkg/api"
)

// TracerName is the instrumentation name used when no tracer is supplied.
const TracerName = "github.com/petrijr/waypoint"

// TracingResponder turns every run into an OpenTelemetry span. Each
// transition becomes a span event; the span ends when the run completes or
// is abandoned.
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//	responder := telemetry.NewTracingResponder(nil)
type TracingResponder struct {
	tracer trace.Tracer
	parent context.Context

	mu    sync.Mutex
	spans map[string]trace.Span
}

var _ api.Responder = (*TracingResponder)(nil)

// NewTracingResponder creates a TracingResponder. A nil tracer uses the
// global provider's tracer named TracerName.
func NewTracingResponder(tracer trace.Tracer) *TracingResponder {
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	return &TracingResponder{
		tracer: tracer,
		parent: context.Background(),
		spans:  make(map[string]trace.Span),
	}
}

// WithParent returns a copy of t whose run spans are children of the span in
// ctx. Open spans are not shared with the copy.
func (t *TracingResponder) WithParent(ctx context.Context) *TracingResponder {
	return &TracingResponder{
		tracer: t.tracer,
		parent: ctx,
		spans:  make(map[string]trace.Span),
	}
}

func (t *TracingResponder) Launch(to api.Node) {
	t.event(to.Workflow, string(api.EventLaunched), nodeAttrs("to", to)...)
}

func (t *TracingResponder) Proceed(to, from api.Node) {
	attrs := append(nodeAttrs("to", to), nodeAttrs("from", from)...)
	t.event(to.Workflow, string(api.EventProceeded), attrs...)
}

func (t *TracingResponder) BackUp(from, to api.Node) {
	attrs := append(nodeAttrs("to", to), nodeAttrs("from", from)...)
	t.event(to.Workflow, string(api.EventBackedUp), attrs...)
}

func (t *TracingResponder) Abandon(info api.WorkflowInfo, onFinish func()) {
	span, ok := t.finish(info, string(api.EventAbandoned))
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("waypoint.outcome", "abandoned"))
	span.End()
}

func (t *TracingResponder) Complete(info api.WorkflowInfo, display *api.Node, args api.PassedArgs) {
	var attrs []attribute.KeyValue
	if display != nil {
		attrs = nodeAttrs("display", *display)
	}
	attrs = append(attrs, attribute.String("waypoint.args", args.String()))

	span, ok := t.finish(info, string(api.EventCompleted), attrs...)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("waypoint.outcome", "completed"))
	span.SetStatus(codes.Ok, "")
	span.End()
}

// span returns the open span of the run, starting one if needed. Callers
// hold mu.
func (t *TracingResponder) span(info api.WorkflowInfo) trace.Span {
	if s, ok := t.spans[info.RunID]; ok {
		return s
	}
	_, s := t.tracer.Start(t.parent, "waypoint.run",
		trace.WithAttributes(
			attribute.String("waypoint.workflow", info.Name),
			attribute.String("waypoint.run_id", info.RunID),
		),
	)
	t.spans[info.RunID] = s
	return s
}

func (t *TracingResponder) event(info api.WorkflowInfo, name string, attrs ...attribute.KeyValue) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.span(info).AddEvent(name, trace.WithAttributes(attrs...))
}

// finish records the final event and forgets the span; the caller ends it.
// It reports false when the run has no open span, for example when it was
// already completed or never launched.
func (t *TracingResponder) finish(info api.WorkflowInfo, name string, attrs ...attribute.KeyValue) (trace.Span, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.spans[info.RunID]
	if !ok {
		return nil, false
	}
	delete(t.spans, info.RunID)
	s.AddEvent(name, trace.WithAttributes(attrs...))
	return s, true
}

func nodeAttrs(prefix string, n api.Node) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("waypoint."+prefix+".step", n.StepName()),
		attribute.Int("waypoint."+prefix+".position", n.Position),
		attribute.Bool("waypoint."+prefix+".loaded", n.Loaded),
	}
}
