package waypoint

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/petrijr/waypoint/internal/engine"
	"github.com/petrijr/waypoint/internal/taskqueue"
	"github.com/petrijr/waypoint/pkg/telemetry"
	"github.com/petrijr/waypoint/pkg/worker"
)

// Config describes the ambient wiring of a Runner. The zero value is usable:
// transitions are logged to slog.Default and counted in memory only.
type Config struct {
	// Logger receives transition records and engine debug records.
	Logger *slog.Logger

	// Responders are notified after the built-in ones, in order. The last
	// one is the host responder that receives the abandon callback.
	Responders []Responder

	// Journal, when set, records every transition.
	Journal EventStore

	// AsyncJournal, when > 0, queues up to that many journal events and
	// writes them from a background worker started by Runner.Start.
	AsyncJournal int

	// JournalRetry applies to background journal writes.
	JournalRetry RetryPolicy

	// Registerer, when set, receives the waypoint_* Prometheus metrics. Each
	// registerer can back a single Runner; to share metrics between runners
	// pass one telemetry.PrometheusResponder through Responders instead.
	Registerer prometheus.Registerer

	// Tracer, when set, records one span per run.
	Tracer trace.Tracer

	// NewRunID generates run IDs. Defaults to random UUIDs.
	NewRunID func() string
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Runner bundles a Flow with the responders built from a Config, so a host
// only has to attach the responder that presents steps.
//
// Typical usage:
//
//	runner, err := waypoint.NewRunner(flow, waypoint.Config{Journal: store})
//	runner.Attach(screen)
//	runner.Launch(waypoint.NoArgs(), nil)
type Runner struct {
	// Flow is the workflow driven by this runner.
	Flow *Flow

	// Metrics counts every transition of Flow.
	Metrics *BasicMetrics

	// Journal is the configured event store, or nil.
	Journal EventStore

	ambient []Responder
	host    []Responder

	queue   *taskqueue.InMemoryQueue
	writer  *worker.Worker
	mu      sync.Mutex
	running chan error
}

// NewRunner builds the flow described by b and wires the responders cfg
// asks for.
func NewRunner(b *FlowBuilder, cfg Config) (*Runner, error) {
	cfg = cfg.withDefaults()

	flow, err := b.build(engine.Config{
		Logger:   cfg.Logger,
		NewRunID: cfg.NewRunID,
	})
	if err != nil {
		return nil, err
	}

	r := &Runner{
		Flow:    flow,
		Metrics: &BasicMetrics{},
		Journal: cfg.Journal,
		host:    cfg.Responders,
	}

	r.ambient = append(r.ambient, NewLoggingResponder(cfg.Logger), r.Metrics)
	if cfg.Journal != nil {
		var sink Appender = cfg.Journal
		if cfg.AsyncJournal > 0 {
			r.queue = taskqueue.NewInMemoryQueue(cfg.AsyncJournal)
			r.writer = worker.NewWithConfig(cfg.Journal, r.queue, worker.Config{
				Retry:  cfg.JournalRetry,
				Logger: cfg.Logger,
			})
			sink = r.writer
		}
		r.ambient = append(r.ambient, NewJournalResponder(sink, cfg.Logger))
	}
	if cfg.Registerer != nil {
		r.ambient = append(r.ambient, telemetry.NewPrometheusResponder(cfg.Registerer))
	}
	if cfg.Tracer != nil {
		r.ambient = append(r.ambient, telemetry.NewTracingResponder(cfg.Tracer))
	}

	r.wire()
	return r, nil
}

// Attach replaces the host responders.
func (r *Runner) Attach(host ...Responder) {
	r.host = host
	r.wire()
}

// Launch launches the flow. A run that is still open is abandoned first, so
// every responder sees it end. The workflow forgets its responder when it is
// abandoned, so the runner rewires it before launching.
func (r *Runner) Launch(args PassedArgs, onFinish func(PassedArgs)) *Node {
	if r.Flow.Active() {
		r.Flow.Abandon()
	}
	r.wire()
	return r.Flow.Launch(args, onFinish)
}

// Abandon abandons the current run.
func (r *Runner) Abandon() {
	r.Flow.Abandon()
}

// Start runs the background journal writer until ctx ends or Close is
// called. It does nothing when journal writes are synchronous or the writer
// is already running.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writer == nil || r.running != nil {
		return
	}
	r.running = make(chan error, 1)
	go func(done chan<- error) {
		done <- r.writer.Run(ctx)
	}(r.running)
}

// Flush returns once every queued journal event has been written or
// dropped.
func (r *Runner) Flush(ctx context.Context) error {
	if r.writer == nil {
		return nil
	}
	r.mu.Lock()
	running := r.running != nil
	r.mu.Unlock()
	if running {
		return r.writer.Wait(ctx)
	}
	return r.writer.Drain(ctx)
}

// Close flushes the journal and stops the background writer. Transitions
// after Close are no longer journaled.
func (r *Runner) Close(ctx context.Context) error {
	if r.writer == nil {
		return nil
	}
	if err := r.Flush(ctx); err != nil {
		return err
	}
	r.queue.Close()

	r.mu.Lock()
	running := r.running
	r.mu.Unlock()
	if running == nil {
		return nil
	}
	select {
	case err := <-running:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// JournalStats reports the background writer's counters. It is the zero
// value when journal writes are synchronous.
func (r *Runner) JournalStats() worker.Stats {
	if r.writer == nil {
		return worker.Stats{}
	}
	return r.writer.Stats()
}

// History returns the journaled events of a run, or nil when no journal is
// configured. Queued events are flushed first.
func (r *Runner) History(ctx context.Context, runID string) ([]TransitionEvent, error) {
	if r.Journal == nil {
		return nil, nil
	}
	if err := r.Flush(ctx); err != nil {
		return nil, err
	}
	return r.Journal.ListEvents(ctx, runID)
}

// Runs summarizes the journaled runs of the flow. Queued events are flushed
// first.
func (r *Runner) Runs(ctx context.Context) ([]RunSummary, error) {
	if r.Journal == nil {
		return nil, nil
	}
	if err := r.Flush(ctx); err != nil {
		return nil, err
	}
	return r.Journal.ListRuns(ctx, r.Flow.Name())
}

func (r *Runner) wire() {
	all := make([]Responder, 0, len(r.ambient)+len(r.host))
	all = append(all, r.ambient...)
	all = append(all, r.host...)
	r.Flow.SetResponder(NewCompositeResponder(all...))
}
