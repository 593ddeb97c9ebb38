package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/petrijr/waypoint/internal/persistence"
	"github.com/petrijr/waypoint/internal/taskqueue"
	"github.com/petrijr/waypoint/pkg/api"
)

// Config holds worker settings.
type Config struct {
	// Retry applies to every append.
	Retry RetryPolicy

	// Logger receives dropped events. Defaults to slog.Default().
	Logger *slog.Logger
}

// Stats is a snapshot of the worker's counters.
type Stats struct {
	Written int64
	Dropped int64
	Pending int64
}

// Worker drains a Queue of transition events into a journal.
type Worker struct {
	store  persistence.Appender
	queue  taskqueue.Queue
	retry  RetryPolicy
	logger *slog.Logger

	written atomic.Int64
	dropped atomic.Int64
	pending atomic.Int64

	sleep func(ctx context.Context, d time.Duration) error
}

var _ persistence.Appender = (*Worker)(nil)

// New creates a Worker that tries every append once.
func New(store persistence.Appender, queue taskqueue.Queue) *Worker {
	return NewWithConfig(store, queue, Config{})
}

// NewWithConfig creates a Worker with the given settings.
func NewWithConfig(store persistence.Appender, queue taskqueue.Queue, cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		store:  store,
		queue:  queue,
		retry:  cfg.Retry,
		logger: logger,
		sleep:  sleepContext,
	}
}

// AppendEvent queues ev for the worker without waiting. When ctx has ended
// or the queue is full or closed, the event is dropped, logged and counted,
// and the error is returned.
func (w *Worker) AppendEvent(ctx context.Context, ev api.TransitionEvent) error {
	err := ctx.Err()
	if err == nil {
		w.pending.Add(1)
		if err = w.queue.TryEnqueue(taskqueue.Task{Event: ev}); err == nil {
			return nil
		}
		w.pending.Add(-1)
	}

	w.dropped.Add(1)
	w.logger.Error("journal_write_dropped",
		slog.String("workflow", ev.WorkflowName),
		slog.String("run_id", ev.RunID),
		slog.String("type", string(ev.Type)),
		slog.Any("error", err),
	)
	return err
}

// ProcessOne pulls a single event from the queue and writes it, retrying per
// the policy. Events are written in queue order; a retry blocks the ones
// behind it. Returns (processed, error):
//   - processed == false, err == nil: the queue is closed and empty
//   - processed == false, err != nil: ctx ended before an event was obtained
//   - processed == true: an event was taken; err is set if it was dropped.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	task, err := w.queue.Dequeue(ctx)
	if err != nil {
		return false, err
	}
	if task == nil {
		return false, nil
	}
	defer w.pending.Add(-1)

	attempts := w.retry.Attempts()
	for attempt := 1; ; attempt++ {
		err = w.store.AppendEvent(ctx, task.Event)
		if err == nil {
			w.written.Add(1)
			return true, nil
		}
		if attempt >= attempts || errors.Is(err, persistence.ErrMissingRunID) {
			break
		}
		if serr := w.sleep(ctx, w.retry.Delay(attempt)); serr != nil {
			err = serr
			break
		}
	}

	w.dropped.Add(1)
	w.logger.Error("journal_write_dropped",
		slog.String("workflow", task.Event.WorkflowName),
		slog.String("run_id", task.Event.RunID),
		slog.String("type", string(task.Event.Type)),
		slog.Uint64("seq", task.Seq),
		slog.Any("error", err),
	)
	return true, err
}

// Run processes events until the queue is closed and empty, or ctx ends.
// Dropped events do not stop it.
func (w *Worker) Run(ctx context.Context) error {
	for {
		processed, err := w.ProcessOne(ctx)
		if !processed {
			return err
		}
	}
}

// Drain writes everything currently queued and returns. It must not be used
// while Run is active.
func (w *Worker) Drain(ctx context.Context) error {
	for w.queue.Len() > 0 {
		processed, err := w.ProcessOne(ctx)
		if !processed {
			return err
		}
	}
	return nil
}

// Wait blocks until every queued event has been written or dropped.
func (w *Worker) Wait(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for w.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Stats returns the current counters.
func (w *Worker) Stats() Stats {
	return Stats{
		Written: w.written.Load(),
		Dropped: w.dropped.Load(),
		Pending: w.pending.Load(),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
