// Package taskqueue buffers journal appends between the goroutine driving a
// workflow and the writer that stores them.
package taskqueue

import (
	"context"
	"errors"
	"time"

	"github.com/petrijr/waypoint/pkg/api"
)

var (
	// ErrClosed is returned by Enqueue and TryEnqueue after Close.
	ErrClosed = errors.New("taskqueue: queue is closed")

	// ErrFull is returned by TryEnqueue when the queue has no room.
	ErrFull = errors.New("taskqueue: queue is full")
)

// Task is one pending journal append.
type Task struct {
	// Seq is a unique, increasing number assigned by the queue.
	Seq uint64

	Event      api.TransitionEvent
	EnqueuedAt time.Time
}

// Queue is a FIFO of pending appends.
type Queue interface {
	// Enqueue adds a task to the queue. It should respect ctx for cancellation.
	Enqueue(ctx context.Context, t Task) error

	// TryEnqueue adds a task without waiting. It returns ErrFull when the
	// queue has no room.
	TryEnqueue(t Task) error

	// Dequeue removes and returns the next task, blocking until one is
	// available or the context is cancelled. It returns (nil, nil) once the
	// queue is closed and empty.
	Dequeue(ctx context.Context) (*Task, error)

	// Len returns the approximate number of tasks queued.
	Len() int
}
