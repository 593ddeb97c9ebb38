package taskqueue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// InMemoryQueue is a Queue backed by a buffered channel. It is safe for
// concurrent use.
type InMemoryQueue struct {
	ch  chan Task
	seq atomic.Uint64

	// done is closed first by Close so blocked producers give up before ch
	// is closed under mu.
	done      chan struct{}
	closeOnce sync.Once

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new queue with the given capacity.
// A capacity <= 0 uses 1024.
func NewInMemoryQueue(capacity int) *InMemoryQueue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &InMemoryQueue{
		ch:   make(chan Task, capacity),
		done: make(chan struct{}),
	}
}

// Ensure InMemoryQueue implements Queue.
var _ Queue = (*InMemoryQueue)(nil)

// Enqueue blocks while the queue is full, until ctx ends or the queue is
// closed.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}

	q.stamp(&t)
	select {
	case q.ch <- t:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *InMemoryQueue) TryEnqueue(t Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}

	q.stamp(&t)
	select {
	case q.ch <- t:
		return nil
	default:
		return ErrFull
	}
}

func (q *InMemoryQueue) stamp(t *Task) {
	t.Seq = q.seq.Add(1)
	if t.EnqueuedAt.IsZero() {
		t.EnqueuedAt = time.Now()
	}
}

func (q *InMemoryQueue) Dequeue(ctx context.Context) (*Task, error) {
	select {
	case t, ok := <-q.ch:
		if !ok {
			return nil, nil
		}
		return &t, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *InMemoryQueue) Len() int {
	return len(q.ch)
}

// Close stops accepting tasks and releases producers blocked in Enqueue.
// Tasks already queued can still be dequeued.
func (q *InMemoryQueue) Close() {
	q.closeOnce.Do(func() { close(q.done) })

	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}
