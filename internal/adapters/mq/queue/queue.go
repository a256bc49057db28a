// Package queue carries completed session results from the ledger to the
// workers that fold them into player records.
package queue

import (
	"context"
	"sync"

	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Result is the payload flowing through the queue.
type Result = model.Result

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue returns ErrFull or ErrClosed when the result was not queued.
	Enqueue(ctx context.Context, r Result) error

	// Dequeue returns a channel of results. It is closed once the queue is
	// closed and drained, or when ctx ends.
	Dequeue(ctx context.Context) <-chan Result

	Len() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue on a buffered channel.
type InMemoryQueue struct {
	results  chan Result
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.results = make(chan Result, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a result without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Result) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}

	select {
	case q.results <- r:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.results))
		return nil
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return ctx.Err()
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns a channel that receives results as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)
		for r := range q.results {
			select {
			case out <- r:
				metrics.RecordQueueDequeue()
				metrics.UpdateQueueSize(len(q.results))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the number of pending results.
func (q *InMemoryQueue) Len() int {
	return len(q.results)
}

// Close stops accepting results. Pending results are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.results)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
