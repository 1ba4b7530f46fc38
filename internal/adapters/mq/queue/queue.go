// Package queue defines the contract for handing assignment decisions to
// the asynchronous audit pipeline.
//
// Enqueueing is non-blocking: a full queue drops the hand-off rather than
// stalling the assignment request path.
package queue

import (
	"context"
	"sync"

	"github.com/okian/pitcrew/internal/domain/model"
	"github.com/okian/pitcrew/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 10000
	defaultBufferSize    = 10000
)

// Decision is the payload type flowing through the queue.
type Decision = model.AssignmentDecision

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a decision to the queue.
	// Returns false if the queue is full and the decision was not enqueued.
	Enqueue(ctx context.Context, d Decision) bool

	// Dequeue returns a channel that will receive decisions as they
	// become available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Decision

	// Len returns the current number of queued decisions.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue. After closing, no new
	// decisions can be enqueued and the dequeue channel is closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	decisions  chan Decision
	capacity   int
	bufferSize int
	mu         sync.RWMutex
	closed     bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration
// options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.decisions = make(chan Decision, q.bufferSize)

	metrics.UpdateAuditQueueCapacity(q.capacity)
	metrics.UpdateAuditQueueSize(0)

	return q
}

// Enqueue adds a decision to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, d Decision) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordAuditEnqueueError()
		metrics.RecordErrorByComponent("audit_queue", "closed")
		return false
	}

	if len(q.decisions) >= q.capacity {
		metrics.RecordAuditEnqueueError()
		metrics.RecordErrorByComponent("audit_queue", "capacity_exceeded")
		return false
	}

	select {
	case q.decisions <- d:
		metrics.RecordAuditEnqueue()
		metrics.UpdateAuditQueueSize(len(q.decisions))
		return true
	case <-ctx.Done():
		metrics.RecordAuditEnqueueError()
		metrics.RecordErrorByComponent("audit_queue", "context_cancelled")
		return false
	default:
		metrics.RecordAuditEnqueueError()
		metrics.RecordErrorByComponent("audit_queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that will receive decisions as they become
// available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Decision {
	out := make(chan Decision)
	go func() {
		defer close(out)
		for d := range q.decisions {
			select {
			case out <- d:
				metrics.RecordAuditDequeue()
				metrics.UpdateAuditQueueSize(len(q.decisions))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued decisions.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.decisions)
	metrics.UpdateAuditQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil // already closed
	}

	close(q.decisions)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
