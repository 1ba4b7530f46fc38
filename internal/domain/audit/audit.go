// Package audit keeps a bounded record of produced assignment decisions.
// Decisions are immutable once recorded; the trail exists so operators can
// reconstruct why a technician was chosen.
package audit

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/pitcrew/internal/domain/model"
)

// Trail records assignment decisions for later inspection.
type Trail interface {
	// Record stores a decision. At capacity the oldest decision is
	// evicted.
	Record(ctx context.Context, d model.AssignmentDecision)

	// Get returns a recorded decision by id.
	Get(ctx context.Context, id string) (model.AssignmentDecision, bool)

	// Recent returns up to n decisions, newest first.
	Recent(ctx context.Context, n int) []model.AssignmentDecision

	Size() int64
}

// node is a single entry in the recency list.
type node struct {
	decision model.AssignmentDecision
	next     *node
}

// reset clears the node state for reuse.
func (n *node) reset() {
	n.decision = model.AssignmentDecision{}
	n.next = nil
}

// memoryTrail implements Trail using a map plus a singly linked recency
// list, newest at the head. Bounded mode (maxSize > 0) evicts from the
// tail and recycles nodes through a sync.Pool; maxSize <= 0 keeps
// everything.
type memoryTrail struct {
	mu       sync.RWMutex
	byID     map[string]*node
	head     *node
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewMemoryTrail creates an in-memory audit trail with configuration
// options.
func NewMemoryTrail(opts ...Option) Trail {
	t := &memoryTrail{
		maxSize: 10000, // default retained decisions
	}

	for _, opt := range opts {
		opt(t)
	}

	t.byID = make(map[string]*node)
	if t.maxSize > 0 {
		t.nodePool = sync.Pool{
			New: func() interface{} {
				return &node{}
			},
		}
	}

	return t
}

// Record stores a decision, evicting the oldest when at capacity.
// Re-recording an id overwrites the stored decision in place.
func (t *memoryTrail) Record(ctx context.Context, d model.AssignmentDecision) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.byID[d.ID]; ok {
		existing.decision = d
		return
	}

	if t.maxSize > 0 && len(t.byID) >= t.maxSize {
		t.evictOldest()
	}

	var n *node
	if t.maxSize > 0 {
		n = t.nodePool.Get().(*node)
	} else {
		n = &node{}
	}
	n.decision = d
	n.next = t.head

	t.head = n
	t.byID[d.ID] = n
	t.size.Add(1)
}

// Get returns a recorded decision by id.
func (t *memoryTrail) Get(ctx context.Context, id string) (model.AssignmentDecision, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n, ok := t.byID[id]
	if !ok {
		return model.AssignmentDecision{}, false
	}
	return n.decision, true
}

// Recent returns up to n decisions, newest first.
func (t *memoryTrail) Recent(ctx context.Context, n int) []model.AssignmentDecision {
	if n < 1 {
		return nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]model.AssignmentDecision, 0, n)
	for cur := t.head; cur != nil && len(out) < n; cur = cur.next {
		out = append(out, cur.decision)
	}
	return out
}

// evictOldest removes the tail of the recency list. Must be called with
// t.mu held.
func (t *memoryTrail) evictOldest() {
	if t.head == nil {
		return
	}

	// Single entry: drop the head itself.
	if t.head.next == nil {
		delete(t.byID, t.head.decision.ID)
		t.recycle(t.head)
		t.head = nil
		t.size.Add(-1)
		return
	}

	// Walk to the second-to-last node and detach the tail.
	prev := t.head
	for prev.next.next != nil {
		prev = prev.next
	}
	tail := prev.next
	prev.next = nil
	delete(t.byID, tail.decision.ID)
	t.recycle(tail)
	t.size.Add(-1)
}

// recycle returns a node to the pool in bounded mode.
func (t *memoryTrail) recycle(n *node) {
	n.reset()
	if t.maxSize > 0 {
		t.nodePool.Put(n)
	}
}

// Size returns the number of retained decisions.
func (t *memoryTrail) Size() int64 {
	return t.size.Load()
}
