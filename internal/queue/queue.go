package queue

import (
	"sync"
)

// Queue is a generic thread-safe FIFO used to batch writes.
// A bounded queue drops its oldest items once full.
type Queue[T any] struct {
	mu      sync.Mutex
	items   []T
	limit   int
	dropped uint64
}

// New creates a new empty, unbounded queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		items: make([]T, 0),
	}
}

// NewBounded creates a queue holding at most limit items.
func NewBounded[T any](limit int) *Queue[T] {
	q := New[T]()
	if limit > 0 {
		q.limit = limit
	}
	return q
}

// Push appends items to the queue.
func (q *Queue[T]) Push(items ...T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
	q.trimLocked()
}

// Requeue puts items back at the front, ahead of anything pushed since they
// were drained.
func (q *Queue[T]) Requeue(items ...T) {
	if len(items) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	merged := make([]T, 0, len(items)+len(q.items))
	merged = append(merged, items...)
	q.items = append(merged, q.items...)
	q.trimLocked()
}

// Empty returns true if the queue has no items.
func (q *Queue[T]) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// Len returns the number of items in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped returns how many items were discarded because the queue was full.
func (q *Queue[T]) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Drain returns all items and clears the queue.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	result := q.items
	q.items = make([]T, 0, cap(q.items))
	return result
}

func (q *Queue[T]) trimLocked() {
	if q.limit == 0 || len(q.items) <= q.limit {
		return
	}
	over := len(q.items) - q.limit
	q.dropped += uint64(over)
	q.items = append(q.items[:0:0], q.items[over:]...)
}
