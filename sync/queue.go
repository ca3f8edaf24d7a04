package sync

import (
	"context"
)

// Adapted from the slides for "Rethinking Classical Concurrency Patterns" by Bryan C. Mills.

type backlog[T any] struct {
	items   []T
	dropped int
}

// queue is a FIFO whose state lives in one of two channels: items holds a
// non-empty backlog, empty holds a backlog with no items (it may still carry a
// drop count). Exactly one of them is full at any time.
type queue[T any] struct {
	items chan backlog[T]
	empty chan backlog[T]
	limit int
}

// NewQueue returns an unbounded queue.
func NewQueue[T any]() *queue[T] {
	return NewBoundedQueue[T](0)
}

// NewBoundedQueue returns a queue holding at most limit items. When full,
// Put discards the oldest item. A limit of zero or less means unbounded.
func NewBoundedQueue[T any](limit int) *queue[T] {
	q := &queue[T]{
		items: make(chan backlog[T], 1),
		empty: make(chan backlog[T], 1),
		limit: limit,
	}
	q.empty <- backlog[T]{}
	return q
}

func (q *queue[T]) take() backlog[T] {
	select {
	case b := <-q.items:
		return b
	case b := <-q.empty:
		return b
	}
}

func (q *queue[T]) give(b backlog[T]) {
	if len(b.items) == 0 {
		q.empty <- b
	} else {
		q.items <- b
	}
}

func (q *queue[T]) Put(item T) {
	b := q.take()
	if q.limit > 0 && len(b.items) >= q.limit {
		var zero T
		b.items[0] = zero
		b.items = b.items[1:]
		b.dropped++
	}
	b.items = append(b.items, item)
	q.give(b)
}

// Get blocks until an item is available. It returns false if ctx is done
// first.
func (q *queue[T]) Get(ctx context.Context) (T, bool) {
	var b backlog[T]
	select {
	case <-ctx.Done():
		var zero T
		return zero, false
	case b = <-q.items:
	}

	item := b.items[0]
	b.items = b.items[1:]
	q.give(b)

	return item, true
}

// Len returns the number of queued items.
func (q *queue[T]) Len() int {
	b := q.take()
	defer q.give(b)
	return len(b.items)
}

// Dropped returns how many items were discarded because the queue was full.
func (q *queue[T]) Dropped() int {
	b := q.take()
	defer q.give(b)
	return b.dropped
}
