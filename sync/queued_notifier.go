package sync

import "context"

type Token struct {
	t chan struct{}
}

// QueuedNotifier delivers every value to every registered listener. Each
// listener has its own queue, so a slow listener never blocks NotifyChange or
// other listeners. Bounded listeners lose their oldest values instead of
// growing without limit.
//
// St is a buffered channel of size one used as a mutex over the listener
// map. Tokens wrap a channel that is only ever used as a unique map key.
//
// Use Notifier instead when listeners only care about the latest value.
type QueuedNotifier[T any] struct {
	st chan map[chan struct{}]*queue[T]
}

func NewQueuedNotifier[T any]() *QueuedNotifier[T] {
	state := make(chan map[chan struct{}]*queue[T], 1)
	state <- make(map[chan struct{}]*queue[T])

	return &QueuedNotifier[T]{
		st: state,
	}
}

func (n *QueuedNotifier[T]) Register() Token {
	return n.RegisterBounded(0)
}

// RegisterBounded registers a listener whose queue keeps at most limit
// values, dropping the oldest when it overflows.
func (n *QueuedNotifier[T]) RegisterBounded(limit int) Token {
	q := NewBoundedQueue[T](limit)
	t := make(chan struct{})

	st := <-n.st
	st[t] = q
	n.st <- st

	return Token{t}
}

func (n *QueuedNotifier[T]) Unregister(t Token) {
	st := <-n.st
	delete(st, t.t)
	n.st <- st
}

func (n *QueuedNotifier[T]) NotifyChange(v T) {
	st := <-n.st
	for _, q := range st {
		q.Put(v)
	}
	n.st <- st
}

// AwaitChange returns the next value queued for t. It returns false if t is
// not registered or ctx is done.
func (n *QueuedNotifier[T]) AwaitChange(ctx context.Context, t Token) (T, bool) {
	st := <-n.st
	q := st[t.t]
	n.st <- st

	if q == nil {
		var zero T
		return zero, false
	}

	return q.Get(ctx)
}

// Dropped returns how many values were discarded from t's queue.
func (n *QueuedNotifier[T]) Dropped(t Token) int {
	st := <-n.st
	q := st[t.t]
	n.st <- st

	if q == nil {
		return 0
	}
	return q.Dropped()
}

// Listeners returns the number of registered listeners.
func (n *QueuedNotifier[T]) Listeners() int {
	st := <-n.st
	defer func() { n.st <- st }()

	return len(st)
}
