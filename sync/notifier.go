package sync

import "context"

// Adapted from the slides for "Rethinking Classical Concurrency Patterns" by Bryan C. Mills.

type state[T any] struct {
	seq     int64
	value   T
	changed chan struct{} // closed upon notify
}

// Notifier broadcasts the latest value of something to any number of
// listeners. Listeners always see the most recent value, but if you spend too
// long between calls to AwaitChange you can miss intermediate ones.
//
// Calling AwaitChange with an out of date sequence number returns the latest
// value immediately, so if you've missed two notifications you'll only be
// notified once.
type Notifier[T any] struct {
	st chan state[T]
}

func NewNotifier[T any]() *Notifier[T] {
	st := make(chan state[T], 1)
	st <- state[T]{
		seq:     0,
		changed: make(chan struct{}),
	}
	return &Notifier[T]{st: st}
}

// NotifyChange publishes v and returns its sequence number.
func (n *Notifier[T]) NotifyChange(v T) int64 {
	st := <-n.st
	close(st.changed)
	next := state[T]{
		seq:     st.seq + 1,
		value:   v,
		changed: make(chan struct{}),
	}
	n.st <- next

	return next.seq
}

// LastChange returns the current value and its sequence number. Before the
// first notification the sequence number is 0 and the value is T's zero value.
func (n *Notifier[T]) LastChange() (T, int64) {
	st := <-n.st
	n.st <- st

	return st.value, st.seq
}

// AwaitChange blocks until there is a value newer than seq, or ctx is done.
// If you call it with a wrong seq, it'll immediately return the current value.
// On cancellation it returns the value it already had and the same seq.
func (n *Notifier[T]) AwaitChange(ctx context.Context, seq int64) (T, int64) {
	st := <-n.st
	n.st <- st

	if st.seq != seq {
		return st.value, st.seq
	}

	select {
	case <-ctx.Done():
		return st.value, seq
	case <-st.changed:
		return n.LastChange()
	}
}
