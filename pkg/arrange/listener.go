package arrange

import (
	"cmp"

	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
)

// Sealed is a batch published by a writer together with the time of the capability it was
// produced at.
type Sealed[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff] struct {
	Time  T
	Batch trace.BatchReader[K, V, T, R]
}

// Event is a writer publication: the writer's new frontier, and optionally a batch.
type Event[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff] struct {
	Frontier lattice.Antichain[T]
	Data     *Sealed[K, V, T, R]
}

// Terminal reports whether the event marks the end of the trace.
func (e Event[K, V, T, R]) Terminal() bool { return len(e.Frontier) == 0 && e.Data == nil }

// Listener is a queue of writer events. Events are appended by the writer and popped by the
// reader. A reader that is no longer interested closes the listener and the writer forgets it.
type Listener[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff] struct {
	events []Event[K, V, T, R]
	closed bool
}

func (l *Listener[K, V, T, R]) push(e Event[K, V, T, R]) {
	if !l.closed {
		l.events = append(l.events, e)
	}
}

// Pop removes the oldest event.
func (l *Listener[K, V, T, R]) Pop() (Event[K, V, T, R], bool) {
	if len(l.events) == 0 {
		return Event[K, V, T, R]{}, false
	}
	e := l.events[0]
	l.events[0] = Event[K, V, T, R]{}
	l.events = l.events[1:]
	return e, true
}

// Drain removes and returns all queued events.
func (l *Listener[K, V, T, R]) Drain() []Event[K, V, T, R] {
	events := l.events
	l.events = nil
	return events
}

// Len returns the number of queued events.
func (l *Listener[K, V, T, R]) Len() int { return len(l.events) }

// Close detaches the listener from the writer and discards queued events.
func (l *Listener[K, V, T, R]) Close() {
	l.closed = true
	l.events = nil
}

// Closed reports whether the listener was closed.
func (l *Listener[K, V, T, R]) Closed() bool { return l.closed }

// listeners is the registry of listener queues, shared by a writer and its agents.
type listeners[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff] struct {
	// frontier is the frontier of the last seal.
	frontier lattice.Antichain[T]
	queues   []*Listener[K, V, T, R]
	released bool
}

func (ls *listeners[K, V, T, R]) broadcast(e Event[K, V, T, R]) {
	live := ls.queues[:0]
	for _, l := range ls.queues {
		if l.closed {
			continue
		}
		l.push(e)
		live = append(live, l)
	}
	clear(ls.queues[len(live):])
	ls.queues = live
}
