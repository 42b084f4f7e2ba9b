package arrange

import (
	"cmp"

	"github.com/go-logr/logr"

	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
)

// TraceWriter is the only handle that mutates a shared trace. It does not keep the trace alive:
// once every agent is released, seals are only published to listeners.
type TraceWriter[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff] struct {
	box       *TraceBox[K, V, T, R]
	listeners *listeners[K, V, T, R]
	log       logr.Logger
}

// Seal advances the trace to frontier. If data is given, its batch is appended to the trace;
// otherwise an empty frontier closes the trace. Every live listener receives the event.
func (w *TraceWriter[K, V, T, R]) Seal(frontier []T, data *Sealed[K, V, T, R]) {
	if w.listeners.released {
		trace.Invariantf("TraceWriter.Seal", "writer was released")
	}

	f := lattice.Antichain[T](frontier).Clone()
	w.listeners.frontier = f
	w.listeners.broadcast(Event[K, V, T, R]{Frontier: f, Data: data})

	if !w.box.Alive() {
		return
	}
	switch {
	case data != nil:
		batch, ok := data.Batch.(trace.Batch[K, V, T, R])
		if !ok {
			trace.Invariantf("TraceWriter.Seal", "sealed data is a read-only batch view")
		}
		w.log.V(2).Info("seal", "frontier", f.String(), "time", data.Time.String(),
			"description", batch.Description().String(), "len", batch.Len())
		w.box.trace.Insert(batch)
	case len(f) == 0:
		w.log.V(1).Info("seal closes trace")
		w.box.trace.Close()
	default:
		w.log.V(4).Info("seal", "frontier", f.String())
	}
}

// Frontier returns the frontier of the last seal.
func (w *TraceWriter[K, V, T, R]) Frontier() lattice.Antichain[T] { return w.listeners.frontier }

// Listeners returns the number of live listeners.
func (w *TraceWriter[K, V, T, R]) Listeners() int {
	n := 0
	for _, l := range w.listeners.queues {
		if !l.closed {
			n++
		}
	}
	return n
}

// Release tells every listener that no more data will arrive and detaches the writer. Releasing
// twice is a no-op.
func (w *TraceWriter[K, V, T, R]) Release() {
	if w.listeners.released {
		return
	}
	w.listeners.broadcast(Event[K, V, T, R]{Frontier: lattice.Antichain[T]{}})
	w.listeners.released = true
	w.listeners.queues = nil
	w.log.V(1).Info("writer released")
}

// Released reports whether the writer was released.
func (w *TraceWriter[K, V, T, R]) Released() bool { return w.listeners.released }
