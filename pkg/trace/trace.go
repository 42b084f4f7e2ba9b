package trace

import (
	"cmp"

	"github.com/l7mp/ddflow/pkg/lattice"
)

// TraceReader is read access to a trace.
type TraceReader[K, V cmp.Ordered, T lattice.Lattice[T], R Diff] interface {
	// AdvanceBy declares that the reader no longer distinguishes times that are not greater or
	// equal to some element of frontier.
	AdvanceBy(frontier []T)
	AdvanceFrontier() lattice.Antichain[T]
	// DistinguishSince declares that the reader no longer requires cursors through boundaries
	// that are not greater or equal to some element of frontier. An empty frontier permits
	// unrestricted merging.
	DistinguishSince(frontier []T)
	DistinguishFrontier() lattice.Antichain[T]
	// CursorThrough returns a cursor over the batches up to upper, provided that upper is a
	// batch boundary of the trace. The empty frontier selects every batch.
	CursorThrough(upper []T) (Cursor[K, V, T, R], bool)
	// Cursor returns a cursor over the entire trace.
	Cursor() Cursor[K, V, T, R]
	// MapBatches calls f with each physical batch, in order.
	MapBatches(f func(BatchReader[K, V, T, R]))
}

// Trace is a trace that accepts new batches. Only the owner of a trace may mutate it.
type Trace[K, V cmp.Ordered, T lattice.Lattice[T], R Diff] interface {
	TraceReader[K, V, T, R]
	// Insert appends a batch. The lower of the batch must equal Upper().
	Insert(batch Batch[K, V, T, R])
	// Close inserts an empty batch with an empty upper. No further batches may be inserted.
	Close()
	// Upper is the upper frontier of the last batch.
	Upper() lattice.Antichain[T]
}

// SharedReader is a reader handle to a trace that may be shared. Clone returns an independent
// handle holding the same frontiers; Release drops the handle's holds and must be called exactly
// once per handle.
type SharedReader[K, V cmp.Ordered, T lattice.Lattice[T], R Diff] interface {
	TraceReader[K, V, T, R]
	Clone() SharedReader[K, V, T, R]
	Release()
}
