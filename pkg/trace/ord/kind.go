package ord

import (
	"cmp"

	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
)

var _ trace.Kind[int, int, lattice.Time, int] = Kind[int, int, lattice.Time, int]{}

// Kind is the trace.Kind of ord batches.
type Kind[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff] struct{}

func (Kind[K, V, T, R]) Name() string { return "ord" }

func (k Kind[K, V, T, R]) NewBatcher(id trace.BatchIdentifier) trace.Batcher[K, V, T, R] {
	return k.NewBatcherWithLower(id, []T{lattice.Minimum[T]()})
}

func (Kind[K, V, T, R]) NewBatcherWithLower(id trace.BatchIdentifier, lower []T) trace.Batcher[K, V, T, R] {
	return &Batcher[K, V, T, R]{id: id, lower: lattice.Antichain[T](lower).Clone()}
}

func (Kind[K, V, T, R]) NewBuilder(id trace.BatchIdentifier) trace.Builder[K, V, T, R] {
	return newBuilder[K, V, T, R](id)
}

func (Kind[K, V, T, R]) Empty(id trace.BatchIdentifier, lower, upper, since []T) trace.Batch[K, V, T, R] {
	return newBuilder[K, V, T, R](id).done(lower, upper, since)
}

// FromUpdates builds a batch from unordered updates, consolidating them first.
func FromUpdates[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff](id trace.BatchIdentifier, desc trace.Description[T], updates []trace.Update[K, V, T, R]) *Batch[K, V, T, R] {
	builder := newBuilder[K, V, T, R](id)
	for _, u := range trace.ConsolidateUpdates(append([]trace.Update[K, V, T, R]{}, updates...), 0) {
		builder.Push(u)
	}
	return builder.done(desc.Lower, desc.Upper, desc.Since)
}
