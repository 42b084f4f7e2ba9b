package ord

import (
	"cmp"
	"slices"

	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
)

// Builder assembles a Batch from updates pushed in (key, value, time) order.
type Builder[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff] struct {
	batch *Batch[K, V, T, R]
}

func newBuilder[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff](id trace.BatchIdentifier) *Builder[K, V, T, R] {
	return &Builder[K, V, T, R]{batch: &Batch[K, V, T, R]{id: id}}
}

// Push appends an update. Updates must arrive sorted by key, then value.
func (b *Builder[K, V, T, R]) Push(u trace.Update[K, V, T, R]) {
	b.pushTimes(u.Key, u.Val, []trace.Pair[T, R]{{Data: u.Time, Diff: u.Diff}})
}

func (b *Builder[K, V, T, R]) pushTimes(key K, val V, times []trace.Pair[T, R]) {
	if len(times) == 0 {
		return
	}
	batch := b.batch
	newKey := len(batch.keys) == 0 || batch.keys[len(batch.keys)-1] != key
	if newKey {
		batch.keys = append(batch.keys, key)
		batch.keyOffs = append(batch.keyOffs, len(batch.vals))
	}
	if newKey || batch.vals[len(batch.vals)-1] != val {
		batch.vals = append(batch.vals, val)
		batch.valOffs = append(batch.valOffs, len(batch.updates))
	}
	batch.updates = append(batch.updates, times...)
}

func (b *Builder[K, V, T, R]) Done(lower, upper, since []T) trace.Batch[K, V, T, R] {
	return b.done(lower, upper, since)
}

func (b *Builder[K, V, T, R]) done(lower, upper, since []T) *Batch[K, V, T, R] {
	batch := b.batch
	batch.keyOffs = append(batch.keyOffs, len(batch.vals))
	batch.valOffs = append(batch.valOffs, len(batch.updates))
	batch.desc = trace.NewDescription(lower, upper, since)
	b.batch = &Batch[K, V, T, R]{id: batch.id}
	return batch
}

// Batcher accumulates unordered updates and seals them into batches.
type Batcher[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff] struct {
	id      trace.BatchIdentifier
	lower   lattice.Antichain[T]
	pending []trace.Update[K, V, T, R]
}

func (b *Batcher[K, V, T, R]) PushBatch(updates []trace.Update[K, V, T, R]) {
	b.pending = append(b.pending, updates...)
}

// Seal extracts the pending updates whose time is not greater or equal to any element of upper.
func (b *Batcher[K, V, T, R]) Seal(upper []T) trace.Batch[K, V, T, R] {
	b.pending = trace.ConsolidateUpdates(b.pending, 0)
	builder := newBuilder[K, V, T, R](b.id)
	frontier := lattice.Antichain[T](upper)
	kept := 0
	for _, u := range b.pending {
		if frontier.LessEqual(u.Time) {
			b.pending[kept] = u
			kept++
			continue
		}
		builder.Push(u)
	}
	clear(b.pending[kept:])
	b.pending = b.pending[:kept]

	batch := builder.done(b.lower, upper, []T{lattice.Minimum[T]()})
	b.lower = frontier.Clone()
	return batch
}

func (b *Batcher[K, V, T, R]) Lower() lattice.Antichain[T] { return b.lower }

func (b *Batcher[K, V, T, R]) Frontier() lattice.Antichain[T] {
	f := lattice.Antichain[T]{}
	for _, u := range b.pending {
		f = f.Insert(u.Time)
	}
	slices.SortFunc(f, func(x, y T) int { return x.Cmp(y) })
	return f
}

// Pending returns the number of updates not yet sealed.
func (b *Batcher[K, V, T, R]) Pending() int { return len(b.pending) }
