package ord

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
)

var _ trace.Batch[int, int, lattice.Time, int] = &Batch[int, int, lattice.Time, int]{}

// Batch stores updates in sorted key, value and (time, diff) columns. The updates of the i-th
// key are the values vals[keyOffs[i]:keyOffs[i+1]], and the (time, diff) pairs of the j-th value
// are updates[valOffs[j]:valOffs[j+1]].
type Batch[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff] struct {
	id      trace.BatchIdentifier
	desc    trace.Description[T]
	keys    []K
	keyOffs []int
	vals    []V
	valOffs []int
	updates []trace.Pair[T, R]
}

func (b *Batch[K, V, T, R]) Cursor() trace.Cursor[K, V, T, R] {
	return &Cursor[K, V, T, R]{batch: b}
}

func (b *Batch[K, V, T, R]) Len() int                              { return len(b.updates) }
func (b *Batch[K, V, T, R]) Description() trace.Description[T]     { return b.desc }
func (b *Batch[K, V, T, R]) Identifier() trace.BatchIdentifier     { return b.id }
func (b *Batch[K, V, T, R]) Lower() lattice.Antichain[T]           { return b.desc.Lower }
func (b *Batch[K, V, T, R]) Upper() lattice.Antichain[T]           { return b.desc.Upper }
func (b *Batch[K, V, T, R]) String() string                        { return fmt.Sprintf("ord.Batch%s", b.desc) }
func (b *Batch[K, V, T, R]) keyRange(k int) (int, int)             { return b.keyOffs[k], b.keyOffs[k+1] }
func (b *Batch[K, V, T, R]) valRange(v int) []trace.Pair[T, R]     { return b.updates[b.valOffs[v]:b.valOffs[v+1]] }

// BeginMerge starts a merge with the batch that follows the receiver. The other batch must be an
// ord batch.
func (b *Batch[K, V, T, R]) BeginMerge(other trace.Batch[K, V, T, R]) trace.Merger[K, V, T, R] {
	o, ok := other.(*Batch[K, V, T, R])
	if !ok {
		trace.Invariantf("ord.Batch.BeginMerge", "cannot merge with batch of type %T", other)
	}
	if !lattice.Equal(b.desc.Upper, o.desc.Lower) {
		trace.Invariantf("ord.Batch.BeginMerge", "upper %s of batch does not match lower %s of next batch",
			b.desc.Upper, o.desc.Lower)
	}
	return &Merger[K, V, T, R]{
		a:       b,
		b:       o,
		builder: newBuilder[K, V, T, R](b.id),
	}
}

// AdvanceBy returns a batch whose times are advanced by frontier and consolidated. The since
// frontier of the result is frontier.
func (b *Batch[K, V, T, R]) AdvanceBy(frontier []T) trace.Batch[K, V, T, R] {
	builder := newBuilder[K, V, T, R](b.id)
	var scratch []trace.Pair[T, R]
	for k := range b.keys {
		lo, hi := b.keyRange(k)
		for v := lo; v < hi; v++ {
			scratch = append(scratch[:0], b.valRange(v)...)
			scratch = advance(scratch, frontier)
			builder.pushTimes(b.keys[k], b.vals[v], scratch)
		}
	}
	return builder.done(b.desc.Lower, b.desc.Upper, frontier)
}

// advance advances times by the frontier and consolidates them.
func advance[T lattice.Lattice[T], R trace.Diff](times []trace.Pair[T, R], frontier []T) []trace.Pair[T, R] {
	if len(frontier) > 0 {
		for i := range times {
			times[i].Data = lattice.AdvanceBy(times[i].Data, frontier)
		}
	}
	return trace.ConsolidateFunc(times, 0, func(a, b T) int { return a.Cmp(b) })
}

// Cursor navigates a Batch.
type Cursor[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff] struct {
	batch    *Batch[K, V, T, R]
	key, val int
}

func (c *Cursor[K, V, T, R]) KeyValid() bool { return c.key < len(c.batch.keys) }

func (c *Cursor[K, V, T, R]) ValValid() bool {
	return c.KeyValid() && c.val < c.batch.keyOffs[c.key+1]
}

func (c *Cursor[K, V, T, R]) Key() K { return c.batch.keys[c.key] }
func (c *Cursor[K, V, T, R]) Val() V { return c.batch.vals[c.val] }

func (c *Cursor[K, V, T, R]) MapTimes(logic func(T, R)) {
	for _, u := range c.batch.valRange(c.val) {
		logic(u.Data, u.Diff)
	}
}

func (c *Cursor[K, V, T, R]) StepKey() {
	if c.KeyValid() {
		c.key++
		c.RewindVals()
	}
}

func (c *Cursor[K, V, T, R]) SeekKey(key K) {
	pos, _ := slices.BinarySearch(c.batch.keys[c.key:], key)
	if pos > 0 {
		c.key += pos
		c.RewindVals()
	}
}

func (c *Cursor[K, V, T, R]) StepVal() {
	if c.ValValid() {
		c.val++
	}
}

func (c *Cursor[K, V, T, R]) SeekVal(val V) {
	if !c.ValValid() {
		return
	}
	_, hi := c.batch.keyRange(c.key)
	pos, _ := slices.BinarySearch(c.batch.vals[c.val:hi], val)
	c.val += pos
}

func (c *Cursor[K, V, T, R]) RewindKeys() {
	c.key = 0
	c.RewindVals()
}

func (c *Cursor[K, V, T, R]) RewindVals() {
	if c.KeyValid() {
		c.val = c.batch.keyOffs[c.key]
	}
}
