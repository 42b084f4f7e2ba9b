package wrappers

import (
	"cmp"

	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
)

var _ trace.SharedReader[int, int, lattice.Product[lattice.Time, lattice.Time], int] = &TraceEnter[int, int, lattice.Time, lattice.Product[lattice.Time, lattice.Time], int]{}

// TraceEnter presents a trace over outer times TO as a trace over inner times TI.
type TraceEnter[K, V cmp.Ordered, TO lattice.Lattice[TO], TI lattice.Lattice[TI], R trace.Diff] struct {
	inner      trace.TraceReader[K, V, TO, R]
	refinement lattice.Refinement[TO, TI]
}

// NewTraceEnter wraps a trace. If the trace is a trace.SharedReader, Clone and Release are
// forwarded to it.
func NewTraceEnter[K, V cmp.Ordered, TO lattice.Lattice[TO], TI lattice.Lattice[TI], R trace.Diff](inner trace.TraceReader[K, V, TO, R], refinement lattice.Refinement[TO, TI]) *TraceEnter[K, V, TO, TI, R] {
	return &TraceEnter[K, V, TO, TI, R]{inner: inner, refinement: refinement}
}

func (t *TraceEnter[K, V, TO, TI, R]) AdvanceBy(frontier []TI) {
	t.inner.AdvanceBy(lattice.ToOuterFrontier(t.refinement, frontier))
}

func (t *TraceEnter[K, V, TO, TI, R]) AdvanceFrontier() lattice.Antichain[TI] {
	return lattice.ToInnerFrontier(t.refinement, t.inner.AdvanceFrontier())
}

func (t *TraceEnter[K, V, TO, TI, R]) DistinguishSince(frontier []TI) {
	t.inner.DistinguishSince(lattice.ToOuterFrontier(t.refinement, frontier))
}

func (t *TraceEnter[K, V, TO, TI, R]) DistinguishFrontier() lattice.Antichain[TI] {
	return lattice.ToInnerFrontier(t.refinement, t.inner.DistinguishFrontier())
}

func (t *TraceEnter[K, V, TO, TI, R]) CursorThrough(upper []TI) (trace.Cursor[K, V, TI, R], bool) {
	c, ok := t.inner.CursorThrough(lattice.ToOuterFrontier(t.refinement, upper))
	if !ok {
		return nil, false
	}
	return NewCursorEnter(c, t.refinement), true
}

func (t *TraceEnter[K, V, TO, TI, R]) Cursor() trace.Cursor[K, V, TI, R] {
	return NewCursorEnter(t.inner.Cursor(), t.refinement)
}

func (t *TraceEnter[K, V, TO, TI, R]) MapBatches(f func(trace.BatchReader[K, V, TI, R])) {
	t.inner.MapBatches(func(b trace.BatchReader[K, V, TO, R]) {
		f(NewBatchEnter(b, t.refinement))
	})
}

func (t *TraceEnter[K, V, TO, TI, R]) Clone() trace.SharedReader[K, V, TI, R] {
	if s, ok := t.inner.(trace.SharedReader[K, V, TO, R]); ok {
		return NewTraceEnter[K, V, TO, TI, R](s.Clone(), t.refinement)
	}
	return NewTraceEnter(t.inner, t.refinement)
}

func (t *TraceEnter[K, V, TO, TI, R]) Release() {
	if s, ok := t.inner.(trace.SharedReader[K, V, TO, R]); ok {
		s.Release()
	}
}

// BatchEnter presents a batch over outer times as a batch over inner times.
type BatchEnter[K, V cmp.Ordered, TO lattice.Lattice[TO], TI lattice.Lattice[TI], R trace.Diff] struct {
	batch      trace.BatchReader[K, V, TO, R]
	refinement lattice.Refinement[TO, TI]
	desc       trace.Description[TI]
}

func NewBatchEnter[K, V cmp.Ordered, TO lattice.Lattice[TO], TI lattice.Lattice[TI], R trace.Diff](batch trace.BatchReader[K, V, TO, R], refinement lattice.Refinement[TO, TI]) *BatchEnter[K, V, TO, TI, R] {
	d := batch.Description()
	return &BatchEnter[K, V, TO, TI, R]{
		batch:      batch,
		refinement: refinement,
		desc: trace.Description[TI]{
			Lower: lattice.ToInnerFrontier(refinement, d.Lower),
			Upper: lattice.ToInnerFrontier(refinement, d.Upper),
			Since: lattice.ToInnerFrontier(refinement, d.Since),
		},
	}
}

func (b *BatchEnter[K, V, TO, TI, R]) Cursor() trace.Cursor[K, V, TI, R] {
	return NewCursorEnter(b.batch.Cursor(), b.refinement)
}

func (b *BatchEnter[K, V, TO, TI, R]) Len() int                             { return b.batch.Len() }
func (b *BatchEnter[K, V, TO, TI, R]) Description() trace.Description[TI]   { return b.desc }
func (b *BatchEnter[K, V, TO, TI, R]) Identifier() trace.BatchIdentifier    { return b.batch.Identifier() }
func (b *BatchEnter[K, V, TO, TI, R]) Lower() lattice.Antichain[TI]         { return b.desc.Lower }
func (b *BatchEnter[K, V, TO, TI, R]) Upper() lattice.Antichain[TI]         { return b.desc.Upper }
func (b *BatchEnter[K, V, TO, TI, R]) Inner() trace.BatchReader[K, V, TO, R] { return b.batch }

// CursorEnter presents a cursor over outer times as a cursor over inner times.
type CursorEnter[K, V cmp.Ordered, TO lattice.Lattice[TO], TI lattice.Lattice[TI], R trace.Diff] struct {
	trace.Cursor[K, V, TO, R]
	refinement lattice.Refinement[TO, TI]
}

func NewCursorEnter[K, V cmp.Ordered, TO lattice.Lattice[TO], TI lattice.Lattice[TI], R trace.Diff](cursor trace.Cursor[K, V, TO, R], refinement lattice.Refinement[TO, TI]) *CursorEnter[K, V, TO, TI, R] {
	return &CursorEnter[K, V, TO, TI, R]{Cursor: cursor, refinement: refinement}
}

func (c *CursorEnter[K, V, TO, TI, R]) MapTimes(logic func(TI, R)) {
	c.Cursor.MapTimes(func(t TO, r R) { logic(c.refinement.ToInner(t), r) })
}
