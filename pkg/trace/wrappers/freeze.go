package wrappers

import (
	"cmp"

	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
)

// TimeFilter maps update times for a frozen view. Returning false suppresses the update.
// Implementations must be immutable.
type TimeFilter[T lattice.Lattice[T]] interface {
	Filter(t T) (T, bool)
}

// AsOf freezes a trace at a time: updates at times less or equal to At appear at At, later
// updates are suppressed.
type AsOf[T lattice.Lattice[T]] struct {
	At T
}

func (f AsOf[T]) Filter(t T) (T, bool) {
	if t.LessEqual(f.At) {
		return f.At, true
	}
	var zero T
	return zero, false
}

var _ trace.SharedReader[int, int, lattice.Time, int] = &TraceFreeze[int, int, lattice.Time, int]{}

// TraceFreeze presents a trace whose update times are mapped through a TimeFilter. Frontiers
// pass through unchanged.
type TraceFreeze[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff] struct {
	inner  trace.TraceReader[K, V, T, R]
	filter TimeFilter[T]
}

// NewTraceFreeze wraps a trace. If the trace is a trace.SharedReader, Clone and Release are
// forwarded to it.
func NewTraceFreeze[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff](inner trace.TraceReader[K, V, T, R], filter TimeFilter[T]) *TraceFreeze[K, V, T, R] {
	return &TraceFreeze[K, V, T, R]{inner: inner, filter: filter}
}

func (t *TraceFreeze[K, V, T, R]) AdvanceBy(frontier []T)                 { t.inner.AdvanceBy(frontier) }
func (t *TraceFreeze[K, V, T, R]) AdvanceFrontier() lattice.Antichain[T]  { return t.inner.AdvanceFrontier() }
func (t *TraceFreeze[K, V, T, R]) DistinguishSince(frontier []T)          { t.inner.DistinguishSince(frontier) }
func (t *TraceFreeze[K, V, T, R]) DistinguishFrontier() lattice.Antichain[T] {
	return t.inner.DistinguishFrontier()
}

func (t *TraceFreeze[K, V, T, R]) CursorThrough(upper []T) (trace.Cursor[K, V, T, R], bool) {
	c, ok := t.inner.CursorThrough(upper)
	if !ok {
		return nil, false
	}
	return NewCursorFreeze(c, t.filter), true
}

func (t *TraceFreeze[K, V, T, R]) Cursor() trace.Cursor[K, V, T, R] {
	return NewCursorFreeze(t.inner.Cursor(), t.filter)
}

func (t *TraceFreeze[K, V, T, R]) MapBatches(f func(trace.BatchReader[K, V, T, R])) {
	t.inner.MapBatches(func(b trace.BatchReader[K, V, T, R]) {
		f(NewBatchFreeze(b, t.filter))
	})
}

func (t *TraceFreeze[K, V, T, R]) Clone() trace.SharedReader[K, V, T, R] {
	if s, ok := t.inner.(trace.SharedReader[K, V, T, R]); ok {
		return NewTraceFreeze[K, V, T, R](s.Clone(), t.filter)
	}
	return NewTraceFreeze(t.inner, t.filter)
}

func (t *TraceFreeze[K, V, T, R]) Release() {
	if s, ok := t.inner.(trace.SharedReader[K, V, T, R]); ok {
		s.Release()
	}
}

// BatchFreeze presents a batch whose update times are mapped through a TimeFilter.
type BatchFreeze[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff] struct {
	trace.BatchReader[K, V, T, R]
	filter TimeFilter[T]
}

func NewBatchFreeze[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff](batch trace.BatchReader[K, V, T, R], filter TimeFilter[T]) *BatchFreeze[K, V, T, R] {
	return &BatchFreeze[K, V, T, R]{BatchReader: batch, filter: filter}
}

func (b *BatchFreeze[K, V, T, R]) Cursor() trace.Cursor[K, V, T, R] {
	return NewCursorFreeze(b.BatchReader.Cursor(), b.filter)
}

// CursorFreeze presents a cursor whose update times are mapped through a TimeFilter.
type CursorFreeze[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff] struct {
	trace.Cursor[K, V, T, R]
	filter TimeFilter[T]
}

func NewCursorFreeze[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff](cursor trace.Cursor[K, V, T, R], filter TimeFilter[T]) *CursorFreeze[K, V, T, R] {
	return &CursorFreeze[K, V, T, R]{Cursor: cursor, filter: filter}
}

func (c *CursorFreeze[K, V, T, R]) MapTimes(logic func(T, R)) {
	c.Cursor.MapTimes(func(t T, r R) {
		if ft, ok := c.filter.Filter(t); ok {
			logic(ft, r)
		}
	})
}
