package arrange

import (
	"cmp"

	"github.com/l7mp/ddflow/pkg/dataflow"
	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
	"github.com/l7mp/ddflow/pkg/trace/wrappers"
)

// Arranged is a stream of batches paired with a reader of the trace they form. The trace is
// complete for every time the stream frontier has passed.
type Arranged[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff] struct {
	Stream dataflow.Stream[T, trace.BatchReader[K, V, T, R]]
	Trace  trace.SharedReader[K, V, T, R]
	agent  *TraceAgent[K, V, T, R]
}

func newArranged[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff](stream dataflow.Stream[T, trace.BatchReader[K, V, T, R]], agent *TraceAgent[K, V, T, R]) *Arranged[K, V, T, R] {
	return &Arranged[K, V, T, R]{Stream: stream, Trace: agent, agent: agent}
}

// Agent returns the trace agent of an arrangement produced by Arrange or Import, nil for wrapped
// arrangements.
func (a *Arranged[K, V, T, R]) Agent() *TraceAgent[K, V, T, R] { return a.agent }

// Clone returns an arrangement over the same stream with a cloned trace reader.
func (a *Arranged[K, V, T, R]) Clone() *Arranged[K, V, T, R] {
	if a.agent != nil {
		return newArranged(a.Stream, a.agent.CloneAgent())
	}
	return &Arranged[K, V, T, R]{Stream: a.Stream, Trace: a.Trace.Clone()}
}

// Release releases the trace reader.
func (a *Arranged[K, V, T, R]) Release() { a.Trace.Release() }

// Enter brings an arrangement into a nested child scope. Neither the batches nor the trace are
// copied: times are refined as they are read.
func Enter[K, V cmp.Ordered, TO lattice.Lattice[TO], TI lattice.Lattice[TI], R trace.Diff](a *Arranged[K, V, TO, R], child *dataflow.Scope[TI], refinement lattice.Refinement[TO, TI]) *Arranged[K, V, TI, R] {
	entered := dataflow.Enter(a.Stream, child, refinement)
	stream := dataflow.Map(entered, "EnterBatches", func(b trace.BatchReader[K, V, TO, R]) trace.BatchReader[K, V, TI, R] {
		return wrappers.NewBatchEnter(b, refinement)
	})
	return &Arranged[K, V, TI, R]{
		Stream: stream,
		Trace:  wrappers.NewTraceEnter[K, V, TO, TI, R](a.Trace.Clone(), refinement),
	}
}

// Freeze presents an arrangement with update times mapped through a filter. Suppressed updates
// are invisible, frontiers are passed through unchanged.
func Freeze[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff](a *Arranged[K, V, T, R], filter wrappers.TimeFilter[T]) *Arranged[K, V, T, R] {
	stream := dataflow.Map(a.Stream, "FreezeBatches", func(b trace.BatchReader[K, V, T, R]) trace.BatchReader[K, V, T, R] {
		return wrappers.NewBatchFreeze(b, filter)
	})
	return &Arranged[K, V, T, R]{
		Stream: stream,
		Trace:  wrappers.NewTraceFreeze[K, V, T, R](a.Trace.Clone(), filter),
	}
}

// AsCollection flattens the batches of an arrangement back into a stream of updates.
func AsCollection[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff](a *Arranged[K, V, T, R]) dataflow.Stream[T, trace.Update[K, V, T, R]] {
	return FlatMap(a, func(key K, val V, emit func(K, V)) { emit(key, val) })
}

// FlatMap maps every (key, value) pair of the batches of an arrangement to zero or more pairs,
// keeping the times and diffs of the updates.
func FlatMap[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff, K2, V2 cmp.Ordered](a *Arranged[K, V, T, R], logic func(key K, val V, emit func(K2, V2))) dataflow.Stream[T, trace.Update[K2, V2, T, R]] {
	return dataflow.Unary(a.Stream, "FlatMapBatches", func(c *dataflow.Capability[T], _ dataflow.OperatorInfo) func(*dataflow.InputPort[T, trace.BatchReader[K, V, T, R]], *dataflow.OutputPort[T, trace.Update[K2, V2, T, R]]) {
		c.Drop()
		var (
			buffer []trace.Update[K2, V2, T, R]
			pairs  []keyVal[K2, V2]
		)
		return func(in *dataflow.InputPort[T, trace.BatchReader[K, V, T, R]], out *dataflow.OutputPort[T, trace.Update[K2, V2, T, R]]) {
			in.ForEach(func(ic *dataflow.InputCapability[T], batches []trace.BatchReader[K, V, T, R]) {
				buffer = buffer[:0]
				for _, b := range batches {
					cursor := b.Cursor()
					for ; cursor.KeyValid(); cursor.StepKey() {
						for ; cursor.ValValid(); cursor.StepVal() {
							pairs = pairs[:0]
							logic(cursor.Key(), cursor.Val(), func(k K2, v V2) {
								pairs = append(pairs, keyVal[K2, V2]{key: k, val: v})
							})
							if len(pairs) == 0 {
								continue
							}
							cursor.MapTimes(func(t T, r R) {
								for _, p := range pairs {
									buffer = append(buffer, trace.Update[K2, V2, T, R]{Key: p.key, Val: p.val, Time: t, Diff: r})
								}
							})
						}
					}
				}
				out.Session(ic).GiveSlice(buffer)
			})
		}
	})
}

type keyVal[K, V any] struct {
	key K
	val V
}
