package ord

import (
	"cmp"

	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
)

// Merger merges two consecutive ord batches one key at a time. Each update read from the inputs
// costs one unit of fuel.
type Merger[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff] struct {
	a, b    *Batch[K, V, T, R]
	ka, kb  int
	builder *Builder[K, V, T, R]
	since   lattice.Antichain[T]
	scratch []trace.Pair[T, R]
	result  *Batch[K, V, T, R]
}

func (m *Merger[K, V, T, R]) Work(frontier []T, fuel *int) trace.MergeStatus {
	if m.result != nil {
		return trace.MergeDone
	}
	if m.since == nil {
		// every key of the merge is advanced by the frontier of the first call
		m.since = lattice.Antichain[T](frontier).Clone()
	}

	for m.ka < len(m.a.keys) || m.kb < len(m.b.keys) {
		if *fuel <= 0 {
			return trace.MergeInProgress
		}
		switch {
		case m.kb >= len(m.b.keys):
			*fuel -= m.mergeKey(m.a, m.ka, nil, 0, m.since)
			m.ka++
		case m.ka >= len(m.a.keys):
			*fuel -= m.mergeKey(nil, 0, m.b, m.kb, m.since)
			m.kb++
		default:
			switch c := cmp.Compare(m.a.keys[m.ka], m.b.keys[m.kb]); {
			case c < 0:
				*fuel -= m.mergeKey(m.a, m.ka, nil, 0, m.since)
				m.ka++
			case c > 0:
				*fuel -= m.mergeKey(nil, 0, m.b, m.kb, m.since)
				m.kb++
			default:
				*fuel -= m.mergeKey(m.a, m.ka, m.b, m.kb, m.since)
				m.ka++
				m.kb++
			}
		}
	}

	m.result = m.builder.done(m.a.desc.Lower, m.b.desc.Upper, m.since)
	m.a, m.b, m.scratch = nil, nil, nil
	return trace.MergeDone
}

// mergeKey merges the values of one key, present in a, b or both, and returns the number of
// updates read.
func (m *Merger[K, V, T, R]) mergeKey(a *Batch[K, V, T, R], ka int, b *Batch[K, V, T, R], kb int, frontier []T) int {
	var key K
	va, ea, vb, eb := 0, 0, 0, 0
	if a != nil {
		key = a.keys[ka]
		va, ea = a.keyRange(ka)
	}
	if b != nil {
		key = b.keys[kb]
		vb, eb = b.keyRange(kb)
	}

	work := 0
	for va < ea || vb < eb {
		m.scratch = m.scratch[:0]
		var val V
		switch {
		case vb >= eb || (va < ea && a.vals[va] < b.vals[vb]):
			val = a.vals[va]
			m.scratch = append(m.scratch, a.valRange(va)...)
			va++
		case va >= ea || b.vals[vb] < a.vals[va]:
			val = b.vals[vb]
			m.scratch = append(m.scratch, b.valRange(vb)...)
			vb++
		default:
			val = a.vals[va]
			m.scratch = append(m.scratch, a.valRange(va)...)
			m.scratch = append(m.scratch, b.valRange(vb)...)
			va++
			vb++
		}
		work += len(m.scratch)
		m.scratch = advance(m.scratch, frontier)
		m.builder.pushTimes(key, val, m.scratch)
	}
	return work
}

func (m *Merger[K, V, T, R]) Done() trace.Batch[K, V, T, R] {
	if m.result == nil {
		trace.Invariantf("ord.Merger.Done", "merge is not complete")
	}
	return m.result
}
