package arrange

import (
	"cmp"

	"github.com/go-logr/logr"

	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
)

// TraceBox shares a trace between one writer and many agents. It keeps the holds of the agents and
// applies their lower envelope to the trace. The trace is dropped when the last agent is released.
type TraceBox[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff] struct {
	trace       trace.Trace[K, V, T, R]
	advance     *lattice.MutableAntichain[T]
	distinguish *lattice.MutableAntichain[T]
	agents      int
	log         logr.Logger
}

func newTraceBox[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff](tr trace.Trace[K, V, T, R], logger logr.Logger) *TraceBox[K, V, T, R] {
	return &TraceBox[K, V, T, R]{
		trace:       tr,
		advance:     lattice.NewMutableAntichainWith(tr.AdvanceFrontier()...),
		distinguish: lattice.NewMutableAntichainWith(tr.DistinguishFrontier()...),
		log:         logger,
	}
}

// Trace returns the shared trace, or nil once every agent has been released.
func (b *TraceBox[K, V, T, R]) Trace() trace.Trace[K, V, T, R] { return b.trace }

// Alive reports whether some agent still holds the trace.
func (b *TraceBox[K, V, T, R]) Alive() bool { return b.trace != nil }

// Agents returns the number of live agents.
func (b *TraceBox[K, V, T, R]) Agents() int { return b.agents }

// AdvanceFrontier returns the meet of the advance holds of all agents.
func (b *TraceBox[K, V, T, R]) AdvanceFrontier() lattice.Antichain[T] { return b.advance.Frontier() }

// DistinguishFrontier returns the meet of the distinguish holds of all agents.
func (b *TraceBox[K, V, T, R]) DistinguishFrontier() lattice.Antichain[T] {
	return b.distinguish.Frontier()
}

func (b *TraceBox[K, V, T, R]) adjustAdvance(old, new []T) {
	b.advance.Replace(old, new)
	if b.trace != nil {
		b.trace.AdvanceBy(b.advance.Frontier())
	}
}

func (b *TraceBox[K, V, T, R]) adjustDistinguish(old, new []T) {
	b.distinguish.Replace(old, new)
	if b.trace != nil {
		b.trace.DistinguishSince(b.distinguish.Frontier())
	}
}

func (b *TraceBox[K, V, T, R]) acquire() { b.agents++ }

func (b *TraceBox[K, V, T, R]) release() {
	b.agents--
	if b.agents == 0 {
		b.log.V(1).Info("last agent released, dropping trace")
		b.trace = nil
	}
}
