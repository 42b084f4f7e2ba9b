package arrange

import (
	"cmp"

	"github.com/go-logr/logr"

	"github.com/l7mp/ddflow/pkg/dataflow"
	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
)

var _ trace.SharedReader[int, int, lattice.Time, int] = &TraceAgent[int, int, lattice.Time, int]{}

// TraceAgent is a reader handle to a shared trace. Its advance and distinguish frontiers are
// registered as holds in the TraceBox; they only move forward.
type TraceAgent[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff] struct {
	box         *TraceBox[K, V, T, R]
	listeners   *listeners[K, V, T, R]
	advance     lattice.Antichain[T]
	distinguish lattice.Antichain[T]
	released    bool
	log         logr.Logger
}

// NewTraceAgent shares a trace. The returned agent holds the current frontiers of the trace, the
// writer becomes the only handle allowed to mutate it.
func NewTraceAgent[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff](tr trace.Trace[K, V, T, R], logger logr.Logger) (*TraceAgent[K, V, T, R], *TraceWriter[K, V, T, R]) {
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	box := newTraceBox(tr, logger.WithName("trace-box"))
	box.acquire()
	ls := &listeners[K, V, T, R]{frontier: lattice.Antichain[T]{lattice.Minimum[T]()}}

	agent := &TraceAgent[K, V, T, R]{
		box:         box,
		listeners:   ls,
		advance:     box.AdvanceFrontier().Clone(),
		distinguish: box.DistinguishFrontier().Clone(),
		log:         logger.WithName("trace-agent"),
	}
	writer := &TraceWriter[K, V, T, R]{box: box, listeners: ls, log: logger.WithName("trace-writer")}
	return agent, writer
}

// Box returns the shared container of the trace.
func (a *TraceAgent[K, V, T, R]) Box() *TraceBox[K, V, T, R] { return a.box }

// Released reports whether the agent has been released.
func (a *TraceAgent[K, V, T, R]) Released() bool { return a.released }

// AdvanceBy moves the advance hold of the agent. The new frontier must not precede the previous
// one.
func (a *TraceAgent[K, V, T, R]) AdvanceBy(frontier []T) {
	a.check("TraceAgent.AdvanceBy")
	if !a.advance.Precedes(frontier) {
		trace.Invariantf("TraceAgent.AdvanceBy", "frontier %s regresses from %s",
			lattice.Antichain[T](frontier), a.advance)
	}
	f := lattice.Antichain[T](frontier).Clone()
	a.box.adjustAdvance(a.advance, f)
	a.advance = f
	a.log.V(4).Info("advance", "frontier", f.String(), "trace", a.box.AdvanceFrontier().String())
}

func (a *TraceAgent[K, V, T, R]) AdvanceFrontier() lattice.Antichain[T] { return a.advance }

// DistinguishSince moves the distinguish hold of the agent. The new frontier must not precede the
// previous one.
func (a *TraceAgent[K, V, T, R]) DistinguishSince(frontier []T) {
	a.check("TraceAgent.DistinguishSince")
	if !a.distinguish.Precedes(frontier) {
		trace.Invariantf("TraceAgent.DistinguishSince", "frontier %s regresses from %s",
			lattice.Antichain[T](frontier), a.distinguish)
	}
	f := lattice.Antichain[T](frontier).Clone()
	a.box.adjustDistinguish(a.distinguish, f)
	a.distinguish = f
	a.log.V(4).Info("distinguish", "frontier", f.String(), "trace", a.box.DistinguishFrontier().String())
}

func (a *TraceAgent[K, V, T, R]) DistinguishFrontier() lattice.Antichain[T] { return a.distinguish }

func (a *TraceAgent[K, V, T, R]) CursorThrough(upper []T) (trace.Cursor[K, V, T, R], bool) {
	a.check("TraceAgent.CursorThrough")
	return a.box.trace.CursorThrough(upper)
}

func (a *TraceAgent[K, V, T, R]) Cursor() trace.Cursor[K, V, T, R] {
	a.check("TraceAgent.Cursor")
	return a.box.trace.Cursor()
}

func (a *TraceAgent[K, V, T, R]) MapBatches(f func(trace.BatchReader[K, V, T, R])) {
	a.check("TraceAgent.MapBatches")
	a.box.trace.MapBatches(f)
}

// Clone returns a new agent co-holding the frontiers of this one.
func (a *TraceAgent[K, V, T, R]) Clone() trace.SharedReader[K, V, T, R] { return a.CloneAgent() }

// CloneAgent is Clone with a concrete result type.
func (a *TraceAgent[K, V, T, R]) CloneAgent() *TraceAgent[K, V, T, R] {
	a.check("TraceAgent.Clone")
	a.box.adjustAdvance(nil, a.advance)
	a.box.adjustDistinguish(nil, a.distinguish)
	a.box.acquire()
	return &TraceAgent[K, V, T, R]{
		box:         a.box,
		listeners:   a.listeners,
		advance:     a.advance.Clone(),
		distinguish: a.distinguish.Clone(),
		log:         a.log,
	}
}

// Release drops the holds of the agent. Releasing twice is a no-op.
func (a *TraceAgent[K, V, T, R]) Release() {
	if a.released {
		return
	}
	a.box.adjustAdvance(a.advance, nil)
	a.box.adjustDistinguish(a.distinguish, nil)
	a.box.release()
	a.released = true
	a.log.V(4).Info("released", "agents", a.box.Agents())
}

// NewListener returns a queue that first replays every batch of the trace at the minimal time,
// then reports the frontier of the last seal and receives every subsequent seal. If the writer
// was released, the queue carries a terminal event instead of live updates.
func (a *TraceAgent[K, V, T, R]) NewListener() *Listener[K, V, T, R] {
	a.check("TraceAgent.NewListener")
	minimum := lattice.Minimum[T]()
	l := &Listener[K, V, T, R]{}
	a.box.trace.MapBatches(func(b trace.BatchReader[K, V, T, R]) {
		l.push(Event[K, V, T, R]{
			Frontier: lattice.Antichain[T]{minimum},
			Data:     &Sealed[K, V, T, R]{Time: minimum, Batch: b},
		})
	})

	if a.listeners.released {
		l.push(Event[K, V, T, R]{Frontier: lattice.Antichain[T]{}})
		return l
	}
	l.push(Event[K, V, T, R]{Frontier: a.listeners.frontier.Clone()})
	a.listeners.queues = append(a.listeners.queues, l)
	return l
}

// Import creates a source in a scope that replays the trace and then follows its writer. The
// returned arrangement holds a clone of the agent.
func (a *TraceAgent[K, V, T, R]) Import(scope *dataflow.Scope[T]) *Arranged[K, V, T, R] {
	listener := a.NewListener()
	logger := a.log.WithName("import")

	stream := dataflow.Source(scope, "ArrangedSource", func(c *dataflow.Capability[T], info dataflow.OperatorInfo) func(*dataflow.OutputPort[T, trace.BatchReader[K, V, T, R]]) {
		caps := capabilities[T]{c}
		return func(out *dataflow.OutputPort[T, trace.BatchReader[K, V, T, R]]) {
			for {
				e, ok := listener.Pop()
				if !ok {
					break
				}

				if e.Data != nil {
					held := caps.find(e.Data.Time)
					if held == nil {
						trace.Invariantf("import", "no capability for time %s in %s", e.Data.Time, caps)
					}
					delayed := held.Delayed(e.Data.Time)
					out.Session(delayed).Give(e.Data.Batch)
					delayed.Drop()
					logger.V(2).Info("imported batch", "operator", info.Name,
						"description", e.Data.Batch.Description().String())
				}

				next := make(capabilities[T], 0, len(e.Frontier))
				for _, t := range e.Frontier {
					held := caps.find(t)
					if held == nil {
						trace.Invariantf("import", "no capability for frontier time %s in %s", t, caps)
					}
					next = append(next, held.Delayed(t))
				}
				caps.drop()
				caps = next
			}
			if len(caps) == 0 && !listener.Closed() {
				listener.Close()
			}
		}
	})

	return newArranged[K, V, T, R](stream, a.CloneAgent())
}

func (a *TraceAgent[K, V, T, R]) check(op string) {
	if a.released {
		trace.Invariantf(op, "agent was released")
	}
	if !a.box.Alive() {
		trace.Invariantf(op, "trace was dropped")
	}
}
