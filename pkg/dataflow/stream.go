package dataflow

import (
	"slices"

	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
)

// message is a bundle of data sent at a logical time.
type message[T lattice.Lattice[T], D any] struct {
	time T
	data []D
}

// port tracks the progress of an operator output.
type port[T lattice.Lattice[T]] struct {
	caps *lattice.MutableAntichain[T]
	// implied is the frontier implied by the operator's inputs, nil for sources.
	implied func() lattice.Antichain[T]
}

func newPort[T lattice.Lattice[T]](implied func() lattice.Antichain[T]) *port[T] {
	return &port[T]{caps: lattice.NewMutableAntichain[T](), implied: implied}
}

func (p *port[T]) frontier() lattice.Antichain[T] {
	if p.implied == nil {
		return p.caps.Frontier().Clone()
	}
	return lattice.Meet(p.caps.Frontier(), p.implied())
}

// OutputPort is the output of an operator.
type OutputPort[T lattice.Lattice[T], D any] struct {
	*port[T]
	op        int
	consumers []*InputPort[T, D]
}

func newOutputPort[T lattice.Lattice[T], D any](op int, implied func() lattice.Antichain[T]) *OutputPort[T, D] {
	return &OutputPort[T, D]{port: newPort(implied), op: op}
}

// Frontier returns the lower envelope of the times at which the output may still produce data.
func (o *OutputPort[T, D]) Frontier() lattice.Antichain[T] { return o.frontier() }

// Session opens a session for sending data at the time of a capability.
func (o *OutputPort[T, D]) Session(c CapabilityRef[T]) *Session[T, D] {
	if !c.covers(o.port) {
		trace.Invariantf("session", "capability %s is not valid for this output", c.Time())
	}
	return &Session[T, D]{out: o, cap: c}
}

func (o *OutputPort[T, D]) push(t T, data []D) {
	if len(data) == 0 {
		return
	}
	for _, c := range o.consumers {
		c.enqueue(t, data)
	}
}

// Session sends data at a fixed time.
type Session[T lattice.Lattice[T], D any] struct {
	out *OutputPort[T, D]
	cap CapabilityRef[T]
}

// Give sends one item.
func (s *Session[T, D]) Give(item D) { s.GiveSlice([]D{item}) }

// GiveSlice sends a slice of items. The slice is copied.
func (s *Session[T, D]) GiveSlice(items []D) {
	if !s.cap.covers(s.out.port) {
		trace.Invariantf("session", "capability %s was dropped", s.cap.Time())
	}
	s.out.push(s.cap.Time(), items)
}

// InputPort is an input of an operator.
type InputPort[T lattice.Lattice[T], D any] struct {
	source *port[T]
	out    *port[T]
	queue  []message[T, D]
}

func (i *InputPort[T, D]) enqueue(t T, data []D) {
	if n := len(i.queue); n > 0 && i.queue[n-1].time == t {
		i.queue[n-1].data = append(i.queue[n-1].data, data...)
		return
	}
	i.queue = append(i.queue, message[T, D]{time: t, data: slices.Clone(data)})
}

// Next pops the oldest queued message.
func (i *InputPort[T, D]) Next() (*InputCapability[T], []D, bool) {
	if len(i.queue) == 0 {
		return nil, nil, false
	}
	m := i.queue[0]
	i.queue[0] = message[T, D]{}
	i.queue = i.queue[1:]
	return &InputCapability[T]{time: m.time, out: i.out}, m.data, true
}

// ForEach pops and visits every queued message.
func (i *InputPort[T, D]) ForEach(visit func(c *InputCapability[T], data []D)) {
	for {
		c, data, ok := i.Next()
		if !ok {
			return
		}
		visit(c, data)
	}
}

// Pending returns the number of queued messages.
func (i *InputPort[T, D]) Pending() int { return len(i.queue) }

// Frontier returns the lower envelope of the times the input may still receive, queued messages
// included.
func (i *InputPort[T, D]) Frontier() lattice.Antichain[T] {
	f := i.source.frontier()
	for _, m := range i.queue {
		f = f.Insert(m.time)
	}
	return f
}

// Stream is a handle to the output of an operator.
type Stream[T lattice.Lattice[T], D any] struct {
	scope *Scope[T]
	out   *OutputPort[T, D]
}

// Scope returns the scope of the stream.
func (s Stream[T, D]) Scope() *Scope[T] { return s.scope }

// Frontier returns the frontier of the stream.
func (s Stream[T, D]) Frontier() lattice.Antichain[T] { return s.out.Frontier() }

func (s Stream[T, D]) connect(w *Worker, consumer int) *InputPort[T, D] {
	if s.scope == nil || s.out == nil {
		trace.Invariantf("connect", "uninitialized stream")
	}
	if s.scope.worker != w {
		trace.Invariantf("connect", "stream belongs to another worker")
	}
	w.connect(s.out.op, consumer)
	in := &InputPort[T, D]{source: s.out.port}
	s.out.consumers = append(s.out.consumers, in)
	return in
}
