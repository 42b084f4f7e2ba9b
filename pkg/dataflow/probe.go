package dataflow

import (
	"github.com/l7mp/ddflow/pkg/lattice"
)

// Probe observes the progress of a stream.
type Probe[T lattice.Lattice[T]] struct {
	frontier func() lattice.Antichain[T]
}

// NewProbe attaches a probe to a stream. The probe consumes the stream without retaining data.
func NewProbe[T lattice.Lattice[T], D any](stream Stream[T, D]) *Probe[T] {
	in := sink(stream, "Probe", func(in *InputPort[T, D]) {
		in.ForEach(func(*InputCapability[T], []D) {})
	})
	return &Probe[T]{frontier: in.Frontier}
}

// Frontier returns the frontier of the probed stream.
func (p *Probe[T]) Frontier() lattice.Antichain[T] { return p.frontier() }

// LessThan reports whether the stream may still produce data at some time strictly less than t.
func (p *Probe[T]) LessThan(t T) bool { return p.frontier().LessThan(t) }

// LessEqual reports whether the stream may still produce data at some time less or equal to t.
func (p *Probe[T]) LessEqual(t T) bool { return p.frontier().LessEqual(t) }

// Done reports whether the stream is complete.
func (p *Probe[T]) Done() bool { return len(p.frontier()) == 0 }

// Message is a bundle of captured data.
type Message[T lattice.Lattice[T], D any] struct {
	Time T
	Data []D
}

// Captured records the messages of a stream.
type Captured[T lattice.Lattice[T], D any] struct {
	*Probe[T]
	messages []Message[T, D]
}

// Capture attaches a recorder to a stream.
func Capture[T lattice.Lattice[T], D any](stream Stream[T, D]) *Captured[T, D] {
	c := &Captured[T, D]{}
	in := sink(stream, "Capture", func(in *InputPort[T, D]) {
		in.ForEach(func(ic *InputCapability[T], data []D) {
			c.messages = append(c.messages, Message[T, D]{Time: ic.Time(), Data: data})
		})
	})
	c.Probe = &Probe[T]{frontier: in.Frontier}
	return c
}

// Messages returns the captured messages in arrival order.
func (c *Captured[T, D]) Messages() []Message[T, D] { return c.messages }

// Data returns the captured items in arrival order.
func (c *Captured[T, D]) Data() []D {
	var data []D
	for _, m := range c.messages {
		data = append(data, m.Data...)
	}
	return data
}

// Reset forgets the captured messages.
func (c *Captured[T, D]) Reset() { c.messages = nil }
