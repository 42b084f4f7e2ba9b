package dataflow

import (
	"fmt"

	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
)

// CapabilityRef is anything that permits sending at a time on an output.
type CapabilityRef[T lattice.Lattice[T]] interface {
	Time() T
	covers(p *port[T]) bool
}

// Capability is the right of an operator to produce output at a time or later. While held, the
// frontier of the output cannot pass its time.
type Capability[T lattice.Lattice[T]] struct {
	time  T
	port  *port[T]
	valid bool
}

func newCapability[T lattice.Lattice[T]](p *port[T], t T) *Capability[T] {
	p.caps.Update(t, 1)
	return &Capability[T]{time: t, port: p, valid: true}
}

// Time returns the time of the capability.
func (c *Capability[T]) Time() T { return c.time }

// Valid reports whether the capability has not been dropped.
func (c *Capability[T]) Valid() bool { return c.valid }

// Delayed returns a new capability for a later time.
func (c *Capability[T]) Delayed(t T) *Capability[T] {
	c.check("delayed", t)
	return newCapability(c.port, t)
}

// Downgrade moves the capability to a later time.
func (c *Capability[T]) Downgrade(t T) {
	c.check("downgrade", t)
	c.port.caps.Update(t, 1)
	c.port.caps.Update(c.time, -1)
	c.time = t
}

// Drop releases the capability. Dropping twice is a no-op.
func (c *Capability[T]) Drop() {
	if !c.valid {
		return
	}
	c.port.caps.Update(c.time, -1)
	c.valid = false
}

func (c *Capability[T]) String() string {
	if !c.valid {
		return fmt.Sprintf("capability(%s, dropped)", c.time)
	}
	return fmt.Sprintf("capability(%s)", c.time)
}

func (c *Capability[T]) covers(p *port[T]) bool { return c.valid && c.port == p }

func (c *Capability[T]) check(op string, t T) {
	if !c.valid {
		trace.Invariantf("capability", "%s: capability %s was dropped", op, c.time)
	}
	if !c.time.LessEqual(t) {
		trace.Invariantf("capability", "%s: time %s is not greater or equal to %s", op, t, c.time)
	}
}

// InputCapability is the capability carried by a received message. It can be used to send at the
// message time while the message is being processed, or retained for later.
type InputCapability[T lattice.Lattice[T]] struct {
	time T
	out  *port[T]
}

// Time returns the time of the message.
func (c *InputCapability[T]) Time() T { return c.time }

// Retain returns an owned capability at the message time.
func (c *InputCapability[T]) Retain() *Capability[T] {
	if c.out == nil {
		trace.Invariantf("capability", "retain: operator has no output")
	}
	return newCapability(c.out, c.time)
}

// Delayed returns an owned capability at a time not earlier than the message time.
func (c *InputCapability[T]) Delayed(t T) *Capability[T] {
	if !c.time.LessEqual(t) {
		trace.Invariantf("capability", "delayed: time %s is not greater or equal to %s", t, c.time)
	}
	if c.out == nil {
		trace.Invariantf("capability", "delayed: operator has no output")
	}
	return newCapability(c.out, t)
}

func (c *InputCapability[T]) covers(p *port[T]) bool { return c.out != nil && c.out == p }
