package dataflow

import (
	"cmp"

	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
)

// InputHandle feeds data into a dataflow from outside. The handle holds a capability at its
// current time until it is closed.
type InputHandle[T lattice.Lattice[T], D any] struct {
	out *OutputPort[T, D]
	cap *Capability[T]
}

// NewInput creates an input operator in a scope. Data sent before any consumer is connected to
// the stream is lost.
func NewInput[T lattice.Lattice[T], D any](scope *Scope[T], name string) (*InputHandle[T, D], Stream[T, D]) {
	op := scope.newOperator(name)
	out := newOutputPort[T, D](op.info.Index, nil)
	h := &InputHandle[T, D]{out: out, cap: newCapability(out.port, lattice.Minimum[T]())}
	return h, Stream[T, D]{scope: scope, out: out}
}

// Time returns the current time of the input.
func (h *InputHandle[T, D]) Time() T { return h.cap.Time() }

// Send sends data at the current time.
func (h *InputHandle[T, D]) Send(data ...D) {
	if !h.cap.Valid() {
		trace.Invariantf("input", "send on closed input")
	}
	h.out.push(h.cap.Time(), data)
}

// AdvanceTo moves the input to a time, which must not be earlier than the current one. Consumers
// may learn that earlier times are complete.
func (h *InputHandle[T, D]) AdvanceTo(t T) {
	if !h.cap.Valid() {
		trace.Invariantf("input", "advance on closed input")
	}
	if h.cap.Time() != t {
		h.cap.Downgrade(t)
	}
}

// Close releases the capability of the input. Closing twice is a no-op.
func (h *InputHandle[T, D]) Close() { h.cap.Drop() }

// Closed reports whether the input has been closed.
func (h *InputHandle[T, D]) Closed() bool { return !h.cap.Valid() }

// InputSession buffers updates of a collection and sends them consolidated.
type InputSession[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff] struct {
	handle *InputHandle[T, trace.Update[K, V, T, R]]
	buffer []trace.Update[K, V, T, R]
}

// NewInputSession creates an input of collection updates in a scope.
func NewInputSession[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff](scope *Scope[T], name string) (*InputSession[K, V, T, R], Stream[T, trace.Update[K, V, T, R]]) {
	h, stream := NewInput[T, trace.Update[K, V, T, R]](scope, name)
	return &InputSession[K, V, T, R]{handle: h}, stream
}

// Time returns the current time of the session.
func (s *InputSession[K, V, T, R]) Time() T { return s.handle.Time() }

// Insert adds one copy of an element at the current time.
func (s *InputSession[K, V, T, R]) Insert(key K, val V) { s.Update(key, val, 1) }

// Remove removes one copy of an element at the current time.
func (s *InputSession[K, V, T, R]) Remove(key K, val V) { s.Update(key, val, -1) }

// Update changes the multiplicity of an element at the current time.
func (s *InputSession[K, V, T, R]) Update(key K, val V, diff R) {
	s.UpdateAt(key, val, s.handle.Time(), diff)
}

// UpdateAt changes the multiplicity of an element at a time not earlier than the current one.
func (s *InputSession[K, V, T, R]) UpdateAt(key K, val V, t T, diff R) {
	if s.handle.Closed() {
		trace.Invariantf("input session", "update on closed session")
	}
	if !s.handle.Time().LessEqual(t) {
		trace.Invariantf("input session", "update at %s before current time %s", t, s.handle.Time())
	}
	s.buffer = append(s.buffer, trace.Update[K, V, T, R]{Key: key, Val: val, Time: t, Diff: diff})
}

// Flush sends the buffered updates.
func (s *InputSession[K, V, T, R]) Flush() {
	s.buffer = trace.ConsolidateUpdates(s.buffer, 0)
	if len(s.buffer) > 0 && !s.handle.Closed() {
		s.handle.Send(s.buffer...)
	}
	s.buffer = s.buffer[:0]
}

// AdvanceTo flushes the buffer and moves the session to a time.
func (s *InputSession[K, V, T, R]) AdvanceTo(t T) {
	s.Flush()
	s.handle.AdvanceTo(t)
}

// Close flushes the buffer and closes the input.
func (s *InputSession[K, V, T, R]) Close() {
	if s.handle.Closed() {
		return
	}
	s.Flush()
	s.handle.Close()
}
