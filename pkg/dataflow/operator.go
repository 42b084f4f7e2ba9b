package dataflow

import (
	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
)

// Source creates an operator without inputs. The builder receives a capability at the minimal
// time and returns the logic run at every scheduling step.
func Source[T lattice.Lattice[T], D any](scope *Scope[T], name string,
	build func(c *Capability[T], info OperatorInfo) func(out *OutputPort[T, D])) Stream[T, D] {
	op := scope.newOperator(name)
	out := newOutputPort[T, D](op.info.Index, nil)
	logic := build(newCapability(out.port, lattice.Minimum[T]()), op.info)
	op.schedule = func() { logic(out) }
	return Stream[T, D]{scope: scope, out: out}
}

// Unary creates an operator with one input and one output. The builder receives a capability at
// the minimal time, which it must drop or downgrade for the output to make progress.
func Unary[T lattice.Lattice[T], DI, DO any](stream Stream[T, DI], name string,
	build func(c *Capability[T], info OperatorInfo) func(in *InputPort[T, DI], out *OutputPort[T, DO])) Stream[T, DO] {
	scope := stream.scope
	op := scope.newOperator(name)
	in := stream.connect(scope.worker, op.info.Index)
	out := newOutputPort[T, DO](op.info.Index, in.Frontier)
	in.out = out.port
	logic := build(newCapability(out.port, lattice.Minimum[T]()), op.info)
	op.schedule = func() { logic(in, out) }
	return Stream[T, DO]{scope: scope, out: out}
}

// Binary creates an operator with two inputs from the same scope and one output.
func Binary[T lattice.Lattice[T], D1, D2, DO any](stream1 Stream[T, D1], stream2 Stream[T, D2], name string,
	build func(c *Capability[T], info OperatorInfo) func(in1 *InputPort[T, D1], in2 *InputPort[T, D2], out *OutputPort[T, DO])) Stream[T, DO] {
	scope := stream1.scope
	if stream2.scope != scope {
		trace.Invariantf("binary", "operator %s: inputs from different scopes", name)
	}
	op := scope.newOperator(name)
	in1 := stream1.connect(scope.worker, op.info.Index)
	in2 := stream2.connect(scope.worker, op.info.Index)
	out := newOutputPort[T, DO](op.info.Index, func() lattice.Antichain[T] {
		return lattice.Meet(in1.Frontier(), in2.Frontier())
	})
	in1.out, in2.out = out.port, out.port
	logic := build(newCapability(out.port, lattice.Minimum[T]()), op.info)
	op.schedule = func() { logic(in1, in2, out) }
	return Stream[T, DO]{scope: scope, out: out}
}

// Sink creates an operator that consumes a stream.
func Sink[T lattice.Lattice[T], D any](stream Stream[T, D], name string, logic func(in *InputPort[T, D])) {
	sink(stream, name, logic)
}

func sink[T lattice.Lattice[T], D any](stream Stream[T, D], name string, logic func(in *InputPort[T, D])) *InputPort[T, D] {
	scope := stream.scope
	op := scope.newOperator(name)
	in := stream.connect(scope.worker, op.info.Index)
	op.schedule = func() { logic(in) }
	return in
}

// Map transforms every item of a stream.
func Map[T lattice.Lattice[T], DI, DO any](stream Stream[T, DI], name string, f func(DI) DO) Stream[T, DO] {
	return FlatMap(stream, name, func(item DI, emit func(DO)) { emit(f(item)) })
}

// FlatMap transforms every item of a stream into zero or more items.
func FlatMap[T lattice.Lattice[T], DI, DO any](stream Stream[T, DI], name string, f func(item DI, emit func(DO))) Stream[T, DO] {
	return Unary(stream, name, func(c *Capability[T], _ OperatorInfo) func(*InputPort[T, DI], *OutputPort[T, DO]) {
		c.Drop()
		var buffer []DO
		return func(in *InputPort[T, DI], out *OutputPort[T, DO]) {
			in.ForEach(func(ic *InputCapability[T], data []DI) {
				buffer = buffer[:0]
				for _, item := range data {
					f(item, func(o DO) { buffer = append(buffer, o) })
				}
				out.Session(ic).GiveSlice(buffer)
			})
		}
	})
}

// Inspect calls a function on every item passing through a stream.
func Inspect[T lattice.Lattice[T], D any](stream Stream[T, D], name string, f func(t T, item D)) Stream[T, D] {
	return Unary(stream, name, func(c *Capability[T], _ OperatorInfo) func(*InputPort[T, D], *OutputPort[T, D]) {
		c.Drop()
		return func(in *InputPort[T, D], out *OutputPort[T, D]) {
			in.ForEach(func(ic *InputCapability[T], data []D) {
				for _, item := range data {
					f(ic.Time(), item)
				}
				out.Session(ic).GiveSlice(data)
			})
		}
	})
}

// Enter brings a stream into a nested child scope, refining its times.
func Enter[TO lattice.Lattice[TO], TI lattice.Lattice[TI], D any](stream Stream[TO, D], child *Scope[TI],
	refinement lattice.Refinement[TO, TI]) Stream[TI, D] {
	op := child.newOperator("Enter")
	in := stream.connect(child.worker, op.info.Index)
	out := newOutputPort[TI, D](op.info.Index, func() lattice.Antichain[TI] {
		return lattice.ToInnerFrontier(refinement, in.Frontier())
	})
	op.schedule = func() {
		in.ForEach(func(ic *InputCapability[TO], data []D) {
			out.push(refinement.ToInner(ic.Time()), data)
		})
	}
	return Stream[TI, D]{scope: child, out: out}
}

// Leave brings a stream from a nested child scope back to the parent scope.
func Leave[TO lattice.Lattice[TO], TI lattice.Lattice[TI], D any](stream Stream[TI, D], parent *Scope[TO],
	refinement lattice.Refinement[TO, TI]) Stream[TO, D] {
	op := parent.newOperator("Leave")
	in := stream.connect(parent.worker, op.info.Index)
	out := newOutputPort[TO, D](op.info.Index, func() lattice.Antichain[TO] {
		return lattice.ToOuterFrontier(refinement, in.Frontier())
	})
	op.schedule = func() {
		in.ForEach(func(ic *InputCapability[TI], data []D) {
			out.push(refinement.ToOuter(ic.Time()), data)
		})
	}
	return Stream[TO, D]{scope: parent, out: out}
}
