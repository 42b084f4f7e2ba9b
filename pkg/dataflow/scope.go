package dataflow

import (
	"slices"

	"github.com/l7mp/ddflow/pkg/lattice"
)

// Scope is a dataflow, or a region nested in one, whose streams carry times of type T.
type Scope[T lattice.Lattice[T]] struct {
	worker  *Worker
	name    string
	address []int
	next    int
}

// NewDataflow creates a new top-level dataflow on a worker.
func NewDataflow[T lattice.Lattice[T]](w *Worker, name string) *Scope[T] {
	s := &Scope[T]{worker: w, name: name, address: []int{w.dataflows}}
	w.dataflows++
	w.log.V(1).Info("new dataflow", "name", name, "address", s.address)
	return s
}

// NewChild creates a scope nested in a parent scope. Streams enter the child with Enter.
func NewChild[TO lattice.Lattice[TO], TI lattice.Lattice[TI]](parent *Scope[TO], name string) *Scope[TI] {
	return &Scope[TI]{worker: parent.worker, name: name, address: parent.nextAddress()}
}

// Worker returns the worker the scope runs on.
func (s *Scope[T]) Worker() *Worker { return s.worker }

// Name returns the name of the scope.
func (s *Scope[T]) Name() string { return s.name }

// Address returns the path of the scope.
func (s *Scope[T]) Address() []int { return slices.Clone(s.address) }

func (s *Scope[T]) nextAddress() []int {
	addr := append(slices.Clone(s.address), s.next)
	s.next++
	return addr
}

func (s *Scope[T]) newOperator(name string) *operator {
	return s.worker.newOperator(s.nextAddress(), name)
}
