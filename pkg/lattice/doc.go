// Package lattice defines the logical times used by traces and dataflows.
//
// Times are partially ordered and form a lattice: any two times have a least upper bound (join)
// and a greatest lower bound (meet). A frontier is an antichain of times, i.e., a set of mutually
// incomparable times, read as "no time that is not greater or equal to some element of the
// frontier remains to be seen".
//
// Key components:
//   - Lattice: the constraint every time type satisfies.
//   - Time: a totally ordered 64 bit time, the default for top-level scopes.
//   - Product: the product partial order used by nested (iterative) scopes.
//   - Antichain helpers: Insert, LessEqual, Precedes, Meet, etc.
//   - MutableAntichain: a reference-counted multiset of times that reports its lower envelope.
//   - Refinement: the relation between an outer time domain and a finer inner one.
package lattice
