package lattice

import (
	"cmp"
	"fmt"
)

// Lattice is the constraint satisfied by logical times. The zero value of a time type must be its
// minimum element.
type Lattice[T any] interface {
	comparable
	fmt.Stringer

	// LessEqual reports whether the receiver is less or equal to other in the partial order.
	LessEqual(other T) bool
	// Join returns the least upper bound.
	Join(other T) T
	// Meet returns the greatest lower bound.
	Meet(other T) T
	// Cmp is a total order consistent with LessEqual, used for sorting.
	Cmp(other T) int
}

// TotalOrder marks time types whose partial order is total.
type TotalOrder[T any] interface {
	Lattice[T]
	Total()
}

// Minimum returns the minimal element of a time type.
func Minimum[T Lattice[T]]() T {
	var zero T
	return zero
}

// LessThan reports whether a is strictly less than b.
func LessThan[T Lattice[T]](a, b T) bool {
	return a != b && a.LessEqual(b)
}

// AdvanceBy advances a time to the frontier: the result is the meet over the frontier elements
// of the join of t with that element. Comparisons of the result against any time greater or equal
// to an element of the frontier agree with comparisons of t.
func AdvanceBy[T Lattice[T]](t T, frontier []T) T {
	if len(frontier) == 0 {
		return t
	}
	result := t.Join(frontier[0])
	for _, f := range frontier[1:] {
		result = result.Meet(t.Join(f))
	}
	return result
}

// Time is a totally ordered 64 bit logical time.
type Time uint64

func (t Time) LessEqual(other Time) bool { return t <= other }
func (t Time) Join(other Time) Time      { return max(t, other) }
func (t Time) Meet(other Time) Time      { return min(t, other) }
func (t Time) Cmp(other Time) int        { return cmp.Compare(t, other) }
func (t Time) Total()                    {}
func (t Time) String() string            { return fmt.Sprintf("%d", uint64(t)) }

// Product is the product partial order of an outer and an inner time: (o1,i1) <= (o2,i2) iff
// o1 <= o2 and i1 <= i2.
type Product[O Lattice[O], I Lattice[I]] struct {
	Outer O
	Inner I
}

// NewProduct creates a product time.
func NewProduct[O Lattice[O], I Lattice[I]](outer O, inner I) Product[O, I] {
	return Product[O, I]{Outer: outer, Inner: inner}
}

func (p Product[O, I]) LessEqual(other Product[O, I]) bool {
	return p.Outer.LessEqual(other.Outer) && p.Inner.LessEqual(other.Inner)
}

func (p Product[O, I]) Join(other Product[O, I]) Product[O, I] {
	return Product[O, I]{Outer: p.Outer.Join(other.Outer), Inner: p.Inner.Join(other.Inner)}
}

func (p Product[O, I]) Meet(other Product[O, I]) Product[O, I] {
	return Product[O, I]{Outer: p.Outer.Meet(other.Outer), Inner: p.Inner.Meet(other.Inner)}
}

// Cmp orders products lexicographically, which extends the product order.
func (p Product[O, I]) Cmp(other Product[O, I]) int {
	if c := p.Outer.Cmp(other.Outer); c != 0 {
		return c
	}
	return p.Inner.Cmp(other.Inner)
}

func (p Product[O, I]) String() string {
	return fmt.Sprintf("(%s, %s)", p.Outer.String(), p.Inner.String())
}
