package lattice

import (
	"fmt"
	"slices"
	"strings"
)

// Antichain is a set of mutually incomparable times. A nil or empty antichain is the empty
// frontier: no further times are possible.
type Antichain[T Lattice[T]] []T

// NewAntichain creates an antichain from the minimal elements of the given times.
func NewAntichain[T Lattice[T]](times ...T) Antichain[T] {
	a := Antichain[T]{}
	for _, t := range times {
		a = a.Insert(t)
	}
	return a
}

// Insert adds t unless some element is already less or equal to it, removing the elements that
// t now dominates.
func (a Antichain[T]) Insert(t T) Antichain[T] {
	if a.LessEqual(t) {
		return a
	}
	return append(slices.DeleteFunc(slices.Clone(a), func(e T) bool { return t.LessEqual(e) }), t)
}

// LessEqual reports whether some element is less or equal to t.
func (a Antichain[T]) LessEqual(t T) bool {
	for _, e := range a {
		if e.LessEqual(t) {
			return true
		}
	}
	return false
}

// LessThan reports whether some element is strictly less than t.
func (a Antichain[T]) LessThan(t T) bool {
	for _, e := range a {
		if LessThan(e, t) {
			return true
		}
	}
	return false
}

// Precedes reports whether a is less or equal to b as a frontier, i.e., whether every element of b
// is greater or equal to some element of a.
func (a Antichain[T]) Precedes(b []T) bool {
	for _, t := range b {
		if !a.LessEqual(t) {
			return false
		}
	}
	return true
}

// Equal reports whether both antichains contain the same times, regardless of order.
func (a Antichain[T]) Equal(b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for _, t := range b {
		if !slices.Contains(a, t) {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no storage with the receiver.
func (a Antichain[T]) Clone() Antichain[T] {
	if a == nil {
		return Antichain[T]{}
	}
	return slices.Clone(a)
}

// Sorted returns a copy sorted by the total order of the time type, for deterministic output.
func (a Antichain[T]) Sorted() Antichain[T] {
	c := a.Clone()
	slices.SortFunc(c, func(x, y T) int { return x.Cmp(y) })
	return c
}

func (a Antichain[T]) String() string {
	parts := make([]string, 0, len(a))
	for _, t := range a.Sorted() {
		parts = append(parts, t.String())
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
}

// Meet returns the lower envelope of the union of the given frontiers.
func Meet[T Lattice[T]](frontiers ...[]T) Antichain[T] {
	result := Antichain[T]{}
	for _, f := range frontiers {
		for _, t := range f {
			result = result.Insert(t)
		}
	}
	return result
}

// Equal reports whether two frontiers contain the same times.
func Equal[T Lattice[T]](a, b []T) bool { return Antichain[T](a).Equal(b) }

// Precedes reports whether frontier a is less or equal to frontier b.
func Precedes[T Lattice[T]](a, b []T) bool { return Antichain[T](a).Precedes(b) }

// FrontierLessEqual reports whether some element of the frontier is less or equal to t.
func FrontierLessEqual[T Lattice[T]](frontier []T, t T) bool {
	return Antichain[T](frontier).LessEqual(t)
}
