// Package zset implements Z-sets: finite maps from (key, value) pairs to non-zero multiplicities.
// Z-sets materialize the contents of a collection at a time, e.g., from a trace cursor.
package zset

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
)

// ZSetError is returned when two Z-sets were expected to be equal.
type ZSetError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ZSetError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ZSetError) Unwrap() error { return e.Cause }

func newZSetError(message string, cause error) error {
	return &ZSetError{Message: message, Cause: cause}
}

// Element is a (key, value) pair.
type Element[K, V cmp.Ordered] struct {
	Key K
	Val V
}

func compareElements[K, V cmp.Ordered](a, b Element[K, V]) int {
	if c := cmp.Compare(a.Key, b.Key); c != 0 {
		return c
	}
	return cmp.Compare(a.Val, b.Val)
}

// Entry is an element with its multiplicity.
type Entry[K, V cmp.Ordered, R trace.Diff] struct {
	Element[K, V]
	Multiplicity R
}

// ZSet is a Z-set over (key, value) pairs. The zero value is not usable, use New.
type ZSet[K, V cmp.Ordered, R trace.Diff] struct {
	counts map[Element[K, V]]R
}

// New creates an empty Z-set.
func New[K, V cmp.Ordered, R trace.Diff]() *ZSet[K, V, R] {
	return &ZSet[K, V, R]{counts: make(map[Element[K, V]]R)}
}

// FromUpdates accumulates the updates at times less or equal to t.
func FromUpdates[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff](updates []trace.Update[K, V, T, R], t T) *ZSet[K, V, R] {
	z := New[K, V, R]()
	for _, u := range updates {
		if u.Time.LessEqual(t) {
			z.Insert(u.Key, u.Val, u.Diff)
		}
	}
	return z
}

// FromCursor accumulates the updates of a cursor at times less or equal to t. The cursor is
// rewound first.
func FromCursor[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff](c trace.Cursor[K, V, T, R], t T) *ZSet[K, V, R] {
	z := New[K, V, R]()
	c.RewindKeys()
	trace.Walk(c, func(k K, v V, ut T, r R) bool {
		if ut.LessEqual(t) {
			z.Insert(k, v, r)
		}
		return true
	})
	return z
}

// Insert adds an element with a multiplicity in place.
func (z *ZSet[K, V, R]) Insert(key K, val V, diff R) {
	if diff == 0 {
		return
	}
	e := Element[K, V]{Key: key, Val: val}
	n := z.counts[e] + diff
	if n == 0 {
		delete(z.counts, e)
		return
	}
	z.counts[e] = n
}

// Add returns the sum of two Z-sets.
func (z *ZSet[K, V, R]) Add(other *ZSet[K, V, R]) *ZSet[K, V, R] {
	result := z.Copy()
	if other == nil {
		return result
	}
	for e, n := range other.counts {
		result.Insert(e.Key, e.Val, n)
	}
	return result
}

// Subtract returns the difference of two Z-sets.
func (z *ZSet[K, V, R]) Subtract(other *ZSet[K, V, R]) *ZSet[K, V, R] {
	result := z.Copy()
	if other == nil {
		return result
	}
	for e, n := range other.counts {
		result.Insert(e.Key, e.Val, -n)
	}
	return result
}

// Distinct converts to set semantics: positive multiplicities become 1, the rest are dropped.
func (z *ZSet[K, V, R]) Distinct() *ZSet[K, V, R] {
	result := New[K, V, R]()
	for e, n := range z.counts {
		if n > 0 {
			result.counts[e] = 1
		}
	}
	return result
}

// Copy returns a copy of the Z-set.
func (z *ZSet[K, V, R]) Copy() *ZSet[K, V, R] {
	result := &ZSet[K, V, R]{counts: make(map[Element[K, V]]R, len(z.counts))}
	for e, n := range z.counts {
		result.counts[e] = n
	}
	return result
}

// Multiplicity returns the multiplicity of an element.
func (z *ZSet[K, V, R]) Multiplicity(key K, val V) R {
	return z.counts[Element[K, V]{Key: key, Val: val}]
}

// Contains reports whether an element has positive multiplicity.
func (z *ZSet[K, V, R]) Contains(key K, val V) bool { return z.Multiplicity(key, val) > 0 }

// IsZero reports whether the Z-set is empty.
func (z *ZSet[K, V, R]) IsZero() bool { return len(z.counts) == 0 }

// Len returns the number of distinct elements.
func (z *ZSet[K, V, R]) Len() int { return len(z.counts) }

// Size returns the sum of the positive multiplicities.
func (z *ZSet[K, V, R]) Size() R {
	var total R
	for _, n := range z.counts {
		if n > 0 {
			total += n
		}
	}
	return total
}

// Entries returns the elements with their multiplicities, ordered by key then value.
func (z *ZSet[K, V, R]) Entries() []Entry[K, V, R] {
	entries := make([]Entry[K, V, R], 0, len(z.counts))
	for e, n := range z.counts {
		entries = append(entries, Entry[K, V, R]{Element: e, Multiplicity: n})
	}
	slices.SortFunc(entries, func(a, b Entry[K, V, R]) int { return compareElements(a.Element, b.Element) })
	return entries
}

// Keys returns the distinct keys, ordered.
func (z *ZSet[K, V, R]) Keys() []K {
	keys := make([]K, 0, len(z.counts))
	for e := range z.counts {
		keys = append(keys, e.Key)
	}
	slices.Sort(keys)
	return slices.Compact(keys)
}

// Equal reports whether two Z-sets hold the same elements with the same multiplicities.
func (z *ZSet[K, V, R]) Equal(other *ZSet[K, V, R]) bool {
	return z.Diff(other) == nil
}

// Diff returns nil if the Z-sets are equal, otherwise an error naming the first differing
// element in order.
func (z *ZSet[K, V, R]) Diff(other *ZSet[K, V, R]) error {
	if other == nil {
		other = New[K, V, R]()
	}
	delta := z.Subtract(other)
	if delta.IsZero() {
		return nil
	}
	first := delta.Entries()[0]
	return newZSetError(fmt.Sprintf("Z-sets differ in %d elements", delta.Len()),
		fmt.Errorf("(%v, %v): %v != %v", first.Key, first.Val,
			z.Multiplicity(first.Key, first.Val), other.Multiplicity(first.Key, first.Val)))
}

// String returns a string representation ordered by element.
func (z *ZSet[K, V, R]) String() string {
	if z.IsZero() {
		return "∅"
	}
	parts := make([]string, 0, len(z.counts))
	for _, e := range z.Entries() {
		parts = append(parts, fmt.Sprintf("(%v, %v)×%v", e.Key, e.Val, e.Multiplicity))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
