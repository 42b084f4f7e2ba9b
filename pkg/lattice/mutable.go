package lattice

import (
	"fmt"
	"slices"
)

// MutableAntichain is a multiset of times with reference counts. It reports the lower envelope of
// the times with a positive count. Holders register and release their times explicitly.
type MutableAntichain[T Lattice[T]] struct {
	counts   map[T]int
	frontier Antichain[T]
}

// NewMutableAntichain creates an empty multiset.
func NewMutableAntichain[T Lattice[T]]() *MutableAntichain[T] {
	return &MutableAntichain[T]{counts: map[T]int{}, frontier: Antichain[T]{}}
}

// NewMutableAntichainWith creates a multiset holding each of the given times once.
func NewMutableAntichainWith[T Lattice[T]](times ...T) *MutableAntichain[T] {
	m := NewMutableAntichain[T]()
	m.UpdateAll(times, 1)
	return m
}

// Update changes the count of t by delta. A negative resulting count is a bookkeeping bug and
// panics.
func (m *MutableAntichain[T]) Update(t T, delta int) {
	if delta == 0 {
		return
	}
	c := m.counts[t] + delta
	switch {
	case c < 0:
		panic(fmt.Sprintf("mutable antichain: negative count %d for time %s", c, t.String()))
	case c == 0:
		delete(m.counts, t)
	default:
		m.counts[t] = c
	}
	m.rebuild()
}

// UpdateAll changes the count of every given time by delta.
func (m *MutableAntichain[T]) UpdateAll(times []T, delta int) {
	for _, t := range times {
		m.Update(t, delta)
	}
}

// Replace releases one hold on each time in old and acquires one on each in new. Acquisitions
// happen first so that the frontier never transiently moves past a shared time.
func (m *MutableAntichain[T]) Replace(old, new []T) {
	m.UpdateAll(new, 1)
	m.UpdateAll(old, -1)
}

// Frontier returns the lower envelope of held times. The result must not be modified.
func (m *MutableAntichain[T]) Frontier() Antichain[T] { return m.frontier }

// LessEqual reports whether some held time is less or equal to t.
func (m *MutableAntichain[T]) LessEqual(t T) bool { return m.frontier.LessEqual(t) }

// IsEmpty reports whether no time is held.
func (m *MutableAntichain[T]) IsEmpty() bool { return len(m.counts) == 0 }

// Count returns the count of a time.
func (m *MutableAntichain[T]) Count(t T) int { return m.counts[t] }

func (m *MutableAntichain[T]) rebuild() {
	f := Antichain[T]{}
	for t := range m.counts {
		f = f.Insert(t)
	}
	slices.SortFunc(f, func(x, y T) int { return x.Cmp(y) })
	m.frontier = f
}

func (m *MutableAntichain[T]) String() string { return m.frontier.String() }
