package trace

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/l7mp/ddflow/pkg/lattice"
)

// Diff is the constraint for update weights: a commutative group with zero under addition.
type Diff interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

// Update is a change of Diff in the multiplicity of (Key, Val) at Time.
type Update[K, V cmp.Ordered, T lattice.Lattice[T], R Diff] struct {
	Key  K `json:"key"`
	Val  V `json:"val"`
	Time T `json:"time"`
	Diff R `json:"diff"`
}

func (u Update[K, V, T, R]) String() string {
	return fmt.Sprintf("(%v, %v, %s, %v)", u.Key, u.Val, u.Time.String(), u.Diff)
}

// CompareUpdates orders updates by key, then value, then time.
func CompareUpdates[K, V cmp.Ordered, T lattice.Lattice[T], R Diff](a, b Update[K, V, T, R]) int {
	if c := cmp.Compare(a.Key, b.Key); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Val, b.Val); c != 0 {
		return c
	}
	return a.Time.Cmp(b.Time)
}

// Pair is an item with a weight.
type Pair[D any, R Diff] struct {
	Data D
	Diff R
}

// Consolidate sorts items[offset:], sums the diffs of equal items, drops zero sums and truncates
// the slice to the survivors. Consolidating a consolidated slice is a no-op.
func Consolidate[D cmp.Ordered, R Diff](items []Pair[D, R], offset int) []Pair[D, R] {
	return ConsolidateFunc(items, offset, cmp.Compare[D])
}

// ConsolidateFunc is like Consolidate but orders items with the given comparison function.
func ConsolidateFunc[D any, R Diff](items []Pair[D, R], offset int, compare func(a, b D) int) []Pair[D, R] {
	suffix := items[offset:]
	slices.SortStableFunc(suffix, func(a, b Pair[D, R]) int { return compare(a.Data, b.Data) })

	n := 0
	for i := 0; i < len(suffix); {
		acc := suffix[i]
		j := i + 1
		for j < len(suffix) && compare(suffix[j].Data, acc.Data) == 0 {
			acc.Diff += suffix[j].Diff
			j++
		}
		if acc.Diff != 0 {
			suffix[n] = acc
			n++
		}
		i = j
	}
	clear(suffix[n:])
	return items[:offset+n]
}

// ConsolidateUpdates sorts updates[offset:] by (key, value, time), sums the diffs of identical
// (key, value, time) triples and drops zero sums.
func ConsolidateUpdates[K, V cmp.Ordered, T lattice.Lattice[T], R Diff](updates []Update[K, V, T, R], offset int) []Update[K, V, T, R] {
	suffix := updates[offset:]
	slices.SortStableFunc(suffix, CompareUpdates[K, V, T, R])

	n := 0
	for i := 0; i < len(suffix); {
		acc := suffix[i]
		j := i + 1
		for j < len(suffix) && CompareUpdates(suffix[j], acc) == 0 {
			acc.Diff += suffix[j].Diff
			j++
		}
		if acc.Diff != 0 {
			suffix[n] = acc
			n++
		}
		i = j
	}
	clear(suffix[n:])
	return updates[:offset+n]
}
