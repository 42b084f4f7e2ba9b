package trace

import (
	"cmp"

	"github.com/l7mp/ddflow/pkg/lattice"
)

// Cursor is a two-level ordered iterator over the contents of a batch or a trace: keys in
// increasing order and, within a key, values in increasing order. A cursor references the storage
// it navigates; it never copies the data.
type Cursor[K, V cmp.Ordered, T lattice.Lattice[T], R Diff] interface {
	// KeyValid reports whether the cursor points at a key.
	KeyValid() bool
	// ValValid reports whether the cursor points at a value of the current key.
	ValValid() bool
	Key() K
	Val() V
	// MapTimes calls logic with every (time, diff) pair of the current (key, value). The pairs
	// are visited exhaustively, in no particular order and not consolidated across batches.
	MapTimes(logic func(T, R))

	StepKey()
	// SeekKey moves to the first key greater or equal to key.
	SeekKey(key K)
	StepVal()
	// SeekVal moves to the first value of the current key greater or equal to val.
	SeekVal(val V)

	RewindKeys()
	RewindVals()
}

// CursorList merges the cursors of several batches into one cursor over their union.
type CursorList[K, V cmp.Ordered, T lattice.Lattice[T], R Diff] struct {
	cursors []Cursor[K, V, T, R]
	// indices of cursors at the minimal key, then of those at the minimal value
	minKey, minVal []int
}

// NewCursorList creates a cursor over the union of the given cursors.
func NewCursorList[K, V cmp.Ordered, T lattice.Lattice[T], R Diff](cursors []Cursor[K, V, T, R]) *CursorList[K, V, T, R] {
	c := &CursorList[K, V, T, R]{cursors: cursors}
	c.minimizeKeys()
	return c
}

func (c *CursorList[K, V, T, R]) minimizeKeys() {
	c.minKey = c.minKey[:0]
	for i, cur := range c.cursors {
		if !cur.KeyValid() {
			continue
		}
		if len(c.minKey) > 0 {
			switch x := cmp.Compare(cur.Key(), c.cursors[c.minKey[0]].Key()); {
			case x < 0:
				c.minKey = c.minKey[:0]
			case x > 0:
				continue
			}
		}
		c.minKey = append(c.minKey, i)
	}
	c.minimizeVals()
}

func (c *CursorList[K, V, T, R]) minimizeVals() {
	c.minVal = c.minVal[:0]
	for _, i := range c.minKey {
		cur := c.cursors[i]
		if !cur.ValValid() {
			continue
		}
		if len(c.minVal) > 0 {
			switch x := cmp.Compare(cur.Val(), c.cursors[c.minVal[0]].Val()); {
			case x < 0:
				c.minVal = c.minVal[:0]
			case x > 0:
				continue
			}
		}
		c.minVal = append(c.minVal, i)
	}
}

func (c *CursorList[K, V, T, R]) KeyValid() bool { return len(c.minKey) > 0 }
func (c *CursorList[K, V, T, R]) ValValid() bool { return len(c.minVal) > 0 }
func (c *CursorList[K, V, T, R]) Key() K         { return c.cursors[c.minKey[0]].Key() }
func (c *CursorList[K, V, T, R]) Val() V         { return c.cursors[c.minVal[0]].Val() }

func (c *CursorList[K, V, T, R]) MapTimes(logic func(T, R)) {
	for _, i := range c.minVal {
		c.cursors[i].MapTimes(logic)
	}
}

func (c *CursorList[K, V, T, R]) StepKey() {
	for _, i := range c.minKey {
		c.cursors[i].StepKey()
	}
	c.minimizeKeys()
}

func (c *CursorList[K, V, T, R]) SeekKey(key K) {
	for _, cur := range c.cursors {
		cur.SeekKey(key)
	}
	c.minimizeKeys()
}

func (c *CursorList[K, V, T, R]) StepVal() {
	for _, i := range c.minVal {
		c.cursors[i].StepVal()
	}
	c.minimizeVals()
}

func (c *CursorList[K, V, T, R]) SeekVal(val V) {
	for _, i := range c.minKey {
		c.cursors[i].SeekVal(val)
	}
	c.minimizeVals()
}

func (c *CursorList[K, V, T, R]) RewindKeys() {
	for _, cur := range c.cursors {
		cur.RewindKeys()
	}
	c.minimizeKeys()
}

func (c *CursorList[K, V, T, R]) RewindVals() {
	for _, i := range c.minKey {
		c.cursors[i].RewindVals()
	}
	c.minimizeVals()
}

// Walk visits every (key, value) of a cursor from its current position, in order, rewinding
// nothing. It returns early when visit returns false.
func Walk[K, V cmp.Ordered, T lattice.Lattice[T], R Diff](c Cursor[K, V, T, R], visit func(key K, val V, t T, r R) bool) {
	for ; c.KeyValid(); c.StepKey() {
		for ; c.ValValid(); c.StepVal() {
			cont := true
			key, val := c.Key(), c.Val()
			c.MapTimes(func(t T, r R) {
				if cont {
					cont = visit(key, val, t, r)
				}
			})
			if !cont {
				return
			}
		}
	}
}

// Collect rewinds the cursor and returns all its updates, consolidated.
func Collect[K, V cmp.Ordered, T lattice.Lattice[T], R Diff](c Cursor[K, V, T, R]) []Update[K, V, T, R] {
	c.RewindKeys()
	var updates []Update[K, V, T, R]
	Walk(c, func(key K, val V, t T, r R) bool {
		updates = append(updates, Update[K, V, T, R]{Key: key, Val: val, Time: t, Diff: r})
		return true
	})
	return ConsolidateUpdates(updates, 0)
}
