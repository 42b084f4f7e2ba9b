package arrange

import (
	"fmt"
	"strings"

	"github.com/l7mp/ddflow/pkg/dataflow"
	"github.com/l7mp/ddflow/pkg/lattice"
)

// capabilities is a set of held capabilities. Inserted through insert, it is kept an antichain.
type capabilities[T lattice.Lattice[T]] []*dataflow.Capability[T]

// insert adds a capability unless an earlier one is held, dropping the ones it makes redundant.
func (cs capabilities[T]) insert(c *dataflow.Capability[T]) capabilities[T] {
	for _, e := range cs {
		if e.Time().LessEqual(c.Time()) {
			c.Drop()
			return cs
		}
	}
	kept := make(capabilities[T], 0, len(cs)+1)
	for _, e := range cs {
		if c.Time().LessEqual(e.Time()) {
			e.Drop()
			continue
		}
		kept = append(kept, e)
	}
	return append(kept, c)
}

// find returns a capability whose time is less or equal to t.
func (cs capabilities[T]) find(t T) *dataflow.Capability[T] {
	for _, c := range cs {
		if c.Time().LessEqual(t) {
			return c
		}
	}
	return nil
}

func (cs capabilities[T]) drop() {
	for _, c := range cs {
		c.Drop()
	}
}

func (cs capabilities[T]) times() lattice.Antichain[T] {
	ts := make(lattice.Antichain[T], 0, len(cs))
	for _, c := range cs {
		ts = append(ts, c.Time())
	}
	return ts
}

func (cs capabilities[T]) String() string {
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, c.Time().String())
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
}
