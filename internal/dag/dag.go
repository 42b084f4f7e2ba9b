// Package dag maintains the operator graph of a dataflow worker.
//
// Nodes are identified by dense integer ids in insertion order. Edges point from a producer to a
// consumer. The graph is kept acyclic by construction: an edge may only point to a node that was
// added after its source.
package dag

import (
	"fmt"
	"slices"
)

// Graph is a directed acyclic graph of labeled nodes.
type Graph struct {
	Nodes []string
	edges map[int][]int
	in    map[int]int
	order []int
}

// AddNode adds a node and returns its id.
func (g *Graph) AddNode(label string) int {
	g.Nodes = append(g.Nodes, label)
	g.order = nil
	return len(g.Nodes) - 1
}

// HasNode reports whether a node with the given id exists.
func (g *Graph) HasNode(id int) bool {
	return id >= 0 && id < len(g.Nodes)
}

// AddEdge adds an edge from a producer to a consumer. Edges to a node added earlier than the
// producer would permit cycles and are refused.
func (g *Graph) AddEdge(from, to int) error {
	if !g.HasNode(from) || !g.HasNode(to) {
		return fmt.Errorf("edge %d -> %d: unknown node", from, to)
	}
	if from >= to {
		return fmt.Errorf("edge %s -> %s: consumer must be added after producer",
			g.Nodes[from], g.Nodes[to])
	}
	if g.HasEdge(from, to) {
		return nil
	}
	g.edges[from] = append(g.edges[from], to)
	g.in[to]++
	g.order = nil
	return nil
}

// HasEdge reports whether there is an edge between two nodes.
func (g *Graph) HasEdge(from, to int) bool {
	return slices.Contains(g.edges[from], to)
}

// Edges returns the consumers of a node in id order.
func (g *Graph) Edges(from int) []int {
	edges := slices.Clone(g.edges[from])
	slices.Sort(edges)
	return edges
}
