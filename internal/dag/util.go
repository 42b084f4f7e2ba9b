package dag

// New creates an empty graph.
func New() *Graph {
	return &Graph{edges: map[int][]int{}, in: map[int]int{}}
}

// Roots returns the roots of the DAG, i.e., the nodes without an incoming edge.
func (g *Graph) Roots() []int {
	roots := make([]int, 0, len(g.Nodes))
	for i := range g.Nodes {
		if g.in[i] == 0 {
			roots = append(roots, i)
		}
	}
	return roots
}

// TopologicalOrder returns the nodes so that every producer precedes its consumers. Among
// independent nodes the one added first comes first. The order is cached until the graph changes.
func (g *Graph) TopologicalOrder() []int {
	if g.order != nil {
		return g.order
	}

	in := make([]int, len(g.Nodes))
	for i := range g.Nodes {
		in[i] = g.in[i]
	}

	// Kahn's algorithm with the ready set kept sorted by id
	ready := g.Roots()
	order := make([]int, 0, len(g.Nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		for _, m := range g.Edges(n) {
			in[m]--
			if in[m] == 0 {
				ready = insertSorted(ready, m)
			}
		}
	}

	g.order = order
	return order
}

func insertSorted(s []int, n int) []int {
	i := 0
	for i < len(s) && s[i] < n {
		i++
	}
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = n
	return s
}
