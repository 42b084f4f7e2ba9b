// Package visualize renders the physical layout of traces as diagrams: the batches of the trace in
// order, merges in progress, the trace frontiers and the holds of its readers.
package visualize

import (
	"cmp"
	"fmt"

	"github.com/emicklei/dot"

	"github.com/l7mp/ddflow/pkg/lattice"
	"github.com/l7mp/ddflow/pkg/trace"
)

// Layout is a trace that exposes its physical layout, see trace.Spine.
type Layout[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff] interface {
	Identifier() trace.BatchIdentifier
	Layout() []trace.Segment[K, V, T, R]
	Upper() lattice.Antichain[T]
	AdvanceFrontier() lattice.Antichain[T]
	DistinguishFrontier() lattice.Antichain[T]
}

// Graph represents the visualization graph of a trace.
type Graph struct {
	Name        string
	ID          string
	Segments    []SegmentNode
	Upper       string
	Advance     string
	Distinguish string
	Readers     []ReaderNode
}

// SegmentNode is a batch of the trace, or a merge in progress of two batches.
type SegmentNode struct {
	Batches []BatchNode
	Merging bool
}

// BatchNode represents a single batch.
type BatchNode struct {
	Lower, Upper, Since string
	Len                 int
}

// ReaderNode represents the holds of a reader of the trace.
type ReaderNode struct {
	Name        string
	Advance     string
	Distinguish string
}

// BuildGraph constructs a visualization graph from the layout of a trace.
func BuildGraph[K, V cmp.Ordered, T lattice.Lattice[T], R trace.Diff](name string, tr Layout[K, V, T, R]) *Graph {
	layout := tr.Layout()
	g := &Graph{
		Name:        name,
		ID:          tr.Identifier().String(),
		Segments:    make([]SegmentNode, 0, len(layout)),
		Upper:       tr.Upper().String(),
		Advance:     tr.AdvanceFrontier().String(),
		Distinguish: tr.DistinguishFrontier().String(),
	}
	for _, seg := range layout {
		node := SegmentNode{Merging: seg.Merging, Batches: make([]BatchNode, 0, len(seg.Batches))}
		for _, b := range seg.Batches {
			desc := b.Description()
			node.Batches = append(node.Batches, BatchNode{
				Lower: desc.Lower.String(),
				Upper: desc.Upper.String(),
				Since: desc.Since.String(),
				Len:   b.Len(),
			})
		}
		g.Segments = append(g.Segments, node)
	}
	return g
}

// AddReader adds the holds of a reader to the graph.
func AddReader[T lattice.Lattice[T]](g *Graph, name string, advance, distinguish lattice.Antichain[T]) {
	g.Readers = append(g.Readers, ReaderNode{
		Name:        name,
		Advance:     advance.String(),
		Distinguish: distinguish.String(),
	})
}

// Batches returns the number of batches in the graph.
func (g *Graph) Batches() int {
	n := 0
	for _, s := range g.Segments {
		n += len(s.Batches)
	}
	return n
}

// FormatBatch formats a batch for display.
func FormatBatch(b BatchNode) string {
	return fmt.Sprintf("[%s, %s) since %s: %d updates", b.Lower, b.Upper, b.Since, b.Len)
}

// BuildDotGraph creates a dot.Graph from the visualization graph. This unified graph can then be
// rendered in different formats (DOT, Mermaid, etc.).
func BuildDotGraph(g *Graph) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "LR")
	graph.Attr("compound", "true")
	graph.Attr("label", fmt.Sprintf("%s (%s)", g.Name, g.ID))
	graph.Attr("labelloc", "t")
	graph.Attr("fontsize", "16")

	frontiers := graph.Node("frontiers").
		Attr("label", fmt.Sprintf("upper %s, advance %s, distinguish %s", g.Upper, g.Advance, g.Distinguish)).
		Attr("shape", "note").
		Attr("style", "filled").
		Attr("fillcolor", "lightyellow").
		Attr("fontname", "helvetica")

	var prev *dot.Node
	i := 0
	for s, seg := range g.Segments {
		parent := graph
		if seg.Merging {
			parent = graph.Subgraph(fmt.Sprintf("merge %d", s), dot.ClusterOption{})
			parent.Attr("style", "dashed")
			parent.Attr("color", "blue")
		}
		for _, b := range seg.Batches {
			node := parent.Node(fmt.Sprintf("batch-%d", i)).
				Attr("label", FormatBatch(b)).
				Attr("shape", "box").
				Attr("style", "filled,rounded").
				Attr("fillcolor", "lightblue").
				Attr("color", "darkblue").
				Attr("fontname", "helvetica")
			if prev != nil {
				graph.Edge(*prev, node).
					Attr("label", b.Lower).
					Attr("fontname", "helvetica").
					Attr("fontsize", "10")
			}
			prev = &node
			i++
		}
	}
	if prev != nil {
		graph.Edge(*prev, frontiers).
			Attr("label", g.Upper).
			Attr("style", "dotted").
			Attr("fontsize", "10")
	}

	for r, reader := range g.Readers {
		node := graph.Node(fmt.Sprintf("reader-%d", r)).
			Attr("label", reader.Name).
			Attr("shape", "ellipse").
			Attr("style", "filled").
			Attr("fillcolor", "lightgreen")
		graph.Edge(node, frontiers).
			Attr("label", fmt.Sprintf("advance %s, distinguish %s", reader.Advance, reader.Distinguish)).
			Attr("style", "dashed").
			Attr("fontname", "helvetica").
			Attr("fontsize", "10")
	}

	return graph
}
