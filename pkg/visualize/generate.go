package visualize

import (
	"fmt"

	"github.com/emicklei/dot"
)

// Generator renders a visualization graph.
type Generator interface {
	Generate(g *Graph) string
}

// NewGenerator returns the generator for a format, "dot" or "mermaid".
func NewGenerator(format string) (Generator, error) {
	switch format {
	case "dot", "":
		return &DotGenerator{}, nil
	case "mermaid":
		return &MermaidGenerator{}, nil
	default:
		return nil, &FormatError{Format: format}
	}
}

// DotGenerator renders Graphviz DOT.
type DotGenerator struct{}

func (d *DotGenerator) Generate(g *Graph) string {
	return BuildDotGraph(g).String()
}

// MermaidGenerator renders a Mermaid flowchart in a markdown code block. Batches are laid out
// left to right unless TopDown is set.
type MermaidGenerator struct {
	TopDown bool
}

func (m *MermaidGenerator) Generate(g *Graph) string {
	direction := dot.MermaidLeftToRight
	if m.TopDown {
		direction = dot.MermaidTopToBottom
	}
	return fmt.Sprintf("```mermaid\n%s\n```\n", dot.MermaidFlowchart(BuildDotGraph(g), direction))
}

// FormatError is returned for unknown output formats.
type FormatError struct {
	Format string
}

func (e *FormatError) Error() string {
	return "unknown visualization format " + e.Format + ", expected dot or mermaid"
}
