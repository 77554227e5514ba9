// Package dot writes the diagram as a Graphviz digraph, optionally rendered
// to PNG by the dot binary.
package dot

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/de-tools/aws-atlas/pkg/emitters/geometry"
	"github.com/de-tools/aws-atlas/pkg/services/layout"
)

type Emitter struct{}

func New() *Emitter {
	return &Emitter{}
}

func (e *Emitter) Format() string      { return "dot" }
func (e *Emitter) Extension() string   { return "dot" }
func (e *Emitter) ContentType() string { return "text/vnd.graphviz; charset=utf-8" }

func (e *Emitter) Emit(w io.Writer, d *layout.Diagram) error {
	var b strings.Builder
	b.WriteString("digraph G {\n")
	graph := map[string]string{
		"rankdir":  "LR",
		"compound": "true",
		"fontname": "Helvetica",
	}
	if d.Title != "" {
		graph["label"] = d.Title
		graph["labelloc"] = "t"
	}
	fmt.Fprintf(&b, "  graph%s\n", attributesToString(graph))
	fmt.Fprintf(&b, "  node%s\n", attributesToString(map[string]string{
		"shape":    "box",
		"style":    "rounded,filled",
		"fontname": "Helvetica",
		"fontsize": "10",
	}))

	if d.Forest != nil {
		for _, t := range d.Forest.Trees {
			writeNode(&b, t, 1)
		}
	}

	for _, c := range d.Connectors {
		attribs := map[string]string{
			"label": string(c.Relation),
			"color": geometry.RelationColor(c.Relation),
		}
		if geometry.Dashed(c.Relation) {
			attribs["style"] = "dashed"
		}
		fmt.Fprintf(&b, "  %q -> %q%s\n", c.From, c.To, attributesToString(attribs))
	}
	b.WriteString("}\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write dot graph: %w", err)
	}
	return nil
}

func writeNode(b *strings.Builder, n *layout.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	if n.IsGroup() {
		stroke, fill := geometry.GroupColors(n)
		fmt.Fprintf(b, "%ssubgraph %q {\n", indent, "cluster_"+n.ID)
		fmt.Fprintf(b, "%s  graph%s\n", indent, attributesToString(map[string]string{
			"label":     n.Label,
			"color":     stroke,
			"bgcolor":   fill,
			"style":     "rounded",
			"fontcolor": stroke,
		}))
		for _, c := range n.Children {
			writeNode(b, c, depth+1)
		}
		fmt.Fprintf(b, "%s}\n", indent)
		return
	}
	style := geometry.StyleOf(n.Kind)
	attribs := map[string]string{
		"label":     n.Label,
		"fillcolor": style.Color,
		"fontcolor": "#ffffff",
	}
	if n.Type == layout.NodeSummary {
		attribs["peripheries"] = "2"
	}
	fmt.Fprintf(b, "%s%q%s\n", indent, n.ID, attributesToString(attribs))
}

// Runner turns DOT source into an image.
type Runner func(input io.Reader, output io.Writer) error

// ExecRunner runs the dot binary from PATH.
func ExecRunner(input io.Reader, output io.Writer) error {
	errBuff := new(bytes.Buffer)
	cmd := exec.Command("dot", "-Tpng")
	cmd.Stdin = input
	cmd.Stdout = output
	cmd.Stderr = errBuff
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("could not run 'dot': %w: %s", err, errBuff.String())
	}
	return nil
}

// PNGEmitter pipes the DOT output through a Runner.
type PNGEmitter struct {
	source *Emitter
	run    Runner
}

func NewPNG(run Runner) *PNGEmitter {
	return &PNGEmitter{source: New(), run: run}
}

func (e *PNGEmitter) Format() string      { return "png" }
func (e *PNGEmitter) Extension() string   { return "png" }
func (e *PNGEmitter) ContentType() string { return "image/png" }

func (e *PNGEmitter) Emit(w io.Writer, d *layout.Diagram) error {
	var src bytes.Buffer
	if err := e.source.Emit(&src, d); err != nil {
		return err
	}
	return e.run(&src, w)
}
