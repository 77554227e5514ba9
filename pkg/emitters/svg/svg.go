// Package svg writes a standalone SVG picture of the diagram.
package svg

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/de-tools/aws-atlas/pkg/emitters/geometry"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/de-tools/aws-atlas/pkg/services/layout"
)

const lineHeight = 14

type Emitter struct {
	opts geometry.Options
}

func New() *Emitter {
	return &Emitter{opts: geometry.DefaultOptions()}
}

func (e *Emitter) Format() string      { return "svg" }
func (e *Emitter) Extension() string   { return "svg" }
func (e *Emitter) ContentType() string { return "image/svg+xml" }

func (e *Emitter) Emit(w io.Writer, d *layout.Diagram) error {
	canvas := geometry.Arrange(d.Forest, e.opts)

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("svg")
	root.CreateAttr("xmlns", "http://www.w3.org/2000/svg")
	root.CreateAttr("width", num(canvas.W))
	root.CreateAttr("height", num(canvas.H))
	root.CreateAttr("viewBox", fmt.Sprintf("0 0 %s %s", num(canvas.W), num(canvas.H)))
	root.CreateAttr("font-family", "Helvetica, Arial, sans-serif")

	if d.Title != "" {
		root.CreateElement("title").SetText(d.Title)
	}
	e.defs(root)

	bg := root.CreateElement("rect")
	bg.CreateAttr("width", "100%")
	bg.CreateAttr("height", "100%")
	bg.CreateAttr("fill", "#ffffff")

	nodes := root.CreateElement("g")
	nodes.CreateAttr("id", "nodes")
	canvas.Walk(func(b *geometry.Box) {
		if b.Node.IsGroup() {
			e.group(nodes, b)
		} else {
			e.leaf(nodes, b)
		}
	})

	connectors := root.CreateElement("g")
	connectors.CreateAttr("id", "connectors")
	for _, c := range d.Connectors {
		from, okFrom := canvas.Box(c.From)
		to, okTo := canvas.Box(c.To)
		if !okFrom || !okTo {
			continue
		}
		e.connector(connectors, from, to, c.Relation)
	}

	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write svg document: %w", err)
	}
	return nil
}

func (e *Emitter) defs(root *etree.Element) {
	defs := root.CreateElement("defs")
	for _, rel := range domain.Relations() {
		marker := defs.CreateElement("marker")
		marker.CreateAttr("id", markerID(rel))
		marker.CreateAttr("viewBox", "0 0 10 10")
		marker.CreateAttr("refX", "10")
		marker.CreateAttr("refY", "5")
		marker.CreateAttr("markerWidth", "8")
		marker.CreateAttr("markerHeight", "8")
		marker.CreateAttr("orient", "auto")
		path := marker.CreateElement("path")
		path.CreateAttr("d", "M 0 0 L 10 5 L 0 10 z")
		path.CreateAttr("fill", geometry.RelationColor(rel))
	}
}

func (e *Emitter) group(parent *etree.Element, b *geometry.Box) {
	stroke, fill := geometry.GroupColors(b.Node)
	g := parent.CreateElement("g")
	g.CreateAttr("id", b.Node.ID)
	g.CreateAttr("class", "group "+string(b.Node.Group))

	rect := g.CreateElement("rect")
	rect.CreateAttr("x", num(b.AbsX))
	rect.CreateAttr("y", num(b.AbsY))
	rect.CreateAttr("width", num(b.W))
	rect.CreateAttr("height", num(b.H))
	rect.CreateAttr("rx", "6")
	rect.CreateAttr("fill", fill)
	rect.CreateAttr("stroke", stroke)
	rect.CreateAttr("stroke-width", "1.5")
	if b.Node.Group == layout.GroupAZ || b.Node.Group == layout.GroupExternal {
		rect.CreateAttr("stroke-dasharray", "6 4")
	}

	text(g, b.AbsX+10, b.AbsY+18, "start", stroke, b.Node.Label, true)
}

func (e *Emitter) leaf(parent *etree.Element, b *geometry.Box) {
	style := geometry.StyleOf(b.Node.Kind)
	g := parent.CreateElement("g")
	g.CreateAttr("id", b.Node.ID)
	g.CreateAttr("class", string(b.Node.Type)+" "+strings.ToLower(string(b.Node.Kind)))

	size := e.opts.IconSize
	x, y := b.Icon(size)
	icon := g.CreateElement("rect")
	icon.CreateAttr("x", num(x))
	icon.CreateAttr("y", num(y))
	icon.CreateAttr("width", num(size))
	icon.CreateAttr("height", num(size))
	icon.CreateAttr("rx", "4")
	icon.CreateAttr("fill", style.Color)

	glyph := g.CreateElement("text")
	glyph.CreateAttr("x", num(x+size/2))
	glyph.CreateAttr("y", num(y+size/2+4))
	glyph.CreateAttr("text-anchor", "middle")
	glyph.CreateAttr("font-size", "11")
	glyph.CreateAttr("font-weight", "bold")
	glyph.CreateAttr("fill", "#ffffff")
	glyph.SetText(abbreviation(b.Node))

	text(g, b.AbsX+b.W/2, y+size+lineHeight, "middle", geometry.ColorText, b.Node.Label, b.Node.Type == layout.NodeSummary)
}

func (e *Emitter) connector(parent *etree.Element, from, to *geometry.Box, rel domain.RelationKind) {
	x1, y1 := from.Center()
	x2, y2 := to.Center()
	line := parent.CreateElement("line")
	line.CreateAttr("x1", num(x1))
	line.CreateAttr("y1", num(y1))
	line.CreateAttr("x2", num(x2))
	line.CreateAttr("y2", num(y2))
	line.CreateAttr("stroke", geometry.RelationColor(rel))
	line.CreateAttr("stroke-width", "1.5")
	line.CreateAttr("marker-end", "url(#"+markerID(rel)+")")
	line.CreateAttr("data-relation", string(rel))
	if geometry.Dashed(rel) {
		line.CreateAttr("stroke-dasharray", "5 3")
	}
}

// text writes a label; each line becomes a tspan.
func text(parent *etree.Element, x, y float64, anchor, color, label string, bold bool) {
	t := parent.CreateElement("text")
	t.CreateAttr("x", num(x))
	t.CreateAttr("y", num(y))
	t.CreateAttr("text-anchor", anchor)
	t.CreateAttr("font-size", "11")
	t.CreateAttr("fill", color)
	for i, line := range strings.Split(label, "\n") {
		span := t.CreateElement("tspan")
		span.CreateAttr("x", num(x))
		if i > 0 {
			span.CreateAttr("dy", strconv.Itoa(lineHeight))
		}
		if i == 0 && bold {
			span.CreateAttr("font-weight", "bold")
		}
		span.SetText(line)
	}
}

func abbreviation(n *layout.Node) string {
	var b strings.Builder
	for _, r := range n.Kind.Label() {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if len(s) > 4 {
		s = s[:4]
	}
	return s
}

func markerID(rel domain.RelationKind) string {
	return "arrow-" + strings.ToLower(string(rel))
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
