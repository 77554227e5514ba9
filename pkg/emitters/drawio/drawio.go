// Package drawio writes diagrams as draw.io (mxGraph) documents using the AWS4
// shape library.
package drawio

import (
	"fmt"
	"html"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/de-tools/aws-atlas/pkg/emitters/geometry"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/de-tools/aws-atlas/pkg/services/layout"
)

type Emitter struct {
	opts geometry.Options
}

func New() *Emitter {
	return &Emitter{opts: geometry.DefaultOptions()}
}

func (e *Emitter) Format() string      { return "drawio" }
func (e *Emitter) Extension() string   { return "drawio" }
func (e *Emitter) ContentType() string { return "application/xml" }

func (e *Emitter) Emit(w io.Writer, d *layout.Diagram) error {
	canvas := geometry.Arrange(d.Forest, e.opts)

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	mxfile := doc.CreateElement("mxfile")
	mxfile.CreateAttr("host", "aws-atlas")
	mxfile.CreateAttr("type", "device")

	diagram := mxfile.CreateElement("diagram")
	diagram.CreateAttr("id", "aws-architecture")
	diagram.CreateAttr("name", title(d))

	model := diagram.CreateElement("mxGraphModel")
	for _, kv := range [][2]string{
		{"dx", "1422"}, {"dy", "794"}, {"grid", "1"}, {"gridSize", "10"},
		{"guides", "1"}, {"tooltips", "1"}, {"connect", "1"}, {"arrows", "1"},
		{"fold", "1"}, {"page", "1"}, {"pageScale", "1"},
		{"pageWidth", num(canvas.W)}, {"pageHeight", num(canvas.H)},
		{"math", "0"}, {"shadow", "0"},
	} {
		model.CreateAttr(kv[0], kv[1])
	}

	root := model.CreateElement("root")
	root.CreateElement("mxCell").CreateAttr("id", "0")
	layer := root.CreateElement("mxCell")
	layer.CreateAttr("id", "1")
	layer.CreateAttr("parent", "0")

	cells := make(map[string]string)
	seq := 0
	canvas.Walk(func(b *geometry.Box) {
		seq++
		id := "n" + strconv.Itoa(seq)
		cells[b.Node.ID] = id

		parent := "1"
		if b.Parent != nil {
			parent = cells[b.Parent.Node.ID]
		}

		cell := root.CreateElement("mxCell")
		cell.CreateAttr("id", id)
		cell.CreateAttr("value", label(b.Node.Label))
		cell.CreateAttr("style", style(b.Node))
		cell.CreateAttr("vertex", "1")
		cell.CreateAttr("parent", parent)

		x, y, width, height := b.X, b.Y, b.W, b.H
		if !b.Node.IsGroup() {
			size := e.opts.IconSize
			x, y, width, height = b.X+(b.W-size)/2, b.Y+10, size, size
		}
		geo := cell.CreateElement("mxGeometry")
		geo.CreateAttr("x", num(x))
		geo.CreateAttr("y", num(y))
		geo.CreateAttr("width", num(width))
		geo.CreateAttr("height", num(height))
		geo.CreateAttr("as", "geometry")
	})

	for i, c := range d.Connectors {
		src, okSrc := cells[c.From]
		dst, okDst := cells[c.To]
		if !okSrc || !okDst {
			continue
		}
		cell := root.CreateElement("mxCell")
		cell.CreateAttr("id", "e"+strconv.Itoa(i+1))
		cell.CreateAttr("value", "")
		cell.CreateAttr("style", edgeStyle(c.Relation))
		cell.CreateAttr("edge", "1")
		cell.CreateAttr("parent", "1")
		cell.CreateAttr("source", src)
		cell.CreateAttr("target", dst)
		geo := cell.CreateElement("mxGeometry")
		geo.CreateAttr("relative", "1")
		geo.CreateAttr("as", "geometry")
	}

	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write drawio document: %w", err)
	}
	return nil
}

func title(d *layout.Diagram) string {
	if d.Title != "" {
		return d.Title
	}
	return "AWS Architecture"
}

// label converts a multi-line label into the HTML value draw.io expects.
func label(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = html.EscapeString(l)
	}
	if len(lines) > 1 {
		lines[0] = "<b>" + lines[0] + "</b>"
	}
	return strings.Join(lines, "<br>")
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func style(n *layout.Node) string {
	if n.IsGroup() {
		return groupStyle(n)
	}
	s := geometry.StyleOf(n.Kind)
	fontStyle := "0"
	if n.Type == layout.NodeSummary {
		fontStyle = "1"
	}
	return join(map[string]string{
		"sketch":                "0",
		"outlineConnect":        "0",
		"fontColor":             geometry.ColorText,
		"gradientColor":         "none",
		"fillColor":             s.Color,
		"strokeColor":           "#ffffff",
		"dashed":                "0",
		"verticalLabelPosition": "bottom",
		"verticalAlign":         "top",
		"align":                 "center",
		"html":                  "1",
		"fontSize":              "11",
		"fontStyle":             fontStyle,
		"aspect":                "fixed",
		"shape":                 "mxgraph.aws4.resourceIcon",
		"resIcon":               "mxgraph.aws4." + s.Icon,
	})
}

func groupStyle(n *layout.Node) string {
	stroke, fill := geometry.GroupColors(n)
	attrs := map[string]string{
		"html":            "1",
		"whiteSpace":      "wrap",
		"fontSize":        "12",
		"fontStyle":       "0",
		"container":       "1",
		"collapsible":     "0",
		"strokeColor":     stroke,
		"fillColor":       fill,
		"fontColor":       stroke,
		"verticalAlign":   "top",
		"align":           "left",
		"spacingLeft":     "30",
		"dashed":          "0",
		"pointerEvents":   "0",
		"recursiveResize": "0",
	}
	switch n.Group {
	case layout.GroupVPC:
		attrs["shape"] = "mxgraph.aws4.group"
		attrs["grIcon"] = "mxgraph.aws4.group_vpc2"
	case layout.GroupAZ:
		attrs["dashed"] = "1"
		attrs["rounded"] = "1"
		attrs["align"] = "center"
		attrs["spacingLeft"] = "0"
	case layout.GroupSubnet:
		attrs["shape"] = "mxgraph.aws4.group"
		attrs["grIcon"] = "mxgraph.aws4.group_security_group"
		attrs["grStroke"] = "0"
	default:
		attrs["rounded"] = "1"
		attrs["dashed"] = "1"
		attrs["spacingLeft"] = "10"
	}
	return join(attrs)
}

func edgeStyle(rel domain.RelationKind) string {
	attrs := map[string]string{
		"edgeStyle":      "orthogonalEdgeStyle",
		"rounded":        "0",
		"orthogonalLoop": "1",
		"jettySize":      "auto",
		"html":           "1",
		"endArrow":       "block",
		"endFill":        "1",
		"strokeColor":    geometry.RelationColor(rel),
		"strokeWidth":    "1",
	}
	if geometry.Dashed(rel) {
		attrs["dashed"] = "1"
	}
	if rel == domain.RelationTriggers {
		attrs["strokeWidth"] = "2"
	}
	return join(attrs)
}

// join renders a style map with keys in a fixed order so output is stable.
func join(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(attrs[k])
		b.WriteByte(';')
	}
	return b.String()
}
