// Package markdown writes a resource report for a planned diagram: a section
// per group, a property table per resource and the drawn relationships.
package markdown

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/de-tools/aws-atlas/pkg/services/layout"
)

type Emitter struct {
	// DiagramFile is linked from the report header when set.
	DiagramFile string
}

func New() *Emitter {
	return &Emitter{}
}

// WithDiagram returns an emitter whose report embeds the given image.
func WithDiagram(file string) *Emitter {
	return &Emitter{DiagramFile: file}
}

func (e *Emitter) Format() string      { return "markdown" }
func (e *Emitter) Extension() string   { return "md" }
func (e *Emitter) ContentType() string { return "text/markdown; charset=utf-8" }

func (e *Emitter) Emit(w io.Writer, d *layout.Diagram) error {
	var b strings.Builder

	title := d.Title
	if title == "" {
		title = "AWS Architecture"
	}
	fmt.Fprintf(&b, "# %s\n", inline(title))
	if e.DiagramFile != "" {
		fmt.Fprintf(&b, "\n![%s](%s)\n", inline(title), e.DiagramFile)
	}

	var trees []*layout.Node
	if d.Forest != nil {
		trees = d.Forest.Trees
	}

	counts := make(map[domain.Kind]int)
	for _, t := range trees {
		count(t, counts)
	}
	if len(counts) > 0 {
		b.WriteString("\n## Summary\n\n| Kind | Count |\n| --- | ---: |\n")
		for _, k := range sortedKinds(counts) {
			fmt.Fprintf(&b, "| %s | %d |\n", k, counts[k])
		}
	}

	for _, t := range trees {
		section(&b, t, nil)
	}

	if len(d.Connectors) > 0 {
		b.WriteString("\n## Relationships\n\n| From | Relation | To |\n| --- | --- | --- |\n")
		for _, c := range d.Connectors {
			fmt.Fprintf(&b, "| `%s` | %s | `%s` |\n", cell(c.From), c.Relation, cell(c.To))
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write markdown report: %w", err)
	}
	return nil
}

// section writes one group and recurses into its subgroups. path holds the
// labels of the enclosing groups.
func section(b *strings.Builder, n *layout.Node, path []string) {
	if !n.IsGroup() {
		return
	}
	path = append(path, inline(n.Label))
	fmt.Fprintf(b, "\n## %s\n", strings.Join(path, " / "))
	if n.Public {
		b.WriteString("\nPublic subnet.\n")
	}
	if n.Resource != nil {
		properties(b, *n.Resource)
	}

	for _, c := range n.Leaves() {
		if c.Type == layout.NodeSummary {
			fmt.Fprintf(b, "\n### %s (%d)\n\n", c.Kind, c.Count)
			for _, m := range c.Members {
				fmt.Fprintf(b, "- `%s`\n", cell(m))
			}
			continue
		}
		if c.Resource == nil {
			continue
		}
		fmt.Fprintf(b, "\n### %s: %s\n", c.Kind, inline(c.Resource.DisplayName()))
		properties(b, *c.Resource)
	}

	for _, c := range n.Children {
		if c.IsGroup() {
			section(b, c, path)
		}
	}
}

func properties(b *strings.Builder, r domain.Resource) {
	b.WriteString("\n| Property | Value |\n| --- | --- |\n")
	fmt.Fprintf(b, "| id | `%s` |\n", cell(r.ID))
	fmt.Fprintf(b, "| kind | %s |\n", r.Kind)
	if r.Region != "" {
		fmt.Fprintf(b, "| region | %s |\n", cell(r.Region))
	}
	for _, k := range r.SortedAttributeKeys() {
		fmt.Fprintf(b, "| %s | %s |\n", cell(k), cell(value(r.Attributes[k])))
	}
}

func count(n *layout.Node, counts map[domain.Kind]int) {
	switch n.Type {
	case layout.NodeLeaf:
		counts[n.Kind]++
	case layout.NodeSummary:
		counts[n.Kind] += n.Count
	}
	for _, c := range n.Children {
		count(c, counts)
	}
}

func sortedKinds(counts map[domain.Kind]int) []domain.Kind {
	kinds := make([]domain.Kind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func value(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(t, ", ")
	case []any:
		parts := make([]string, len(t))
		for i, p := range t {
			parts[i] = value(p)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}

// cell keeps a value on one table row.
func cell(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ", "\r", "").Replace(s)
}

func inline(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
}
