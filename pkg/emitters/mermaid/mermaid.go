// Package mermaid writes the diagram as a Mermaid flowchart with one subgraph
// per group.
package mermaid

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/de-tools/aws-atlas/pkg/services/layout"
)

type Emitter struct{}

func New() *Emitter {
	return &Emitter{}
}

func (e *Emitter) Format() string      { return "mermaid" }
func (e *Emitter) Extension() string   { return "mmd" }
func (e *Emitter) ContentType() string { return "text/plain; charset=utf-8" }

type classStyle struct {
	name  string
	style string
}

var (
	classCompute  = classStyle{"compute", "fill:#fff3e0,stroke:#e65100"}
	classDatabase = classStyle{"database", "fill:#fce4ec,stroke:#c2185b"}
	classStorage  = classStyle{"storage", "fill:#e8f5e8,stroke:#2e7d32"}
	classNetwork  = classStyle{"network", "fill:#e1f5fe,stroke:#01579b"}
	classMessage  = classStyle{"integration", "fill:#f3e5f5,stroke:#4a148c"}
	classDefault  = classStyle{"other", "fill:#f5f5f5,stroke:#616161"}
)

func (e *Emitter) Emit(w io.Writer, d *layout.Diagram) error {
	r := &renderer{ids: make(map[string]string), used: make(map[string]bool), classes: make(map[classStyle][]string)}

	var b strings.Builder
	b.WriteString("graph TD\n")
	if d.Title != "" {
		fmt.Fprintf(&b, "    %%%% %s\n", strings.ReplaceAll(d.Title, "\n", " "))
	}

	if d.Forest != nil {
		for _, t := range d.Forest.Trees {
			r.node(&b, t, 1)
		}
	}

	for _, c := range d.Connectors {
		from, okFrom := r.ids[c.From]
		to, okTo := r.ids[c.To]
		if !okFrom || !okTo {
			continue
		}
		fmt.Fprintf(&b, "    %s %s|%s| %s\n", from, arrow(c.Relation), c.Relation, to)
	}

	if len(r.classes) > 0 {
		b.WriteString("\n    %% Styling\n")
		styles := make([]classStyle, 0, len(r.classes))
		for cs := range r.classes {
			styles = append(styles, cs)
		}
		sort.Slice(styles, func(i, j int) bool { return styles[i].name < styles[j].name })
		for _, cs := range styles {
			fmt.Fprintf(&b, "    classDef %s %s\n", cs.name, cs.style)
			fmt.Fprintf(&b, "    class %s %s\n", strings.Join(r.classes[cs], ","), cs.name)
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write mermaid diagram: %w", err)
	}
	return nil
}

type renderer struct {
	ids     map[string]string
	used    map[string]bool
	classes map[classStyle][]string
}

func (r *renderer) node(b *strings.Builder, n *layout.Node, depth int) {
	indent := strings.Repeat("    ", depth)
	id := r.id(n.ID)
	label := escapeLabel(n.Label)

	if n.IsGroup() {
		fmt.Fprintf(b, "%ssubgraph %s[\"%s\"]\n", indent, id, label)
		for _, c := range n.Children {
			r.node(b, c, depth+1)
		}
		fmt.Fprintf(b, "%send\n", indent)
		return
	}

	left, right := shape(n.Kind)
	fmt.Fprintf(b, "%s%s%s\"%s\"%s\n", indent, id, left, label, right)
	cs := class(n.Kind)
	r.classes[cs] = append(r.classes[cs], id)
}

// id cleans a node id for Mermaid and keeps it unique within the document.
func (r *renderer) id(raw string) string {
	if id, ok := r.ids[raw]; ok {
		return id
	}
	id := cleanNodeID(raw)
	base := id
	for i := 2; r.used[id]; i++ {
		id = base + "_" + strconv.Itoa(i)
	}
	r.used[id] = true
	r.ids[raw] = id
	return id
}

func shape(kind domain.Kind) (string, string) {
	switch kind {
	case domain.KindS3Bucket, domain.KindEfs:
		return "{", "}"
	case domain.KindRdsInstance, domain.KindDynamoTable, domain.KindElastiCacheCluster:
		return "[(", ")]"
	case domain.KindLambdaFunction:
		return ">", "]"
	case domain.KindQueue, domain.KindTopic, domain.KindEventRule:
		return "([", "])"
	case domain.KindInternetGateway, domain.KindNatGateway, domain.KindVpcEndpoint:
		return "((", "))"
	default:
		return "[", "]"
	}
}

func class(kind domain.Kind) classStyle {
	switch kind {
	case domain.KindInstance, domain.KindEcsCluster, domain.KindEcsService, domain.KindEksCluster, domain.KindLambdaFunction:
		return classCompute
	case domain.KindRdsInstance, domain.KindDynamoTable, domain.KindElastiCacheCluster:
		return classDatabase
	case domain.KindS3Bucket, domain.KindEfs:
		return classStorage
	case domain.KindQueue, domain.KindTopic, domain.KindEventRule, domain.KindRestApi, domain.KindLogGroup:
		return classMessage
	case domain.KindRouteTable, domain.KindInternetGateway, domain.KindNatGateway, domain.KindVpcEndpoint,
		domain.KindLoadBalancer, domain.KindListener, domain.KindTargetGroup, domain.KindDistribution,
		domain.KindSecurityGroup:
		return classNetwork
	default:
		return classDefault
	}
}

func arrow(rel domain.RelationKind) string {
	switch rel {
	case domain.RelationRoutesTo:
		return "-.->"
	case domain.RelationTriggers:
		return "==>"
	case domain.RelationAttachedTo:
		return "---"
	default:
		return "-->"
	}
}

func cleanNodeID(id string) string {
	replacer := strings.NewReplacer(
		"-", "_", ":", "_", "/", "_", ".", "_", " ", "_",
		"(", "_", ")", "_", "[", "_", "]", "_", "{", "_", "}", "_",
		"*", "_", "$", "_", "@", "_", "#", "_",
	)
	cleaned := replacer.Replace(id)
	if cleaned == "" || !isLetter(cleaned[0]) {
		cleaned = "n" + cleaned
	}
	return cleaned
}

func escapeLabel(label string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"\"", "#quot;",
		"<", "&lt;",
		">", "&gt;",
		"\n", "<br/>",
	)
	return replacer.Replace(label)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
