package layout

import (
	"slices"

	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/de-tools/aws-atlas/pkg/services/inference"
)

// Forest is the planner output. It must not be modified after Plan returns.
type Forest struct {
	Trees []*Node

	nodes   map[string]*Node
	parents map[string]string
	visible map[string]string
}

func newForest() *Forest {
	return &Forest{
		nodes:   make(map[string]*Node),
		parents: make(map[string]string),
		visible: make(map[string]string),
	}
}

// index records node lookups and parent links once the trees are final.
func (f *Forest) index() {
	for _, t := range f.Trees {
		t.Walk(func(n, parent *Node, _ int) bool {
			f.nodes[n.ID] = n
			if parent != nil {
				f.parents[n.ID] = parent.ID
			}
			return true
		})
	}
}

func (f *Forest) Node(id string) (*Node, bool) {
	n, ok := f.nodes[id]
	return n, ok
}

func (f *Forest) Len() int {
	return len(f.nodes)
}

func (f *Forest) Empty() bool {
	return len(f.Trees) == 0
}

// VisibleID returns the id of the node that shows the resource: its own leaf,
// the summary it was merged into, or the endpoint representing it.
func (f *Forest) VisibleID(resourceID string) (string, bool) {
	id, ok := f.visible[resourceID]
	return id, ok
}

func (f *Forest) Parent(id string) (string, bool) {
	p, ok := f.parents[id]
	return p, ok
}

// Ancestors lists the ids above id, nearest first.
func (f *Forest) Ancestors(id string) []string {
	var out []string
	for {
		p, ok := f.parents[id]
		if !ok {
			return out
		}
		out = append(out, p)
		id = p
	}
}

func (f *Forest) Walk(fn func(node, parent *Node, depth int) bool) {
	for _, t := range f.Trees {
		t.Walk(fn)
	}
}

// Connector is an edge between two visible nodes.
type Connector struct {
	From     string
	To       string
	Relation domain.RelationKind
}

// DefaultConnectorRelations are the relations drawn unless asked otherwise.
func DefaultConnectorRelations() []domain.RelationKind {
	return []domain.RelationKind{
		domain.RelationRoutesTo,
		domain.RelationTargets,
		domain.RelationTriggers,
	}
}

// Connectors remaps non-containment edges onto visible nodes. Edges collapsing
// into one node, or joining a node to its own ancestor, are dropped. With no
// relations given, DefaultConnectorRelations is used.
func (f *Forest) Connectors(edges *inference.EdgeSet, relations ...domain.RelationKind) []Connector {
	if edges == nil {
		return nil
	}
	if len(relations) == 0 {
		relations = DefaultConnectorRelations()
	}

	seen := make(map[Connector]bool)
	var out []Connector
	for _, e := range edges.Edges() {
		if e.Relation == domain.RelationContains || !slices.Contains(relations, e.Relation) {
			continue
		}
		from, okFrom := f.visible[e.From]
		to, okTo := f.visible[e.To]
		if !okFrom || !okTo || from == to {
			continue
		}
		if slices.Contains(f.Ancestors(from), to) || slices.Contains(f.Ancestors(to), from) {
			continue
		}
		c := Connector{From: from, To: to, Relation: e.Relation}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// Diagram is what emitters render.
type Diagram struct {
	Title      string
	Forest     *Forest
	Connectors []Connector
}

func NewDiagram(title string, forest *Forest, edges *inference.EdgeSet, relations ...domain.RelationKind) *Diagram {
	return &Diagram{
		Title:      title,
		Forest:     forest,
		Connectors: forest.Connectors(edges, relations...),
	}
}
