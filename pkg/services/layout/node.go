package layout

import (
	"github.com/de-tools/aws-atlas/pkg/models/domain"
)

type NodeType string

const (
	NodeGroup   NodeType = "group"
	NodeLeaf    NodeType = "leaf"
	NodeSummary NodeType = "summary"
)

type GroupKind string

const (
	GroupVPC      GroupKind = "vpc"
	GroupAZ       GroupKind = "az"
	GroupSubnet   GroupKind = "subnet"
	GroupExternal GroupKind = "external"
)

const (
	ExternalGroupID    = "external-services"
	ExternalGroupLabel = "External Services"
)

// Node is a vertex of the containment forest. Groups have children; leaves wrap
// one resource; summaries stand in for Count leaves of one kind.
type Node struct {
	ID    string
	Type  NodeType
	Group GroupKind
	Kind  domain.Kind
	Label string
	// Public is set on subnet groups routed to an internet gateway.
	Public bool
	// Resource is set on leaves and on VPC and subnet groups.
	Resource   *domain.Resource
	Count      int
	Members    []string
	Represents []string
	Children   []*Node
}

func (n *Node) IsGroup() bool {
	return n.Type == NodeGroup
}

// Leaves returns the direct children that are leaves or summaries.
func (n *Node) Leaves() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if !c.IsGroup() {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits n and its descendants depth first. Returning false from fn skips
// the children of the visited node.
func (n *Node) Walk(fn func(node, parent *Node, depth int) bool) {
	n.walk(nil, 0, fn)
}

func (n *Node) walk(parent *Node, depth int, fn func(node, parent *Node, depth int) bool) {
	if !fn(n, parent, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(n, depth+1, fn)
	}
}
