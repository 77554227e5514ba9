// Package layout turns a catalog and its inferred edges into a containment
// forest: VPC, availability zone and subnet groups holding resource leaves,
// with everything else bucketed under External Services.
package layout

import (
	"fmt"
	"slices"

	"github.com/de-tools/aws-atlas/pkg/catalog"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/de-tools/aws-atlas/pkg/services/inference"
	"github.com/dominikbraun/graph"
)

const (
	DefaultMergeThreshold = 5
	unknownAZ             = "unknown"
)

type Policy struct {
	// MergeThreshold is the number of same-kind siblings at which they collapse
	// into one summary node.
	MergeThreshold int
}

func DefaultPolicy() Policy {
	return Policy{MergeThreshold: DefaultMergeThreshold}
}

type Planner struct {
	policy Policy
}

func NewPlanner(policy Policy) *Planner {
	if policy.MergeThreshold < 2 {
		policy.MergeThreshold = DefaultMergeThreshold
	}
	return &Planner{policy: policy}
}

func (p *Planner) Policy() Policy {
	return p.policy
}

type plan struct {
	cat     *catalog.Catalog
	edges   *inference.EdgeSet
	parents map[string]map[string]graph.Edge[string]
	forest  *Forest

	vpcs     map[string]*Node
	azs      map[string]*Node
	subnets  map[string]*Node
	vpcOf    map[string]string
	vpcLeafs map[string][]*Node
	vpcRTs   map[string]bool
	external *Node
}

// Plan builds the forest. It never fails: resources that cannot be placed in a
// VPC end up under External Services.
func (p *Planner) Plan(cat *catalog.Catalog, edges *inference.EdgeSet) *Forest {
	if edges == nil {
		edges = inference.NewEdgeSet(cat)
	}
	st := &plan{
		cat:      cat,
		edges:    edges,
		parents:  containmentParents(cat, edges),
		forest:   newForest(),
		vpcs:     make(map[string]*Node),
		azs:      make(map[string]*Node),
		subnets:  make(map[string]*Node),
		vpcOf:    make(map[string]string),
		vpcLeafs: make(map[string][]*Node),
		vpcRTs:   make(map[string]bool),
		external: &Node{
			ID:    ExternalGroupID,
			Type:  NodeGroup,
			Group: GroupExternal,
			Label: ExternalGroupLabel,
		},
	}

	st.seedVPCs()
	st.placeSubnets()
	st.placeLeaves()
	st.assemble()

	st.forest.Walk(func(n, _ *Node, _ int) bool {
		if n.Group == GroupSubnet {
			st.collapseEndpoints(n)
		}
		if n.IsGroup() {
			st.merge(n, p.policy.MergeThreshold)
		}
		return true
	})
	st.forest.index()
	return st.forest
}

// containmentParents loads CONTAINS edges into a DAG and returns, per resource,
// the resources that contain it. Edges that would close a cycle are ignored.
func containmentParents(cat *catalog.Catalog, edges *inference.EdgeSet) map[string]map[string]graph.Edge[string] {
	g := graph.New(graph.StringHash, graph.Directed(), graph.Acyclic(), graph.PreventCycles())
	for r := range cat.All() {
		_ = g.AddVertex(r.ID)
	}
	for _, e := range edges.Edges() {
		if e.Relation != domain.RelationContains {
			continue
		}
		// edges closing a cycle are rejected by the graph and dropped
		_ = g.AddEdge(e.From, e.To)
	}
	parents, err := g.PredecessorMap()
	if err != nil {
		return map[string]map[string]graph.Edge[string]{}
	}
	return parents
}

func (st *plan) seedVPCs() {
	for vpc := range st.cat.AllOfKind(domain.KindVPC) {
		res := vpc
		st.vpcs[vpc.ID] = &Node{
			ID:       vpc.ID,
			Type:     NodeGroup,
			Group:    GroupVPC,
			Kind:     domain.KindVPC,
			Label:    vpcLabel(vpc),
			Resource: &res,
		}
		st.forest.visible[vpc.ID] = vpc.ID
		for _, e := range st.edges.Outgoing(vpc.ID, domain.RelationContains) {
			if kind, _ := st.cat.KindOf(e.To); kind == domain.KindRouteTable {
				st.vpcRTs[vpc.ID] = true
				break
			}
		}
	}
}

func (st *plan) placeSubnets() {
	for subnet := range st.cat.AllOfKind(domain.KindSubnet) {
		vpcID := st.firstParentOfKind(subnet.ID, domain.KindVPC)
		if vpcID == "" {
			continue
		}
		az := subnet.Str(domain.AttrAvailabilityZone)
		if az == "" {
			az = unknownAZ
		}
		azID := fmt.Sprintf("az:%s:%s", vpcID, az)
		azNode, ok := st.azs[azID]
		if !ok {
			azNode = &Node{ID: azID, Type: NodeGroup, Group: GroupAZ, Label: az}
			st.azs[azID] = azNode
			vpc := st.vpcs[vpcID]
			vpc.Children = append(vpc.Children, azNode)
		}

		res := subnet
		public := st.isPublic(subnet, vpcID)
		node := &Node{
			ID:       subnet.ID,
			Type:     NodeGroup,
			Group:    GroupSubnet,
			Kind:     domain.KindSubnet,
			Label:    subnetLabel(subnet, public),
			Public:   public,
			Resource: &res,
		}
		azNode.Children = append(azNode.Children, node)
		st.subnets[subnet.ID] = node
		st.vpcOf[subnet.ID] = vpcID
		st.forest.visible[subnet.ID] = subnet.ID
	}
}

// isPublic checks whether a route table attached to the subnet routes to an
// internet gateway. VPCs without any route table in the catalog fall back to
// the subnet's auto-assign public IP flag.
func (st *plan) isPublic(subnet domain.Resource, vpcID string) bool {
	if !st.vpcRTs[vpcID] {
		return subnet.Bool(domain.AttrMapPublicIPOnLaunch)
	}
	for _, att := range st.edges.Incoming(subnet.ID, domain.RelationAttachedTo) {
		if kind, _ := st.cat.KindOf(att.From); kind != domain.KindRouteTable {
			continue
		}
		for _, route := range st.edges.Outgoing(att.From, domain.RelationRoutesTo) {
			if kind, _ := st.cat.KindOf(route.To); kind == domain.KindInternetGateway {
				return true
			}
		}
	}
	return false
}

func (st *plan) placeLeaves() {
	for r := range st.cat.All() {
		if r.Kind == domain.KindVPC || st.subnets[r.ID] != nil {
			continue
		}
		res := r
		leaf := &Node{
			ID:       r.ID,
			Type:     NodeLeaf,
			Kind:     r.Kind,
			Label:    leafLabel(r),
			Resource: &res,
		}
		st.forest.visible[r.ID] = leaf.ID

		subnetID, vpcID := st.resolve(r.ID)
		switch {
		case subnetID != "":
			group := st.subnets[subnetID]
			group.Children = append(group.Children, leaf)
		case vpcID != "":
			st.vpcLeafs[vpcID] = append(st.vpcLeafs[vpcID], leaf)
		default:
			if vpcID := st.attachedVPC(r.ID); vpcID != "" {
				st.vpcLeafs[vpcID] = append(st.vpcLeafs[vpcID], leaf)
				continue
			}
			st.external.Children = append(st.external.Children, leaf)
		}
	}
}

// resolve walks up the containment DAG one level at a time. The first level
// holding a placed subnet wins, lowest catalog index first; otherwise the
// nearest VPC is returned.
func (st *plan) resolve(id string) (subnetID, vpcID string) {
	visited := map[string]bool{id: true}
	frontier := []string{id}
	for len(frontier) > 0 {
		var next []string
		for _, n := range frontier {
			for parent := range st.parents[n] {
				if !visited[parent] {
					visited[parent] = true
					next = append(next, parent)
				}
			}
		}
		st.sortByCatalog(next)

		for _, n := range next {
			if st.subnets[n] != nil {
				return n, ""
			}
			if vpcID == "" && st.vpcs[n] != nil {
				vpcID = n
			}
		}
		frontier = next
	}
	return "", vpcID
}

// attachedVPC covers resources tied to a VPC by attachment only, such as
// internet gateways.
func (st *plan) attachedVPC(id string) string {
	for _, e := range st.edges.Outgoing(id, domain.RelationAttachedTo) {
		if st.vpcs[e.To] != nil {
			return e.To
		}
	}
	return ""
}

func (st *plan) firstParentOfKind(id string, kind domain.Kind) string {
	var ids []string
	for parent := range st.parents[id] {
		if k, _ := st.cat.KindOf(parent); k == kind {
			ids = append(ids, parent)
		}
	}
	if len(ids) == 0 {
		return ""
	}
	st.sortByCatalog(ids)
	return ids[0]
}

func (st *plan) sortByCatalog(ids []string) {
	slices.SortFunc(ids, func(a, b string) int {
		return st.cat.Index(a) - st.cat.Index(b)
	})
}

func (st *plan) assemble() {
	for vpc := range st.cat.AllOfKind(domain.KindVPC) {
		node := st.vpcs[vpc.ID]
		node.Children = append(node.Children, st.vpcLeafs[vpc.ID]...)
		st.forest.Trees = append(st.forest.Trees, node)
	}
	if len(st.external.Children) > 0 {
		st.forest.Trees = append(st.forest.Trees, st.external)
	}
}

// collapseEndpoints keeps the first VPC endpoint of a subnet and folds the rest
// into its Represents list.
func (st *plan) collapseEndpoints(group *Node) {
	var keeper *Node
	children := group.Children[:0]
	for _, c := range group.Children {
		if c.Type != NodeLeaf || c.Kind != domain.KindVpcEndpoint {
			children = append(children, c)
			continue
		}
		if keeper == nil {
			keeper = c
			children = append(children, c)
			continue
		}
		keeper.Represents = append(keeper.Represents, c.ID)
		st.forest.visible[c.ID] = keeper.ID
	}
	group.Children = children
	if keeper != nil && len(keeper.Represents) > 0 {
		keeper.Label = endpointLabel(*keeper.Resource, len(keeper.Represents)+1)
	}
}

// merge replaces same-kind leaf runs of at least threshold with one summary
// placed where the first member was. Endpoints in a subnet are already down to
// one representative and stay as they are.
func (st *plan) merge(group *Node, threshold int) {
	mergeable := func(c *Node) bool {
		return c.Type == NodeLeaf && (group.Group != GroupSubnet || c.Kind != domain.KindVpcEndpoint)
	}
	counts := make(map[domain.Kind]int)
	for _, c := range group.Children {
		if mergeable(c) {
			counts[c.Kind]++
		}
	}

	summaries := make(map[domain.Kind]*Node)
	children := make([]*Node, 0, len(group.Children))
	for _, c := range group.Children {
		if !mergeable(c) || counts[c.Kind] < threshold {
			children = append(children, c)
			continue
		}
		s, ok := summaries[c.Kind]
		if !ok {
			s = &Node{
				ID:    fmt.Sprintf("summary:%s:%s", group.ID, c.Kind),
				Type:  NodeSummary,
				Kind:  c.Kind,
				Count: counts[c.Kind],
				Label: summaryLabel(c.Kind, counts[c.Kind]),
			}
			summaries[c.Kind] = s
			children = append(children, s)
		}
		s.Members = append(s.Members, c.ID)
		st.forest.visible[c.ID] = s.ID
		for _, hidden := range c.Represents {
			st.forest.visible[hidden] = s.ID
		}
	}
	group.Children = children
}
