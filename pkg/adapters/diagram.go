package adapters

import (
	"github.com/de-tools/aws-atlas/pkg/models/api"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/de-tools/aws-atlas/pkg/services/inference"
	"github.com/de-tools/aws-atlas/pkg/services/layout"
)

func MapResourceDomainToApi(r domain.Resource) api.Resource {
	attrs := make(map[string]any, len(r.Attributes))
	for k, v := range r.Attributes {
		attrs[k] = v
	}
	return api.Resource{
		ID:         r.ID,
		Kind:       string(r.Kind),
		Name:       r.Name,
		Region:     r.Region,
		Attributes: attrs,
	}
}

func MapEdgeDomainToApi(e domain.Edge) api.Edge {
	return api.Edge{
		From:     e.From,
		To:       e.To,
		Relation: string(e.Relation),
	}
}

func MapWarningToApi(w inference.Warning) api.Warning {
	return api.Warning{
		Rule:      w.Rule,
		From:      w.From,
		Attribute: w.Attribute,
		Ref:       w.Ref,
	}
}

func MapNodeToApi(n *layout.Node) api.Node {
	res := api.Node{
		ID:         n.ID,
		Type:       string(n.Type),
		Group:      string(n.Group),
		Kind:       string(n.Kind),
		Label:      n.Label,
		Public:     n.Public,
		Count:      n.Count,
		Members:    n.Members,
		Represents: n.Represents,
	}
	if n.Resource != nil {
		res.ResourceID = n.Resource.ID
	}
	for _, c := range n.Children {
		res.Children = append(res.Children, MapNodeToApi(c))
	}
	return res
}

func MapDiagramToApi(d *layout.Diagram) api.Diagram {
	res := api.Diagram{
		Title:      d.Title,
		Nodes:      []api.Node{},
		Connectors: make([]api.Connector, 0, len(d.Connectors)),
	}
	if d.Forest != nil {
		for _, t := range d.Forest.Trees {
			res.Nodes = append(res.Nodes, MapNodeToApi(t))
		}
	}
	for _, c := range d.Connectors {
		res.Connectors = append(res.Connectors, api.Connector{
			From:     c.From,
			To:       c.To,
			Relation: string(c.Relation),
		})
	}
	return res
}

func MapRunDomainToApi(r domain.Run) api.Run {
	res := api.Run{
		ID:        r.ID,
		Source:    r.Source,
		Profile:   r.Profile,
		Region:    r.Region,
		CreatedAt: r.CreatedAt,
		Resources: r.Resources,
		Edges:     r.Edges,
	}
	if len(r.Kinds) > 0 {
		res.Kinds = make(map[string]int, len(r.Kinds))
		for k, n := range r.Kinds {
			res.Kinds[string(k)] = n
		}
	}
	return res
}
