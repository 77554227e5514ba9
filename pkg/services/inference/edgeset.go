package inference

import (
	"slices"

	"github.com/de-tools/aws-atlas/pkg/catalog"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
)

// EdgeSet is a set of edges between records of one catalog. Duplicate
// (from, to, relation) triples collapse.
type EdgeSet struct {
	cat   *catalog.Catalog
	set   map[domain.Edge]struct{}
	edges []domain.Edge
	out   map[string][]domain.Edge
	in    map[string][]domain.Edge
	dirty bool
}

func NewEdgeSet(cat *catalog.Catalog) *EdgeSet {
	return &EdgeSet{
		cat: cat,
		set: make(map[domain.Edge]struct{}),
		out: make(map[string][]domain.Edge),
		in:  make(map[string][]domain.Edge),
	}
}

// Add reports whether e was inserted. Edges whose endpoints are not in the
// catalog, and self loops, are rejected.
func (s *EdgeSet) Add(e domain.Edge) bool {
	if e.From == e.To || !s.cat.Has(e.From) || !s.cat.Has(e.To) {
		return false
	}
	if _, exists := s.set[e]; exists {
		return false
	}
	s.set[e] = struct{}{}
	s.edges = append(s.edges, e)
	s.out[e.From] = append(s.out[e.From], e)
	s.in[e.To] = append(s.in[e.To], e)
	s.dirty = true
	return true
}

func (s *EdgeSet) Has(e domain.Edge) bool {
	_, ok := s.set[e]
	return ok
}

func (s *EdgeSet) Len() int {
	return len(s.edges)
}

// Edges returns every edge ordered by the catalog position of From, then To,
// then relation.
func (s *EdgeSet) Edges() []domain.Edge {
	s.sort()
	return slices.Clone(s.edges)
}

// Outgoing returns the edges leaving id. With no relations given, all are returned.
func (s *EdgeSet) Outgoing(id string, relations ...domain.RelationKind) []domain.Edge {
	s.sort()
	return filter(s.out[id], relations)
}

func (s *EdgeSet) Incoming(id string, relations ...domain.RelationKind) []domain.Edge {
	s.sort()
	return filter(s.in[id], relations)
}

// Catalog returns the catalog the edges refer to.
func (s *EdgeSet) Catalog() *catalog.Catalog {
	return s.cat
}

func (s *EdgeSet) sort() {
	if !s.dirty {
		return
	}
	slices.SortFunc(s.edges, s.compare)
	for id := range s.out {
		slices.SortFunc(s.out[id], s.compare)
	}
	for id := range s.in {
		slices.SortFunc(s.in[id], s.compare)
	}
	s.dirty = false
}

func (s *EdgeSet) compare(a, b domain.Edge) int {
	if d := s.cat.Index(a.From) - s.cat.Index(b.From); d != 0 {
		return d
	}
	if d := s.cat.Index(a.To) - s.cat.Index(b.To); d != 0 {
		return d
	}
	return a.Relation.Order() - b.Relation.Order()
}

func filter(edges []domain.Edge, relations []domain.RelationKind) []domain.Edge {
	out := make([]domain.Edge, 0, len(edges))
	for _, e := range edges {
		if len(relations) == 0 || slices.Contains(relations, e.Relation) {
			out = append(out, e)
		}
	}
	return out
}
