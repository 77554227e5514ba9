// Package catalog holds the resources discovered in one run, in insertion order.
package catalog

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/de-tools/aws-atlas/pkg/models/domain"
)

var (
	ErrDuplicateID = errors.New("duplicate resource id")
	ErrNotFound    = errors.New("resource not found")
)

// Catalog is not safe for concurrent mutation. Readers hand their results to a
// single goroutine that populates it.
type Catalog struct {
	records []domain.Resource
	index   map[string]int
	byKind  map[domain.Kind][]int
}

func New() *Catalog {
	return &Catalog{
		index:  make(map[string]int),
		byKind: make(map[domain.Kind][]int),
	}
}

// Add stores a copy of r. The attribute map is cloned so later changes by the
// caller do not leak into the catalog.
func (c *Catalog) Add(r domain.Resource) error {
	if _, exists := c.index[r.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
	}
	c.index[r.ID] = len(c.records)
	c.byKind[r.Kind] = append(c.byKind[r.Kind], len(c.records))
	c.records = append(c.records, r.Clone())
	return nil
}

// Get returns a copy of the record; changing it does not touch the catalog.
func (c *Catalog) Get(id string) (domain.Resource, error) {
	i, ok := c.index[id]
	if !ok {
		return domain.Resource{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.records[i].Clone(), nil
}

func (c *Catalog) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

func (c *Catalog) Len() int {
	return len(c.records)
}

// Index returns the insertion position of id, or -1.
func (c *Catalog) Index(id string) int {
	if i, ok := c.index[id]; ok {
		return i
	}
	return -1
}

func (c *Catalog) KindOf(id string) (domain.Kind, bool) {
	i, ok := c.index[id]
	if !ok {
		return "", false
	}
	return c.records[i].Kind, true
}

func (c *Catalog) CountOfKind(kind domain.Kind) int {
	return len(c.byKind[kind])
}

// AllOfKind yields the records of one kind in insertion order. The sequence can
// be ranged over any number of times. Records share their attribute maps with
// the catalog and must be treated as read-only.
func (c *Catalog) AllOfKind(kind domain.Kind) iter.Seq[domain.Resource] {
	return func(yield func(domain.Resource) bool) {
		for _, i := range c.byKind[kind] {
			if !yield(c.records[i]) {
				return
			}
		}
	}
}

// All yields every stored record in insertion order, read-only like AllOfKind.
func (c *Catalog) All() iter.Seq[domain.Resource] {
	return func(yield func(domain.Resource) bool) {
		for _, r := range c.records {
			if !yield(r) {
				return
			}
		}
	}
}

// Kinds lists the kinds present, in canonical order.
func (c *Catalog) Kinds() []domain.Kind {
	kinds := make([]domain.Kind, 0, len(c.byKind))
	for k, idx := range c.byKind {
		if len(idx) > 0 {
			kinds = append(kinds, k)
		}
	}
	slices.SortFunc(kinds, domain.CompareKinds)
	return kinds
}

// FromSnapshot builds a catalog from per-kind lists, adding kinds in canonical
// order so insertion order does not depend on map iteration.
func FromSnapshot(resources map[domain.Kind][]domain.Resource) (*Catalog, error) {
	c := New()
	kinds := make([]domain.Kind, 0, len(resources))
	for k := range resources {
		kinds = append(kinds, k)
	}
	slices.SortFunc(kinds, domain.CompareKinds)

	for _, k := range kinds {
		for _, r := range resources[k] {
			if r.Kind == "" {
				r.Kind = k
			}
			if err := c.Add(r); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}
