// Package inference derives relationship edges between catalog records from
// the attributes the readers collected.
package inference

import (
	"fmt"

	"github.com/de-tools/aws-atlas/pkg/catalog"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Warning reports a reference to an id that is not in the catalog.
type Warning struct {
	Rule      string
	From      string
	Attribute string
	Ref       string
}

func (w Warning) String() string {
	return fmt.Sprintf("unresolved reference: %s %s[%s] -> %s", w.Rule, w.From, w.Attribute, w.Ref)
}

type Inferencer struct {
	logger zerolog.Logger
	rules  []rule
}

type Option func(*Inferencer)

func WithLogger(logger zerolog.Logger) Option {
	return func(i *Inferencer) {
		i.logger = logger
	}
}

func New(opts ...Option) *Inferencer {
	inf := &Inferencer{
		logger: zerolog.Nop(),
		rules:  defaultRules(),
	}
	for _, opt := range opts {
		opt(inf)
	}
	return inf
}

// Infer runs every rule against the catalog. The result depends only on the
// catalog contents, so calling it twice yields the same edges and warnings.
func (inf *Inferencer) Infer(cat *catalog.Catalog) (*EdgeSet, []Warning) {
	edges := NewEdgeSet(cat)
	rc := &ruleContext{cat: cat}

	var warnings []Warning
	seen := make(map[Warning]bool)

	for _, r := range inf.rules {
		if cat.CountOfKind(r.holderKind()) == 0 {
			continue
		}

		index := make(map[string][]string)
		for target := range cat.AllOfKind(r.targetKind()) {
			for _, key := range r.keys(rc, target) {
				if key == "" {
					continue
				}
				index[key] = append(index[key], target.ID)
			}
		}

		for holder := range cat.AllOfKind(r.holderKind()) {
			for _, ref := range r.refs(rc, holder) {
				if ref == "" {
					continue
				}
				matches := index[ref]
				if len(matches) == 0 {
					if r.strict && !cat.Has(ref) {
						w := Warning{Rule: r.name, From: holder.ID, Attribute: r.attr, Ref: ref}
						if !seen[w] {
							seen[w] = true
							warnings = append(warnings, w)
						}
					}
					continue
				}
				for _, match := range matches {
					e := domain.Edge{From: holder.ID, To: match, Relation: r.relation}
					if r.holder == holderTo {
						e = domain.Edge{From: match, To: holder.ID, Relation: r.relation}
					}
					edges.Add(e)
				}
			}
		}
	}

	for _, w := range warnings {
		inf.logger.Warn().
			Str("rule", w.Rule).
			Str("from", w.From).
			Str("attribute", w.Attribute).
			Str("ref", w.Ref).
			Msg("unresolved reference")
	}
	inf.logger.Debug().
		Int("resources", cat.Len()).
		Int("edges", edges.Len()).
		Int("warnings", len(warnings)).
		Msg("relationships inferred")

	return edges, warnings
}
