package domain

import "fmt"

type RelationKind string

const (
	RelationContains   RelationKind = "CONTAINS"
	RelationRoutesTo   RelationKind = "ROUTES_TO"
	RelationTriggers   RelationKind = "TRIGGERS"
	RelationAttachedTo RelationKind = "ATTACHED_TO"
	RelationTargets    RelationKind = "TARGETS"
)

var relationOrder = map[RelationKind]int{
	RelationContains:   0,
	RelationAttachedTo: 1,
	RelationRoutesTo:   2,
	RelationTargets:    3,
	RelationTriggers:   4,
}

// Relations returns every relation kind in a fixed order.
func Relations() []RelationKind {
	return []RelationKind{
		RelationContains,
		RelationAttachedTo,
		RelationRoutesTo,
		RelationTargets,
		RelationTriggers,
	}
}

func (r RelationKind) Order() int {
	if o, ok := relationOrder[r]; ok {
		return o
	}
	return len(relationOrder)
}

func ParseRelation(s string) (RelationKind, error) {
	r := RelationKind(s)
	if _, ok := relationOrder[r]; !ok {
		return "", fmt.Errorf("unknown relation: %q", s)
	}
	return r, nil
}

// Edge is a directed relationship between two catalog records.
type Edge struct {
	From     string
	To       string
	Relation RelationKind
}

func (e Edge) String() string {
	return fmt.Sprintf("%s -%s-> %s", e.From, e.Relation, e.To)
}
