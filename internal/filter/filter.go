// Package filter implements the dashboard's conjunctive criteria engine.
// A criteria set maps field names to match rules; applying it to a
// collection returns the stable subset matching every rule. Rules are
// pure functions of (item, criteria), so clearing filters is exactly
// applying the empty criteria set.
package filter

import "strings"

// Fielder is implemented by entities that expose their filterable
// columns by name. The second return is false for unknown fields.
type Fielder interface {
	Field(name string) (string, bool)
}

// Kind selects how a rule matches a field value.
type Kind int

const (
	// All matches every item, the "no constraint" sentinel.
	All Kind = iota
	// Exact matches on case-insensitive equality.
	Exact
	// Contains matches on case-insensitive substring.
	Contains
)

// Rule is one per-field constraint.
type Rule struct {
	Kind  Kind
	Value string
}

// Criteria maps field names to rules. Rules compose conjunctively.
type Criteria map[string]Rule

// Matches reports whether the rule accepts the given field value.
func (r Rule) Matches(value string) bool {
	switch r.Kind {
	case All:
		return true
	case Exact:
		return strings.EqualFold(value, r.Value)
	case Contains:
		return strings.Contains(strings.ToLower(value), strings.ToLower(r.Value))
	}
	return false
}

// Match reports whether the item satisfies every rule in the criteria.
// A rule naming a field the item does not expose never matches.
func Match(item Fielder, c Criteria) bool {
	for field, rule := range c {
		if rule.Kind == All {
			continue
		}
		value, ok := item.Field(field)
		if !ok {
			return false
		}
		if !rule.Matches(value) {
			return false
		}
	}
	return true
}

// Apply returns the items matching the criteria, in input order. An
// empty criteria set (or one with only All rules) returns the input
// slice unchanged.
func Apply[T Fielder](items []T, c Criteria) []T {
	if len(c) == 0 {
		return items
	}
	constrained := false
	for _, rule := range c {
		if rule.Kind != All {
			constrained = true
			break
		}
	}
	if !constrained {
		return items
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		if Match(item, c) {
			out = append(out, item)
		}
	}
	return out
}
