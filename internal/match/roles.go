package match

import "strings"

// RoleTable encodes predicate subset/evidence relationships. A weak
// predicate (e.g. "cited") is evidence for — not equivalent to — a stronger
// one (e.g. "influenced_by"). The table is configuration, not hardcoded
// logic; defaults cover the hand-picked scholarly relations.
type RoleTable struct {
	evidenceFor map[string]map[string]bool
}

// NewRoleTable builds a role table from a weak -> stronger-predicates map
func NewRoleTable(evidenceFor map[string][]string) *RoleTable {
	t := &RoleTable{evidenceFor: make(map[string]map[string]bool)}
	for weak, strongs := range evidenceFor {
		weak = NormalizePredicate(weak)
		set := make(map[string]bool, len(strongs))
		for _, s := range strongs {
			set[NormalizePredicate(s)] = true
		}
		t.evidenceFor[weak] = set
	}
	return t
}

// NormalizePredicate canonicalizes predicate text: case-folded,
// whitespace and hyphens collapsed to underscores.
func NormalizePredicate(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	p = strings.ReplaceAll(p, "-", " ")
	return strings.Join(strings.Fields(p), "_")
}

// SupportsDirect reports whether weak is direct evidence for strong
func (t *RoleTable) SupportsDirect(weak, strong string) bool {
	return t.evidenceFor[weak][strong]
}

// Compatible reports whether two normalized predicates can share a claim
// cluster: identical, or one is evidence for the other.
func (t *RoleTable) Compatible(a, b string) bool {
	if a == b {
		return true
	}
	return t.SupportsDirect(a, b) || t.SupportsDirect(b, a)
}

// Stronger returns the more specific of two compatible predicates. If a is
// evidence for b, b is the stronger (more specific) assertion.
func (t *RoleTable) Stronger(a, b string) string {
	if t.SupportsDirect(a, b) {
		return b
	}
	if t.SupportsDirect(b, a) {
		return a
	}
	return a
}
