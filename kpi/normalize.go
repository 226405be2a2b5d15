/*
normalize.go - Canonical department alias normalization

PURPOSE:
  Department names arrive as free text from two independent sources (the
  workforce roster and the entitlement rules) and do not agree on spelling:
  the rules say "AOCS" where the roster says "Airport Operations & Customer
  Services", "Inflight" vs "Inflights", and so on. Every department equality
  check in the engine goes through ONE shared Normalizer so both sides land
  on the same canonical name first.

INVARIANTS:
  - Total: every input resolves to exactly one canonical string; unknown
    values fall back to their trimmed identity.
  - Idempotent: Normalize(Normalize(x)) == Normalize(x).
  - Case-insensitive: "aocs", "AOCS" and "Aocs" all map the same way.

CONFIGURATION:
  The built-in table covers the known alias set. Deployments can extend it
  via the server config file; a missing entry degrades to the identity
  fallback, never a hard failure.
*/
package kpi

import "strings"

// defaultAliases maps upper-cased raw spellings to canonical department
// names, as they appear across the two data sources.
var defaultAliases = map[string]string{
	"AOCS":        "Airport Operations & Customer Services",
	"INFLIGHT":    "Inflight Services",
	"INFLIGHTS":   "Inflight Services",
	"ENGINEERING": "Engineering",
	"CARGO":       "Cargo",
}

// Normalizer canonicalizes free-text department names.
type Normalizer struct {
	aliases map[string]string
}

// NewNormalizer returns a Normalizer with the built-in alias table.
func NewNormalizer() *Normalizer {
	return NewNormalizerWithAliases(nil)
}

// NewNormalizerWithAliases extends the built-in table with deployment
// specific aliases (raw spelling -> canonical name). Extra entries win on
// conflict.
func NewNormalizerWithAliases(extra map[string]string) *Normalizer {
	aliases := make(map[string]string, len(defaultAliases)+len(extra))
	for raw, canonical := range defaultAliases {
		aliases[raw] = canonical
	}
	for raw, canonical := range extra {
		aliases[strings.ToUpper(strings.TrimSpace(raw))] = strings.TrimSpace(canonical)
	}
	return &Normalizer{aliases: aliases}
}

// Normalize maps a raw department spelling to its canonical name. Unmapped
// input is returned trimmed and otherwise unchanged.
func (n *Normalizer) Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if canonical, ok := n.aliases[strings.ToUpper(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// Equal reports whether two raw department names resolve to the same
// canonical department. Comparison is case-insensitive, never fuzzy.
func (n *Normalizer) Equal(a, b string) bool {
	return strings.EqualFold(n.Normalize(a), n.Normalize(b))
}

// Key returns the canonical name folded for use as a map key.
func (n *Normalizer) Key(raw string) string {
	return strings.ToLower(n.Normalize(raw))
}
