package research

import "strings"

// defaultAliases maps normalized surface forms onto canonical terms so that
// differently phrased queries build identical upstream requests. Config may
// extend or override entries.
var defaultAliases = map[string]string{
	"alzheimers":          "alzheimer disease",
	"alzheimers disease":  "alzheimer disease",
	"alzheimer s disease": "alzheimer disease",
	"ad":                  "alzheimer disease",
	"preclinical ad":      "preclinical alzheimer disease",
	"amyloid beta":        "amyloid-beta",
	"abeta":               "amyloid-beta",
	"tau protein":         "tau",
}

// Normalizer folds extracted terms into a canonical form: lowercase,
// possessives and punctuation stripped, whitespace collapsed, then an alias
// table lookup. Normalization is idempotent.
type Normalizer struct {
	aliases map[string]string
}

// NewNormalizer builds a Normalizer from the built-in alias table merged
// with overrides (overrides win). Alias keys are themselves normalized so
// the table is insensitive to how entries are written in config.
func NewNormalizer(overrides map[string]string) *Normalizer {
	n := &Normalizer{aliases: make(map[string]string, len(defaultAliases)+len(overrides))}
	for k, v := range defaultAliases {
		n.aliases[n.fold(k)] = n.fold(v)
	}
	for k, v := range overrides {
		n.aliases[n.fold(k)] = n.fold(v)
	}
	return n
}

// Term normalizes one term.
func (n *Normalizer) Term(s string) string {
	folded := n.fold(s)
	if canonical, ok := n.aliases[folded]; ok {
		return canonical
	}
	return folded
}

// Terms normalizes a slice preserving order, dropping duplicates and terms
// that fold to nothing.
func (n *Normalizer) Terms(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		t := n.Term(s)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// fold lowercases, strips possessives (both ASCII and typographic
// apostrophes), replaces remaining punctuation with spaces and collapses
// whitespace. Hyphens are kept: "amyloid-beta" is one token upstream.
func (n *Normalizer) fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "’s", "")
	s = strings.ReplaceAll(s, "'s", "")
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
