package research

import (
	"reflect"
	"testing"
)

func TestNormalizeFoldsCaseAndPossessives(t *testing.T) {
	n := NewNormalizer(nil)
	cases := map[string]string{
		"Alzheimer's Disease": "alzheimer disease",
		"Alzheimer’s disease": "alzheimer disease",
		"  Tau   Protein  ":   "tau",
		"amyloid beta":        "amyloid-beta",
		"AD":                  "alzheimer disease",
		"donepezil":           "donepezil",
	}
	for in, want := range cases {
		if got := n.Term(in); got != want {
			t.Fatalf("Term(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := NewNormalizer(map[string]string{"mild cognitive impairment": "MCI"})
	inputs := []string{
		"Alzheimer's disease",
		"amyloid beta",
		"Mild Cognitive Impairment",
		"tau protein",
		"plain term",
	}
	for _, in := range inputs {
		once := n.Term(in)
		twice := n.Term(once)
		if once != twice {
			t.Fatalf("Term not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNormalizeTermsDedupesPreservingOrder(t *testing.T) {
	n := NewNormalizer(nil)
	got := n.Terms([]string{"Tau Protein", "dementia", "tau", "", "Dementia"})
	want := []string{"tau", "dementia"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Terms = %v, want %v", got, want)
	}
}

func TestNormalizeConfigOverridesWin(t *testing.T) {
	n := NewNormalizer(map[string]string{"ad": "atopic dermatitis"})
	if got := n.Term("AD"); got != "atopic dermatitis" {
		t.Fatalf("override ignored, got %q", got)
	}
}
