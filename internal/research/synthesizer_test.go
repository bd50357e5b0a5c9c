package research

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func evidenceBundle() Bundle {
	return Bundle{
		Sections: []Section{
			{
				Source:  SourceLiterature,
				Heading: "Research Papers",
				Records: []Record{{
					Fields: []Field{
						{Name: "Title", Value: "Lecanemab in early AD"},
						{Name: "PMID", Value: "123"},
					},
					Ref: Reference{Label: "PMID 123", URL: "https://pubmed.ncbi.nlm.nih.gov/123/"},
				}},
			},
			{
				Source:   SourceTrials,
				Heading:  "Clinical Trials",
				Failed:   true,
				Note:     "No results could be retrieved from this source.",
				Fallback: Reference{Label: "ClinicalTrials.gov search", URL: "https://clinicaltrials.gov/search?term=x"},
			},
		},
		References: []Reference{
			{Label: "PMID 123", URL: "https://pubmed.ncbi.nlm.nih.gov/123/"},
			{Label: "ClinicalTrials.gov search", URL: "https://clinicaltrials.gov/search?term=x"},
		},
	}
}

func TestSynthesizeEvidenceMode(t *testing.T) {
	p := &fakeProvider{reply: "Here is what the evidence shows."}
	s := NewSynthesizer(p, time.Second)

	out, err := s.Synthesize(context.Background(), "treatments?", evidenceBundle(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(p.lastUser, "Lecanemab in early AD") {
		t.Fatalf("evidence brief not passed to the model: %q", p.lastUser)
	}
	if !strings.Contains(p.lastUser, "### Research Papers") {
		t.Fatalf("brief missing section heading: %q", p.lastUser)
	}
	if !strings.Contains(out, "## References") {
		t.Fatalf("references footer missing: %q", out)
	}
	if !strings.Contains(out, "https://pubmed.ncbi.nlm.nih.gov/123/") {
		t.Fatalf("record reference missing from footer: %q", out)
	}
	if !strings.Contains(out, "https://clinicaltrials.gov/search?term=x") {
		t.Fatalf("fallback reference missing from footer: %q", out)
	}
}

func TestSynthesizeDirectMode(t *testing.T) {
	p := &fakeProvider{reply: "General knowledge answer."}
	s := NewSynthesizer(p, time.Second)

	out, err := s.Synthesize(context.Background(), "alzheimer treatments", Bundle{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(p.lastSystem, "No external evidence") {
		t.Fatalf("direct prompt not used: %q", p.lastSystem)
	}
	if !strings.Contains(out, "pubmed.ncbi.nlm.nih.gov/?term=") {
		t.Fatalf("generic pubmed fallback missing: %q", out)
	}
	if !strings.Contains(out, "clinicaltrials.gov/search?term=") {
		t.Fatalf("generic trials fallback missing: %q", out)
	}
}

func TestSynthesizeProviderErrorWrapped(t *testing.T) {
	p := &fakeProvider{generateErr: errors.New("rate limited")}
	s := NewSynthesizer(p, time.Second)

	_, err := s.Synthesize(context.Background(), "q", evidenceBundle(), nil)
	if !errors.Is(err, ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis, got %v", err)
	}
}

func TestRenderBriefFailedSectionCollapsesToNote(t *testing.T) {
	brief := RenderBrief(evidenceBundle())
	if !strings.Contains(brief, "### Clinical Trials\nNo results could be retrieved") {
		t.Fatalf("failed section not rendered as note:\n%s", brief)
	}
	if !strings.Contains(brief, "**Title:** Lecanemab in early AD") {
		t.Fatalf("record field not rendered:\n%s", brief)
	}
}

func TestRenderReferencesDedupes(t *testing.T) {
	refs := []Reference{
		{Label: "a", URL: "https://example.org/1"},
		{Label: "b", URL: "https://example.org/1"},
		{Label: "c", URL: "https://example.org/2"},
	}
	out := renderReferences(refs)
	if strings.Count(out, "https://example.org/1") != 1 {
		t.Fatalf("duplicate url not collapsed:\n%s", out)
	}
	if !strings.Contains(out, "[a](https://example.org/1)") {
		t.Fatalf("first label must win:\n%s", out)
	}
}
