package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mohammad-safakhou/medisearch/models"
	"github.com/mohammad-safakhou/medisearch/provider"
)

// ErrSynthesis wraps provider failures during answer generation. Unlike
// classification, synthesis has no degraded mode to fall back to: this error
// surfaces to the caller.
var ErrSynthesis = fmt.Errorf("answer synthesis failed")

// Synthesizer turns an evidence bundle into the final answer. With evidence
// it renders a structured brief and asks the model to ground its answer in
// it; without evidence it asks for a clearly flagged general-knowledge
// answer instead.
type Synthesizer struct {
	provider       provider.Provider
	evidencePrompt string
	directPrompt   string
	timeout        time.Duration
}

func NewSynthesizer(p provider.Provider, timeout time.Duration) *Synthesizer {
	return &Synthesizer{
		provider:       p,
		evidencePrompt: DefaultSynthesizePrompt,
		directPrompt:   DefaultDirectPrompt,
		timeout:        timeout,
	}
}

// Synthesize produces the assistant reply for query given the aggregated
// bundle. The references footer is appended after generation so the model
// cannot drop or reword provenance links.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, bundle Bundle, history models.History) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var answer string
	var err error
	refs := bundle.References
	if bundle.IsEmpty() {
		answer, err = s.provider.Generate(ctx, s.directPrompt, history, query)
		refs = genericRefs(query)
	} else {
		user := fmt.Sprintf("Query: %s\n\nRetrieved evidence:\n\n%s", query, RenderBrief(bundle))
		answer, err = s.provider.Generate(ctx, s.evidencePrompt, history, user)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	return answer + renderReferences(refs), nil
}

// RenderBrief flattens the bundle into the markdown evidence block handed to
// the model. Sections keep their fixed order; a failed section collapses to
// its note so the model can acknowledge the gap.
func RenderBrief(bundle Bundle) string {
	var b strings.Builder
	for _, section := range bundle.Sections {
		b.WriteString("### ")
		b.WriteString(section.Heading)
		b.WriteString("\n")
		if section.Failed {
			b.WriteString(section.Note)
			b.WriteString("\n\n")
			continue
		}
		for i, rec := range section.Records {
			if i > 0 {
				b.WriteString("\n")
			}
			for _, f := range rec.Fields {
				fmt.Fprintf(&b, "**%s:** %s\n", f.Name, f.Value)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderReferences builds the "## References" footer. Duplicate URLs are
// collapsed, first label wins.
func renderReferences(refs []Reference) string {
	if len(refs) == 0 {
		return ""
	}
	seen := make(map[string]struct{}, len(refs))
	var b strings.Builder
	b.WriteString("\n\n## References\n")
	for _, r := range refs {
		if r.URL == "" {
			continue
		}
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = struct{}{}
		fmt.Fprintf(&b, "- [%s](%s)\n", r.Label, r.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}

// genericRefs offers the two broadest manual entry points when nothing was
// retrieved at all.
func genericRefs(query string) []Reference {
	q := escapeQuery(query)
	return []Reference{
		{Label: "PubMed search", URL: "https://pubmed.ncbi.nlm.nih.gov/?term=" + q},
		{Label: "ClinicalTrials.gov search", URL: "https://clinicaltrials.gov/search?term=" + q},
	}
}
