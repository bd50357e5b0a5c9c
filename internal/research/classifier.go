package research

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/mohammad-safakhou/medisearch/config"
	"github.com/mohammad-safakhou/medisearch/models"
	"github.com/mohammad-safakhou/medisearch/provider"
)

// Classifier turns a raw user query plus conversation history into a
// QueryIntent. It never fails a request: any extraction error degrades to
// the zero intent and the pipeline falls through to direct synthesis.
type Classifier struct {
	provider provider.Provider
	norm     *Normalizer
	species  string
	prompt   string
	timeout  time.Duration
	logger   *log.Logger
	observe  func(err error)
}

// NewClassifier wires a Classifier against an LLM provider. The routing
// policy prompt defaults to DefaultClassifyPrompt.
func NewClassifier(p provider.Provider, cfg config.Config, logger *log.Logger) *Classifier {
	species := cfg.Sources.DefaultSpecies
	if species == "" {
		species = "homo_sapiens"
	}
	return &Classifier{
		provider: p,
		norm:     NewNormalizer(cfg.Sources.TermAliases),
		species:  species,
		prompt:   DefaultClassifyPrompt,
		timeout:  cfg.LLM.ClassifyTimeout,
		logger:   logger,
		observe:  func(error) {},
	}
}

// OnCall registers an observer invoked after every extraction attempt.
func (c *Classifier) OnCall(fn func(err error)) {
	if fn != nil {
		c.observe = fn
	}
}

// Classify extracts the routing intent for query. On any provider error,
// including a missing tool call, it logs and returns the zero intent.
func (c *Classifier) Classify(ctx context.Context, query string, history models.History) QueryIntent {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	raw, err := c.provider.ExtractIntent(ctx, c.prompt, history, query)
	c.observe(err)
	if err != nil {
		c.logger.Printf("[CLASSIFIER] intent extraction failed, using empty intent: %v", err)
		return QueryIntent{}
	}
	return c.build(raw)
}

// build maps the wire-level extraction onto a normalized QueryIntent.
// Disease, treatment, phenotype, protein and sequence terms go through the
// alias table; gene symbols and variant ids keep their upstream casing
// conventions (uppercase symbols, lowercase rsIDs).
func (c *Classifier) build(raw models.IntentExtraction) QueryIntent {
	intent := QueryIntent{
		DiseaseTerms:     c.norm.Terms(raw.DiseaseKeywords),
		TreatmentTerms:   c.norm.Terms(raw.TreatmentKeywords),
		GeneSymbols:      upperTerms(raw.GeneSymbols),
		VariantIDs:       lowerTerms(raw.VariantIDs),
		PhenotypeTerms:   c.norm.Terms(raw.PhenotypeTerms),
		ProteinKeywords:  c.norm.Terms(raw.ProteinKeywords),
		SequenceKeywords: c.norm.Terms(raw.SequenceKeywords),
		Species:          c.foldSpecies(raw.Species),
		Need: map[SourceID]bool{
			SourceLiterature:   raw.NeedPubmed,
			SourceTrials:       raw.NeedTrials,
			SourceGenomics:     raw.NeedEnsembl,
			SourceProteins:     raw.NeedUniprot,
			SourceProteinAtlas: raw.NeedProteinAtlas,
			SourceGEO:          raw.NeedGeo,
			SourceArrayExpress: raw.NeedArrayExpress,
			SourceSequences:    raw.NeedGenbank,
		},
	}
	return intent
}

// foldSpecies canonicalizes a species name into Ensembl's underscore form,
// falling back to the configured default when blank.
func (c *Classifier) foldSpecies(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return c.species
	}
	return strings.Join(strings.Fields(s), "_")
}

func upperTerms(in []string) []string {
	return mapTerms(in, strings.ToUpper)
}

func lowerTerms(in []string) []string {
	return mapTerms(in, strings.ToLower)
}

func mapTerms(in []string, f func(string) string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		t := f(strings.TrimSpace(s))
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
