package models

// Turn roles. The history the core receives is an alternating sequence of
// these two, but nothing here enforces alternation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// History is an ordered conversation transcript, oldest first.
type History []Turn

// approxTokens estimates the token count of a string. Four characters per
// token is close enough for budget trimming.
func approxTokens(s string) int {
	return len(s)/4 + 1
}

// Tokens returns the approximate token count of the whole history.
func (h History) Tokens() int {
	total := 0
	for _, t := range h {
		total += approxTokens(t.Content)
	}
	return total
}

// Trim drops the oldest turns until the history fits within budget tokens.
// The most recent turn is always kept, even if it alone exceeds the budget.
func (h History) Trim(budget int) History {
	if len(h) == 0 {
		return h
	}
	if budget <= 0 {
		return h[len(h)-1:]
	}
	start := 0
	for start < len(h)-1 && h[start:].Tokens() > budget {
		start++
	}
	return h[start:]
}

// IntentExtraction is the raw structured output of the intent-extraction
// tool call. Every field is optional on the wire: an omitted field decodes
// to its zero value, which the classifier treats as "not mentioned".
type IntentExtraction struct {
	DiseaseKeywords   []string `json:"disease_keywords"`
	TreatmentKeywords []string `json:"treatment_keywords"`
	GeneSymbols       []string `json:"gene_symbols"`
	VariantIDs        []string `json:"variant_ids"`
	PhenotypeTerms    []string `json:"phenotype_terms"`
	ProteinKeywords   []string `json:"protein_keywords"`
	SequenceKeywords  []string `json:"sequence_keywords"`
	Species           string   `json:"species"`
	NeedPubmed        bool     `json:"need_pubmed"`
	NeedTrials        bool     `json:"need_trials"`
	NeedEnsembl       bool     `json:"need_ensembl"`
	NeedUniprot       bool     `json:"need_uniprot"`
	NeedProteinAtlas  bool     `json:"need_protein_atlas"`
	NeedGeo           bool     `json:"need_geo"`
	NeedArrayExpress  bool     `json:"need_arrayexpress"`
	NeedGenbank       bool     `json:"need_genbank"`
}
