package research

// SourceID identifies one external biomedical data source.
type SourceID string

const (
	SourceLiterature   SourceID = "literature"
	SourceTrials       SourceID = "trials"
	SourceGenomics     SourceID = "genomics"
	SourceProteins     SourceID = "proteins"
	SourceProteinAtlas SourceID = "protein_atlas"
	SourceGEO          SourceID = "geo"
	SourceArrayExpress SourceID = "arrayexpress"
	SourceSequences    SourceID = "sequences"
)

// SectionOrder is the fixed priority order of bundle sections. The
// synthesizer depends on this ordering being stable regardless of which
// adapters ran or in which order they finished.
var SectionOrder = []SourceID{
	SourceLiterature,
	SourceTrials,
	SourceGenomics,
	SourceProteins,
	SourceProteinAtlas,
	SourceGEO,
	SourceArrayExpress,
	SourceSequences,
}

// QueryIntent is the classifier's structured output. The zero value is the
// empty intent: all keyword sets empty, no source flagged.
type QueryIntent struct {
	DiseaseTerms     []string          `json:"disease_terms"`
	TreatmentTerms   []string          `json:"treatment_terms"`
	GeneSymbols      []string          `json:"gene_symbols"`
	VariantIDs       []string          `json:"variant_ids"`
	PhenotypeTerms   []string          `json:"phenotype_terms"`
	ProteinKeywords  []string          `json:"protein_keywords"`
	SequenceKeywords []string          `json:"sequence_keywords"`
	Species          string            `json:"species"`
	Need             map[SourceID]bool `json:"need"`
}

// Needs reports whether the classifier flagged a source as relevant.
func (q QueryIntent) Needs(id SourceID) bool {
	return q.Need[id]
}

// Empty reports whether the intent carries no flags at all. An empty intent
// skips aggregation entirely and routes to direct-knowledge synthesis.
func (q QueryIntent) Empty() bool {
	for _, v := range q.Need {
		if v {
			return false
		}
	}
	return true
}

// Field is one labelled value of a record's flat projection.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Reference is one provenance link rendered into the answer footer.
type Reference struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Record is one result row from an adapter: an ordered flat projection of
// upstream fields plus the reference it contributes.
type Record struct {
	Fields []Field   `json:"fields"`
	Ref    Reference `json:"ref"`
}

// Section holds one source's slot in the bundle. A failed section carries a
// human-readable note and a fallback reference instead of records.
type Section struct {
	Source  SourceID `json:"source"`
	Heading string   `json:"heading"`
	Records []Record `json:"records"`
	Failed  bool     `json:"failed"`
	Note    string   `json:"note,omitempty"`
	// Fallback is the manual-search link offered when the section failed.
	Fallback Reference `json:"fallback,omitempty"`
}

// Bundle is the merged, ordered, partial-failure-tolerant result of one
// aggregation.
type Bundle struct {
	Sections   []Section   `json:"sections"`
	References []Reference `json:"references"`
}

// IsEmpty reports whether no section holds a single record. An empty bundle
// routes synthesis to direct-knowledge mode.
func (b Bundle) IsEmpty() bool {
	for _, s := range b.Sections {
		if len(s.Records) > 0 {
			return false
		}
	}
	return true
}
