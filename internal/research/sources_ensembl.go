package research

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mohammad-safakhou/medisearch/config"
)

// EnsemblAdapter covers the genomics source. It is three sub-operations of
// one logical source: gene lookup and phenotype annotation per gene symbol,
// variant consequences per variant id. Results are concatenated in that
// order, not deduplicated.
type EnsemblAdapter struct {
	cfg    config.SourceConfig
	http   *HTTPClient
	logger *log.Logger
}

func (a *EnsemblAdapter) ID() SourceID    { return SourceGenomics }
func (a *EnsemblAdapter) Heading() string { return "Genomic Information" }

func (a *EnsemblAdapter) Search(ctx context.Context, intent QueryIntent, rawQuery string) []Record {
	species := intent.Species
	var out []Record
	for _, symbol := range intent.GeneSymbols {
		out = append(out, a.geneLookup(ctx, species, symbol)...)
	}
	for _, variant := range intent.VariantIDs {
		out = append(out, a.variantConsequences(ctx, species, variant)...)
	}
	for _, symbol := range intent.GeneSymbols {
		out = append(out, a.phenotypesByGene(ctx, species, symbol)...)
	}
	return out
}

func (a *EnsemblAdapter) geneLookup(ctx context.Context, species, symbol string) []Record {
	url := fmt.Sprintf("%s/lookup/symbol/%s/%s?expand=1", a.cfg.Endpoint, species, escapeQuery(symbol))
	var resp struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
		Description string `json:"description"`
		Biotype     string `json:"biotype"`
		SeqRegion   string `json:"seq_region_name"`
		Start       int64  `json:"start"`
		End         int64  `json:"end"`
		Strand      int    `json:"strand"`
	}
	headers := map[string]string{"Content-Type": "application/json"}
	if err := a.http.DoJSON(ctx, "GET", url, headers, nil, &resp); err != nil {
		a.logger.Printf("ensembl gene lookup failed for %s: %v", symbol, err)
		return nil
	}
	name := resp.DisplayName
	if name == "" {
		name = symbol
	}
	description := resp.Description
	if description == "" {
		description = "No description available"
	}
	strand := "Forward"
	if resp.Strand != 1 {
		strand = "Reverse"
	}
	return []Record{{
		Fields: []Field{
			{Name: "Gene", Value: fmt.Sprintf("%s (%s)", name, resp.ID)},
			{Name: "Description", Value: description},
			{Name: "Biotype", Value: resp.Biotype},
			{Name: "Location", Value: fmt.Sprintf("%s:%d-%d (%s)", resp.SeqRegion, resp.Start, resp.End, strand)},
		},
		Ref: Reference{
			Label: name + " (Ensembl)",
			URL:   fmt.Sprintf("https://www.ensembl.org/%s/Gene/Summary?g=%s", species, resp.ID),
		},
	}}
}

func (a *EnsemblAdapter) variantConsequences(ctx context.Context, species, variantID string) []Record {
	url := fmt.Sprintf("%s/vep/%s/id/%s", a.cfg.Endpoint, species, escapeQuery(variantID))
	var resp []struct {
		TranscriptConsequences []struct {
			GeneSymbol       string   `json:"gene_symbol"`
			TranscriptID     string   `json:"transcript_id"`
			ConsequenceTerms []string `json:"consequence_terms"`
			Impact           string   `json:"impact"`
		} `json:"transcript_consequences"`
	}
	headers := map[string]string{"Content-Type": "application/json"}
	if err := a.http.DoJSON(ctx, "GET", url, headers, nil, &resp); err != nil {
		a.logger.Printf("ensembl vep failed for %s: %v", variantID, err)
		return nil
	}

	var out []Record
	for _, item := range resp {
		for _, tc := range item.TranscriptConsequences {
			out = append(out, Record{
				Fields: []Field{
					{Name: "Variant", Value: variantID},
					{Name: "Gene", Value: tc.GeneSymbol},
					{Name: "Transcript", Value: tc.TranscriptID},
					{Name: "Consequences", Value: strings.Join(tc.ConsequenceTerms, ", ")},
					{Name: "Impact", Value: tc.Impact},
				},
				Ref: Reference{
					Label: variantID + " (Ensembl VEP)",
					URL:   fmt.Sprintf("https://www.ensembl.org/%s/Variation/Explore?v=%s", species, variantID),
				},
			})
			if len(out) >= a.cfg.MaxResults {
				return out
			}
		}
	}
	return out
}

func (a *EnsemblAdapter) phenotypesByGene(ctx context.Context, species, symbol string) []Record {
	url := fmt.Sprintf("%s/phenotype/gene/%s/%s", a.cfg.Endpoint, species, escapeQuery(symbol))
	var resp []struct {
		Description string `json:"description"`
		Source      string `json:"source"`
		Study       string `json:"study"`
	}
	headers := map[string]string{"Content-Type": "application/json"}
	if err := a.http.DoJSON(ctx, "GET", url, headers, nil, &resp); err != nil {
		a.logger.Printf("ensembl phenotype lookup failed for %s: %v", symbol, err)
		return nil
	}

	var out []Record
	for _, item := range resp {
		description := item.Description
		if description == "" {
			description = "No description available"
		}
		out = append(out, Record{
			Fields: []Field{
				{Name: "Gene", Value: symbol},
				{Name: "Phenotype", Value: description},
				{Name: "Source", Value: item.Source},
				{Name: "Study", Value: item.Study},
			},
			Ref: Reference{
				Label: symbol + " phenotypes (Ensembl)",
				URL:   fmt.Sprintf("https://www.ensembl.org/%s/Gene/Phenotype?g=%s", species, escapeQuery(symbol)),
			},
		})
		if len(out) >= a.cfg.MaxResults {
			break
		}
	}
	return out
}

func (a *EnsemblAdapter) FallbackRef(intent QueryIntent, rawQuery string) Reference {
	term := strings.Join(append(append([]string{}, intent.GeneSymbols...), intent.VariantIDs...), " ")
	if term == "" {
		term = rawQuery
	}
	return Reference{
		Label: "Search Ensembl manually",
		URL:   "https://www.ensembl.org/Multi/Search/Results?q=" + escapeQuery(term),
	}
}
