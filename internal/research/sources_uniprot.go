package research

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mohammad-safakhou/medisearch/config"
)

// UniProtAdapter searches UniProtKB for protein entries.
type UniProtAdapter struct {
	cfg    config.SourceConfig
	http   *HTTPClient
	logger *log.Logger
}

func (a *UniProtAdapter) ID() SourceID    { return SourceProteins }
func (a *UniProtAdapter) Heading() string { return "Protein Information" }

func (a *UniProtAdapter) Search(ctx context.Context, intent QueryIntent, rawQuery string) []Record {
	species := strings.ReplaceAll(intent.Species, "_", " ")
	query := joinAND(intent.ProteinKeywords, []string{species})
	url := fmt.Sprintf("%s?query=%s&size=%d&format=json", a.cfg.Endpoint, escapeQuery(query), a.cfg.MaxResults)

	var resp struct {
		Results []struct {
			PrimaryAccession   string `json:"primaryAccession"`
			ProteinDescription struct {
				RecommendedName struct {
					FullName struct {
						Value string `json:"value"`
					} `json:"fullName"`
				} `json:"recommendedName"`
			} `json:"proteinDescription"`
			Organism struct {
				ScientificName string `json:"scientificName"`
			} `json:"organism"`
		} `json:"results"`
	}
	if err := a.http.DoJSON(ctx, "GET", url, nil, nil, &resp); err != nil {
		a.logger.Printf("uniprot search failed for %q: %v", query, err)
		return nil
	}

	var out []Record
	for _, entry := range resp.Results {
		name := entry.ProteinDescription.RecommendedName.FullName.Value
		if name == "" {
			name = "N/A"
		}
		out = append(out, Record{
			Fields: []Field{
				{Name: "Accession", Value: entry.PrimaryAccession},
				{Name: "Protein Name", Value: name},
				{Name: "Organism", Value: entry.Organism.ScientificName},
			},
			Ref: Reference{
				Label: name + " (UniProt " + entry.PrimaryAccession + ")",
				URL:   "https://www.uniprot.org/uniprotkb/" + entry.PrimaryAccession + "/entry",
			},
		})
	}
	return capRecords(out, a.cfg.MaxResults)
}

func (a *UniProtAdapter) FallbackRef(intent QueryIntent, rawQuery string) Reference {
	term := strings.Join(intent.ProteinKeywords, " ")
	if term == "" {
		term = rawQuery
	}
	return Reference{
		Label: "Search UniProt manually",
		URL:   "https://www.uniprot.org/uniprotkb?query=" + escapeQuery(term),
	}
}

// ProteinAtlasAdapter is the secondary tissue-expression protein source.
// Gene-based lookups take precedence: the keyword lookup only runs when no
// gene symbol produced a record.
type ProteinAtlasAdapter struct {
	cfg       config.SourceConfig
	http      *HTTPClient
	relevance []string
	logger    *log.Logger
}

func (a *ProteinAtlasAdapter) ID() SourceID    { return SourceProteinAtlas }
func (a *ProteinAtlasAdapter) Heading() string { return "Tissue Expression (Protein Atlas)" }

type proteinAtlasEntry struct {
	Gene        string `json:"Gene"`
	Ensembl     string `json:"Ensembl"`
	Tissue      string `json:"t_RNA_cerebral_cortex"`
	Pathology   string `json:"di"`
	Subcellular string `json:"scl"`
	UniProt     string `json:"up"`
}

func (a *ProteinAtlasAdapter) Search(ctx context.Context, intent QueryIntent, rawQuery string) []Record {
	var out []Record
	for _, symbol := range intent.GeneSymbols {
		out = append(out, a.searchTerm(ctx, symbol)...)
		if len(out) >= a.cfg.MaxResults {
			break
		}
	}
	if len(out) > 0 {
		return capRecords(out, a.cfg.MaxResults)
	}
	for _, kw := range intent.ProteinKeywords {
		out = append(out, a.searchTerm(ctx, kw)...)
		if len(out) >= a.cfg.MaxResults {
			break
		}
	}
	return capRecords(out, a.cfg.MaxResults)
}

func (a *ProteinAtlasAdapter) searchTerm(ctx context.Context, term string) []Record {
	url := fmt.Sprintf("%s/api/search_download.php?search=%s&format=json&columns=%s&compress=no",
		a.cfg.Endpoint, escapeQuery(term), escapeQuery("g,gs,eg,t_RNA_cerebral_cortex,di,up,scl"))
	var entries []proteinAtlasEntry
	if err := a.http.DoJSON(ctx, "GET", url, nil, nil, &entries); err != nil {
		a.logger.Printf("protein atlas search failed for %q: %v", term, err)
		return nil
	}

	var out []Record
	for _, entry := range entries {
		if !matchesAny(entry.Gene+" "+entry.Pathology, a.relevance) {
			continue
		}
		out = append(out, Record{
			Fields: []Field{
				{Name: "Gene", Value: orNA(entry.Gene)},
				{Name: "Ensembl ID", Value: orNA(entry.Ensembl)},
				{Name: "Cerebral Cortex Expression", Value: orNA(entry.Tissue)},
				{Name: "Disease Involvement", Value: orNA(entry.Pathology)},
				{Name: "Subcellular Location", Value: orNA(entry.Subcellular)},
				{Name: "UniProt", Value: orNA(entry.UniProt)},
			},
			Ref: Reference{
				Label: entry.Gene + " (Protein Atlas)",
				URL:   "https://www.proteinatlas.org/" + entry.Ensembl,
			},
		})
		if len(out) >= a.cfg.MaxResults {
			break
		}
	}
	return out
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not available"
	}
	return s
}

func (a *ProteinAtlasAdapter) FallbackRef(intent QueryIntent, rawQuery string) Reference {
	term := strings.Join(append(append([]string{}, intent.GeneSymbols...), intent.ProteinKeywords...), " ")
	if term == "" {
		term = rawQuery
	}
	return Reference{
		Label: "Search the Human Protein Atlas manually",
		URL:   "https://www.proteinatlas.org/search/" + escapeQuery(term),
	}
}
