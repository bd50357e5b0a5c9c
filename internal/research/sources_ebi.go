package research

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mohammad-safakhou/medisearch/config"
)

// ArrayExpressAdapter searches BioStudies/ArrayExpress for expression
// studies. Same precision-over-recall relevance policy as the GEO adapter.
type ArrayExpressAdapter struct {
	cfg       config.SourceConfig
	http      *HTTPClient
	relevance []string
	logger    *log.Logger
}

func (a *ArrayExpressAdapter) ID() SourceID    { return SourceArrayExpress }
func (a *ArrayExpressAdapter) Heading() string { return "Expression Studies (ArrayExpress)" }

func (a *ArrayExpressAdapter) Search(ctx context.Context, intent QueryIntent, rawQuery string) []Record {
	keywords := append(append([]string{}, intent.ProteinKeywords...), intent.GeneSymbols...)
	var out []Record
	for _, kw := range keywords {
		out = append(out, a.searchTerm(ctx, kw)...)
		if len(out) >= a.cfg.MaxResults {
			break
		}
	}
	if len(out) == 0 && len(intent.DiseaseTerms) > 0 {
		out = a.searchTerm(ctx, strings.Join(intent.DiseaseTerms, " "))
	}
	return capRecords(out, a.cfg.MaxResults)
}

func (a *ArrayExpressAdapter) searchTerm(ctx context.Context, term string) []Record {
	url := fmt.Sprintf("%s/search?query=%s&pageSize=%d", a.cfg.Endpoint, escapeQuery(term), a.cfg.MaxResults)
	var resp struct {
		Hits []struct {
			Accession string `json:"accession"`
			Title     string `json:"title"`
			Type      string `json:"type"`
			Author    string `json:"author"`
			Links     int    `json:"links"`
		} `json:"hits"`
	}
	if err := a.http.DoJSON(ctx, "GET", url, nil, nil, &resp); err != nil {
		a.logger.Printf("arrayexpress search failed for %q: %v", term, err)
		return nil
	}

	var out []Record
	for _, hit := range resp.Hits {
		if !matchesAny(hit.Title, a.relevance) {
			continue
		}
		out = append(out, Record{
			Fields: []Field{
				{Name: "Accession", Value: orNA(hit.Accession)},
				{Name: "Title", Value: orNA(hit.Title)},
				{Name: "Study Type", Value: orNA(hit.Type)},
			},
			Ref: Reference{
				Label: hit.Title,
				URL:   "https://www.ebi.ac.uk/biostudies/arrayexpress/studies/" + hit.Accession,
			},
		})
		if len(out) >= a.cfg.MaxResults {
			break
		}
	}
	return out
}

func (a *ArrayExpressAdapter) FallbackRef(intent QueryIntent, rawQuery string) Reference {
	term := strings.Join(intent.DiseaseTerms, " ")
	if term == "" {
		term = rawQuery
	}
	return Reference{
		Label: "Search ArrayExpress manually",
		URL:   "https://www.ebi.ac.uk/biostudies/arrayexpress/studies?query=" + escapeQuery(term),
	}
}
