package research

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mohammad-safakhou/medisearch/config"
)

// The PubMed, GEO and GenBank adapters all sit on NCBI's E-utilities:
// esearch returns a list of ids for a term, esummary/efetch resolve them.

type esearchResponse struct {
	Result struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

func (c *HTTPClient) esearch(ctx context.Context, endpoint, db, term string, retmax int) ([]string, error) {
	url := fmt.Sprintf("%s/esearch.fcgi?db=%s&term=%s&retmax=%d&retmode=json", endpoint, db, escapeQuery(term), retmax)
	var resp esearchResponse
	if err := c.DoJSON(ctx, "GET", url, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Result.IDList, nil
}

// PubMedAdapter searches the literature via PubMed.
type PubMedAdapter struct {
	cfg    config.SourceConfig
	http   *HTTPClient
	logger *log.Logger
}

func (a *PubMedAdapter) ID() SourceID    { return SourceLiterature }
func (a *PubMedAdapter) Heading() string { return "Research Papers" }

func (a *PubMedAdapter) Search(ctx context.Context, intent QueryIntent, rawQuery string) []Record {
	term := joinAND(intent.TreatmentTerms, intent.DiseaseTerms)
	if term == "" {
		term = rawQuery
	}
	pmids, err := a.http.esearch(ctx, a.cfg.Endpoint, "pubmed", term, a.cfg.MaxResults)
	if err != nil {
		a.logger.Printf("pubmed esearch failed for %q: %v", term, err)
		return nil
	}
	if len(pmids) == 0 {
		return nil
	}

	var fetched struct {
		Articles []struct {
			Citation struct {
				PMID    string `xml:"PMID"`
				Article struct {
					Title    string `xml:"ArticleTitle"`
					Abstract struct {
						Text []string `xml:"AbstractText"`
					} `xml:"Abstract"`
				} `xml:"Article"`
			} `xml:"MedlineCitation"`
		} `xml:"PubmedArticle"`
	}
	url := fmt.Sprintf("%s/efetch.fcgi?db=pubmed&id=%s&retmode=xml", a.cfg.Endpoint, strings.Join(pmids, ","))
	if err := a.http.DoXML(ctx, "GET", url, nil, nil, &fetched); err != nil {
		a.logger.Printf("pubmed efetch failed: %v", err)
		return nil
	}

	var out []Record
	for _, art := range fetched.Articles {
		abstract := strings.Join(art.Citation.Article.Abstract.Text, " ")
		if abstract == "" {
			abstract = "No abstract available."
		}
		out = append(out, Record{
			Fields: []Field{
				{Name: "Title", Value: art.Citation.Article.Title},
				{Name: "Abstract", Value: abstract},
				{Name: "PMID", Value: art.Citation.PMID},
			},
			Ref: Reference{
				Label: art.Citation.Article.Title,
				URL:   "https://pubmed.ncbi.nlm.nih.gov/" + art.Citation.PMID + "/",
			},
		})
	}
	return capRecords(out, a.cfg.MaxResults)
}

func (a *PubMedAdapter) FallbackRef(intent QueryIntent, rawQuery string) Reference {
	term := joinAND(intent.TreatmentTerms, intent.DiseaseTerms)
	if term == "" {
		term = rawQuery
	}
	return Reference{
		Label: "Search PubMed manually",
		URL:   "https://pubmed.ncbi.nlm.nih.gov/?term=" + escapeQuery(term),
	}
}

// GEOAdapter searches NCBI GEO for expression studies. Results are filtered
// by the configured relevance keywords before being accepted.
type GEOAdapter struct {
	cfg       config.SourceConfig
	http      *HTTPClient
	relevance []string
	logger    *log.Logger
}

func (a *GEOAdapter) ID() SourceID    { return SourceGEO }
func (a *GEOAdapter) Heading() string { return "Expression Studies (GEO)" }

func (a *GEOAdapter) Search(ctx context.Context, intent QueryIntent, rawQuery string) []Record {
	keywords := append(append([]string{}, intent.ProteinKeywords...), intent.GeneSymbols...)
	var out []Record
	for _, kw := range keywords {
		out = append(out, a.searchTerm(ctx, kw)...)
		if len(out) >= a.cfg.MaxResults {
			break
		}
	}
	// Per-keyword calls yielded nothing: one more attempt with the disease
	// terms before the section is declared empty.
	if len(out) == 0 && len(intent.DiseaseTerms) > 0 {
		out = a.searchTerm(ctx, strings.Join(intent.DiseaseTerms, " "))
	}
	return capRecords(out, a.cfg.MaxResults)
}

func (a *GEOAdapter) searchTerm(ctx context.Context, term string) []Record {
	full := fmt.Sprintf("%s AND Homo sapiens[Organism] AND gse[EntryType]", term)
	ids, err := a.http.esearch(ctx, a.cfg.Endpoint, "gds", full, a.cfg.MaxResults)
	if err != nil {
		a.logger.Printf("geo esearch failed for %q: %v", term, err)
		return nil
	}
	if len(ids) == 0 {
		return nil
	}

	url := fmt.Sprintf("%s/esummary.fcgi?db=gds&id=%s&retmode=json", a.cfg.Endpoint, strings.Join(ids, ","))
	var resp struct {
		Result map[string]struct {
			Accession string `json:"accession"`
			Title     string `json:"title"`
			Summary   string `json:"summary"`
			NSamples  int    `json:"n_samples"`
			GDSType   string `json:"gdstype"`
		} `json:"result"`
	}
	if err := a.http.DoJSON(ctx, "GET", url, nil, nil, &resp); err != nil {
		a.logger.Printf("geo esummary failed: %v", err)
		return nil
	}

	var out []Record
	for _, id := range ids {
		study, ok := resp.Result[id]
		if !ok {
			continue
		}
		if !matchesAny(study.Title+" "+study.Summary, a.relevance) {
			continue
		}
		out = append(out, Record{
			Fields: []Field{
				{Name: "Accession", Value: study.Accession},
				{Name: "Title", Value: study.Title},
				{Name: "Summary", Value: study.Summary},
				{Name: "Samples", Value: fmt.Sprintf("%d", study.NSamples)},
				{Name: "Study Type", Value: study.GDSType},
			},
			Ref: Reference{
				Label: study.Title,
				URL:   "https://www.ncbi.nlm.nih.gov/geo/query/acc.cgi?acc=" + study.Accession,
			},
		})
	}
	return out
}

func (a *GEOAdapter) FallbackRef(intent QueryIntent, rawQuery string) Reference {
	term := strings.Join(intent.DiseaseTerms, " ")
	if term == "" {
		term = rawQuery
	}
	return Reference{
		Label: "Search GEO datasets manually",
		URL:   "https://www.ncbi.nlm.nih.gov/gds/?term=" + escapeQuery(term),
	}
}

// GenBankAdapter searches the NCBI nucleotide database for sequence records.
type GenBankAdapter struct {
	cfg    config.SourceConfig
	http   *HTTPClient
	logger *log.Logger
}

func (a *GenBankAdapter) ID() SourceID    { return SourceSequences }
func (a *GenBankAdapter) Heading() string { return "Sequence Information" }

func (a *GenBankAdapter) Search(ctx context.Context, intent QueryIntent, rawQuery string) []Record {
	species := strings.ReplaceAll(intent.Species, "_", " ")
	term := joinAND(intent.SequenceKeywords, []string{species})
	ids, err := a.http.esearch(ctx, a.cfg.Endpoint, "nucleotide", term, a.cfg.MaxResults)
	if err != nil {
		a.logger.Printf("genbank esearch failed for %q: %v", term, err)
		return nil
	}
	if len(ids) == 0 {
		return nil
	}

	var fetched struct {
		Seqs []struct {
			Accession  string `xml:"GBSeq_primary-accession"`
			Definition string `xml:"GBSeq_definition"`
			Organism   string `xml:"GBSeq_organism"`
		} `xml:"GBSeq"`
	}
	url := fmt.Sprintf("%s/efetch.fcgi?db=nucleotide&id=%s&rettype=gb&retmode=xml", a.cfg.Endpoint, strings.Join(ids, ","))
	if err := a.http.DoXML(ctx, "GET", url, nil, nil, &fetched); err != nil {
		a.logger.Printf("genbank efetch failed: %v", err)
		return nil
	}

	var out []Record
	for _, seq := range fetched.Seqs {
		definition := seq.Definition
		if definition == "" {
			definition = "No definition available"
		}
		out = append(out, Record{
			Fields: []Field{
				{Name: "Accession", Value: seq.Accession},
				{Name: "Definition", Value: definition},
				{Name: "Organism", Value: seq.Organism},
			},
			Ref: Reference{
				Label: seq.Accession + " (GenBank)",
				URL:   "https://www.ncbi.nlm.nih.gov/nuccore/" + seq.Accession,
			},
		})
	}
	return capRecords(out, a.cfg.MaxResults)
}

func (a *GenBankAdapter) FallbackRef(intent QueryIntent, rawQuery string) Reference {
	term := strings.Join(intent.SequenceKeywords, " ")
	if term == "" {
		term = rawQuery
	}
	return Reference{
		Label: "Search GenBank manually",
		URL:   "https://www.ncbi.nlm.nih.gov/nuccore/?term=" + escapeQuery(term),
	}
}
