package research

import (
	"context"
	"log"
	"net/url"
	"strings"

	"github.com/mohammad-safakhou/medisearch/config"
)

// Adapter is the uniform contract over one external biomedical data source.
// Search fails closed: transport errors, malformed payloads and empty result
// sets all yield nil, never an error. FallbackRef points a human at the
// source's own search UI when the adapter could not produce records.
type Adapter interface {
	ID() SourceID
	Heading() string
	Search(ctx context.Context, intent QueryIntent, rawQuery string) []Record
	FallbackRef(intent QueryIntent, rawQuery string) Reference
}

// NewAdapters constructs the full adapter set in section priority order.
// Adapters are stateless beyond configuration and safe to share across
// concurrent requests.
func NewAdapters(cfg config.SourcesConfig, logger *log.Logger) []Adapter {
	newClient := func(sc config.SourceConfig) *HTTPClient {
		return NewHTTPClient(sc.Timeout, sc.Retries, 0)
	}
	return []Adapter{
		&PubMedAdapter{cfg: cfg.PubMed, http: newClient(cfg.PubMed), logger: logger},
		&TrialsAdapter{cfg: cfg.Trials, http: newClient(cfg.Trials), logger: logger},
		&EnsemblAdapter{cfg: cfg.Ensembl, http: newClient(cfg.Ensembl), logger: logger},
		&UniProtAdapter{cfg: cfg.UniProt, http: newClient(cfg.UniProt), logger: logger},
		&ProteinAtlasAdapter{
			cfg:       cfg.ProteinAtlas,
			http:      newClient(cfg.ProteinAtlas),
			relevance: cfg.Expression.RelevanceKeywords,
			logger:    logger,
		},
		&GEOAdapter{
			cfg:       cfg.Expression.GEO,
			http:      newClient(cfg.Expression.GEO),
			relevance: cfg.Expression.RelevanceKeywords,
			logger:    logger,
		},
		&ArrayExpressAdapter{
			cfg:       cfg.Expression.ArrayExpress,
			http:      newClient(cfg.Expression.ArrayExpress),
			relevance: cfg.Expression.RelevanceKeywords,
			logger:    logger,
		},
		&GenBankAdapter{cfg: cfg.GenBank, http: newClient(cfg.GenBank), logger: logger},
	}
}

func escapeQuery(s string) string { return url.QueryEscape(s) }

// joinAND builds an upstream boolean query from term lists, skipping empty
// lists so "a AND b" never degenerates into "a AND ".
func joinAND(lists ...[]string) string {
	var parts []string
	for _, l := range lists {
		for _, t := range l {
			if strings.TrimSpace(t) != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " AND ")
}

// matchesAny reports whether any keyword appears in the haystack,
// case-insensitively. Used by the expression-study relevance filter:
// precision over recall, an empty section beats an off-topic one.
func matchesAny(haystack string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	h := strings.ToLower(haystack)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(h, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func capRecords(records []Record, max int) []Record {
	if max > 0 && len(records) > max {
		return records[:max]
	}
	return records
}
