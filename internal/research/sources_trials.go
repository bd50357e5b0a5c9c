package research

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mohammad-safakhou/medisearch/config"
)

// TrialsAdapter searches ClinicalTrials.gov (v2 API, Essie expression
// syntax: condition and intervention are separate query fields).
type TrialsAdapter struct {
	cfg    config.SourceConfig
	http   *HTTPClient
	logger *log.Logger
}

func (a *TrialsAdapter) ID() SourceID    { return SourceTrials }
func (a *TrialsAdapter) Heading() string { return "Clinical Trials" }

func (a *TrialsAdapter) Search(ctx context.Context, intent QueryIntent, rawQuery string) []Record {
	cond := joinAND(intent.DiseaseTerms)
	intr := joinAND(intent.TreatmentTerms)
	if cond == "" && intr == "" {
		cond = rawQuery
	}

	url := fmt.Sprintf("%s?format=json&pageSize=%d&fields=%s",
		a.cfg.Endpoint, a.cfg.MaxResults,
		escapeQuery("NCTId,BriefTitle,OverallStatus,BriefSummary,Phase,InterventionName"))
	if cond != "" {
		url += "&query.cond=" + escapeQuery(cond)
	}
	if intr != "" {
		url += "&query.intr=" + escapeQuery(intr)
	}

	var resp struct {
		Studies []struct {
			ProtocolSection struct {
				Identification struct {
					NCTID      string `json:"nctId"`
					BriefTitle string `json:"briefTitle"`
				} `json:"identificationModule"`
				Status struct {
					OverallStatus string `json:"overallStatus"`
				} `json:"statusModule"`
				Description struct {
					BriefSummary        string `json:"briefSummary"`
					DetailedDescription string `json:"detailedDescription"`
				} `json:"descriptionModule"`
				Design struct {
					Phases []string `json:"phases"`
				} `json:"designModule"`
				ArmsInterventions struct {
					Interventions []struct {
						Name string `json:"name"`
					} `json:"interventions"`
				} `json:"armsInterventionsModule"`
			} `json:"protocolSection"`
		} `json:"studies"`
	}
	if err := a.http.DoJSON(ctx, "GET", url, nil, nil, &resp); err != nil {
		a.logger.Printf("clinicaltrials search failed for cond=%q intr=%q: %v", cond, intr, err)
		return nil
	}

	var out []Record
	for _, study := range resp.Studies {
		p := study.ProtocolSection
		summary := p.Description.BriefSummary
		if summary == "" {
			summary = p.Description.DetailedDescription
		}
		if summary == "" {
			summary = "No description available"
		}
		phase := strings.Join(p.Design.Phases, ", ")
		if phase == "" {
			phase = "Not specified"
		}
		var interventions []string
		for _, i := range p.ArmsInterventions.Interventions {
			if i.Name != "" {
				interventions = append(interventions, i.Name)
			}
		}
		if len(interventions) == 0 {
			interventions = []string{"Not specified"}
		}
		out = append(out, Record{
			Fields: []Field{
				{Name: "Title", Value: p.Identification.BriefTitle},
				{Name: "Status", Value: p.Status.OverallStatus},
				{Name: "Phase", Value: phase},
				{Name: "Interventions", Value: strings.Join(interventions, ", ")},
				{Name: "Description", Value: summary},
				{Name: "NCT ID", Value: p.Identification.NCTID},
			},
			Ref: Reference{
				Label: p.Identification.BriefTitle + " (" + p.Identification.NCTID + ")",
				URL:   "https://clinicaltrials.gov/study/" + p.Identification.NCTID,
			},
		})
	}
	return capRecords(out, a.cfg.MaxResults)
}

func (a *TrialsAdapter) FallbackRef(intent QueryIntent, rawQuery string) Reference {
	term := joinAND(intent.DiseaseTerms, intent.TreatmentTerms)
	if term == "" {
		term = rawQuery
	}
	return Reference{
		Label: "Search ClinicalTrials.gov manually",
		URL:   "https://clinicaltrials.gov/search?term=" + escapeQuery(term),
	}
}
