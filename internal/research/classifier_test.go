package research

import (
	"context"
	"errors"
	"io"
	"log"
	"reflect"
	"testing"

	"github.com/mohammad-safakhou/medisearch/config"
	"github.com/mohammad-safakhou/medisearch/models"
	"github.com/mohammad-safakhou/medisearch/provider"
)

type fakeProvider struct {
	extraction  models.IntentExtraction
	extractErr  error
	reply       string
	generateErr error
	lastSystem  string
	lastUser    string
}

func (f *fakeProvider) ExtractIntent(_ context.Context, system string, _ models.History, query string) (models.IntentExtraction, error) {
	f.lastSystem = system
	f.lastUser = query
	return f.extraction, f.extractErr
}

func (f *fakeProvider) Generate(_ context.Context, system string, _ models.History, user string) (string, error) {
	f.lastSystem = system
	f.lastUser = user
	return f.reply, f.generateErr
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testConfig() config.Config {
	var cfg config.Config
	cfg.Sources.DefaultSpecies = "homo_sapiens"
	return cfg
}

func TestClassifyMapsExtractionToIntent(t *testing.T) {
	p := &fakeProvider{extraction: models.IntentExtraction{
		DiseaseKeywords:   []string{"Alzheimer's disease"},
		TreatmentKeywords: []string{"Donepezil"},
		GeneSymbols:       []string{"apoe", "PSEN1"},
		VariantIDs:        []string{"RS429358"},
		ProteinKeywords:   []string{"Amyloid Beta"},
		Species:           "Homo Sapiens",
		NeedPubmed:        true,
		NeedTrials:        true,
		NeedEnsembl:       true,
		NeedUniprot:       true,
	}}
	c := NewClassifier(p, testConfig(), testLogger())

	intent := c.Classify(context.Background(), "what are treatments for alzheimers?", nil)

	if !reflect.DeepEqual(intent.DiseaseTerms, []string{"alzheimer disease"}) {
		t.Fatalf("disease terms = %v", intent.DiseaseTerms)
	}
	if !reflect.DeepEqual(intent.TreatmentTerms, []string{"donepezil"}) {
		t.Fatalf("treatment terms = %v", intent.TreatmentTerms)
	}
	if !reflect.DeepEqual(intent.GeneSymbols, []string{"APOE", "PSEN1"}) {
		t.Fatalf("gene symbols = %v", intent.GeneSymbols)
	}
	if !reflect.DeepEqual(intent.VariantIDs, []string{"rs429358"}) {
		t.Fatalf("variant ids = %v", intent.VariantIDs)
	}
	if !reflect.DeepEqual(intent.ProteinKeywords, []string{"amyloid-beta"}) {
		t.Fatalf("protein keywords = %v", intent.ProteinKeywords)
	}
	if intent.Species != "homo_sapiens" {
		t.Fatalf("species = %q", intent.Species)
	}
	for _, id := range []SourceID{SourceLiterature, SourceTrials, SourceGenomics, SourceProteins} {
		if !intent.Needs(id) {
			t.Fatalf("expected %s flagged", id)
		}
	}
	for _, id := range []SourceID{SourceProteinAtlas, SourceGEO, SourceArrayExpress, SourceSequences} {
		if intent.Needs(id) {
			t.Fatalf("did not expect %s flagged", id)
		}
	}
}

func TestClassifyErrorYieldsEmptyIntent(t *testing.T) {
	p := &fakeProvider{extractErr: errors.New("upstream down")}
	c := NewClassifier(p, testConfig(), testLogger())

	intent := c.Classify(context.Background(), "hello", nil)
	if !intent.Empty() {
		t.Fatalf("expected empty intent, got %+v", intent)
	}
	if len(intent.DiseaseTerms) != 0 {
		t.Fatalf("expected no terms, got %v", intent.DiseaseTerms)
	}
}

func TestClassifyNoStructuredOutputYieldsEmptyIntent(t *testing.T) {
	p := &fakeProvider{extractErr: provider.ErrNoStructuredOutput}
	c := NewClassifier(p, testConfig(), testLogger())

	if intent := c.Classify(context.Background(), "hello there", nil); !intent.Empty() {
		t.Fatalf("expected empty intent, got %+v", intent)
	}
}

func TestClassifySpeciesDefaultAndFolding(t *testing.T) {
	p := &fakeProvider{extraction: models.IntentExtraction{Species: "Mus Musculus"}}
	c := NewClassifier(p, testConfig(), testLogger())
	if got := c.Classify(context.Background(), "q", nil).Species; got != "mus_musculus" {
		t.Fatalf("species folding gave %q", got)
	}

	p.extraction.Species = ""
	if got := c.Classify(context.Background(), "q", nil).Species; got != "homo_sapiens" {
		t.Fatalf("default species gave %q", got)
	}
}
