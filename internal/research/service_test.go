package research

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/medisearch/config"
	"github.com/mohammad-safakhou/medisearch/models"
	"github.com/mohammad-safakhou/medisearch/session/inmemory"
)

func serviceConfig() config.Config {
	var cfg config.Config
	cfg.General.MaxConcurrent = 2
	cfg.General.HistoryBudget = 1000
	cfg.Sources.DefaultSpecies = "homo_sapiens"
	return cfg
}

func newTestService(p *fakeProvider, adapters []Adapter) (*Service, *inmemory.Store) {
	cfg := serviceConfig()
	sessions := inmemory.New(0)
	svc := NewService(
		cfg,
		NewClassifier(p, cfg, testLogger()),
		NewAggregator(adapters, nil, time.Second, testLogger()),
		NewSynthesizer(p, time.Second),
		sessions,
		nil,
		nil,
		testLogger(),
	)
	return svc, sessions
}

func TestAnswerRecordsBothTurns(t *testing.T) {
	p := &fakeProvider{reply: "An answer."}
	svc, sessions := newTestService(p, nil)

	reply, sid, err := svc.Answer(context.Background(), "", "what is dementia?")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if sid == "" {
		t.Fatalf("expected a session id")
	}
	if !strings.Contains(reply, "An answer.") {
		t.Fatalf("reply = %q", reply)
	}

	h, err := sessions.History(context.Background(), sid)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(h) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(h))
	}
	if h[0].Role != models.RoleUser || h[1].Role != models.RoleAssistant {
		t.Fatalf("turn roles wrong: %+v", h)
	}
	if h[1].Content != reply {
		t.Fatalf("assistant turn must store the full reply")
	}
}

func TestAnswerReusesSession(t *testing.T) {
	p := &fakeProvider{reply: "ok"}
	svc, sessions := newTestService(p, nil)

	_, sid, err := svc.Answer(context.Background(), "", "first")
	if err != nil {
		t.Fatalf("first answer: %v", err)
	}
	_, sid2, err := svc.Answer(context.Background(), sid, "second")
	if err != nil {
		t.Fatalf("second answer: %v", err)
	}
	if sid2 != sid {
		t.Fatalf("session id changed: %q -> %q", sid, sid2)
	}
	h, _ := sessions.History(context.Background(), sid)
	if len(h) != 4 {
		t.Fatalf("expected 4 turns after two exchanges, got %d", len(h))
	}
}

func TestAnswerUsesEvidenceWhenIntentFlagsSources(t *testing.T) {
	p := &fakeProvider{
		reply: "Grounded answer.",
		extraction: models.IntentExtraction{
			DiseaseKeywords: []string{"alzheimer disease"},
			NeedPubmed:      true,
		},
	}
	lit := &fakeAdapter{
		id:      SourceLiterature,
		heading: "Research Papers",
		records: []Record{record("A paper", "https://pubmed.ncbi.nlm.nih.gov/1/")},
	}
	svc, _ := newTestService(p, []Adapter{lit})

	reply, _, err := svc.Answer(context.Background(), "", "treatments for alzheimers?")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if lit.calls() != 1 {
		t.Fatalf("literature adapter calls = %d", lit.calls())
	}
	if !strings.Contains(p.lastUser, "A paper") {
		t.Fatalf("evidence brief not handed to the model: %q", p.lastUser)
	}
	if !strings.Contains(reply, "https://pubmed.ncbi.nlm.nih.gov/1/") {
		t.Fatalf("reference footer missing: %q", reply)
	}
}

// gatedProvider parks Generate until released so tests can hold a pipeline
// worker busy deterministically.
type gatedProvider struct {
	started chan struct{}
	release chan struct{}
}

func (g *gatedProvider) ExtractIntent(context.Context, string, models.History, string) (models.IntentExtraction, error) {
	return models.IntentExtraction{}, nil
}

func (g *gatedProvider) Generate(context.Context, string, models.History, string) (string, error) {
	g.started <- struct{}{}
	<-g.release
	return "done", nil
}

func newGatedService(p *gatedProvider) *Service {
	cfg := serviceConfig()
	cfg.General.MaxConcurrent = 1
	return NewService(
		cfg,
		NewClassifier(p, cfg, testLogger()),
		NewAggregator(nil, nil, time.Second, testLogger()),
		NewSynthesizer(p, time.Minute),
		inmemory.New(0),
		nil,
		nil,
		testLogger(),
	)
}

func TestAnswerBlocksUntilWorkerFreesUp(t *testing.T) {
	p := &gatedProvider{started: make(chan struct{}), release: make(chan struct{})}
	svc := newGatedService(p)

	first := make(chan error, 1)
	go func() {
		_, _, err := svc.Answer(context.Background(), "", "first")
		first <- err
	}()
	<-p.started // first request now owns the only worker

	second := make(chan error, 1)
	go func() {
		_, _, err := svc.Answer(context.Background(), "", "second")
		second <- err
	}()

	select {
	case err := <-second:
		t.Fatalf("second request must wait for a worker, returned early with err=%v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(p.release)
	<-p.started // second request reaches the model once the worker frees up

	if err := <-first; err != nil {
		t.Fatalf("first request: %v", err)
	}
	if err := <-second; err != nil {
		t.Fatalf("second request: %v", err)
	}
}

func TestAnswerHonorsContextWhileWaiting(t *testing.T) {
	p := &gatedProvider{started: make(chan struct{}), release: make(chan struct{})}
	svc := newGatedService(p)

	first := make(chan error, 1)
	go func() {
		_, _, err := svc.Answer(context.Background(), "", "first")
		first <- err
	}()
	<-p.started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := svc.Answer(ctx, "", "second")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled while waiting for a worker, got %v", err)
	}

	close(p.release)
	if err := <-first; err != nil {
		t.Fatalf("first request: %v", err)
	}
}

type panickyProvider struct{ fakeProvider }

func (p *panickyProvider) Generate(context.Context, string, models.History, string) (string, error) {
	panic("model client bug")
}

func TestAnswerRecoversFromPanics(t *testing.T) {
	cfg := serviceConfig()
	svc := NewService(
		cfg,
		NewClassifier(&fakeProvider{}, cfg, testLogger()),
		NewAggregator(nil, nil, time.Second, testLogger()),
		NewSynthesizer(&panickyProvider{}, time.Second),
		inmemory.New(0),
		nil,
		nil,
		testLogger(),
	)

	_, _, err := svc.Answer(context.Background(), "", "hello")
	if err == nil {
		t.Fatalf("expected an error from a panicking pipeline")
	}
	if !strings.Contains(err.Error(), "unexpected failure") {
		t.Fatalf("error = %v", err)
	}
}
