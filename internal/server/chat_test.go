package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/medisearch/config"
	"github.com/mohammad-safakhou/medisearch/internal/research"
	"github.com/mohammad-safakhou/medisearch/models"
	"github.com/mohammad-safakhou/medisearch/session/inmemory"
)

type stubProvider struct {
	reply string
}

func (s *stubProvider) ExtractIntent(context.Context, string, models.History, string) (models.IntentExtraction, error) {
	return models.IntentExtraction{}, nil
}

func (s *stubProvider) Generate(context.Context, string, models.History, string) (string, error) {
	return s.reply, nil
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard, "", 0)

	var cfg config.Config
	cfg.General.MaxConcurrent = 4
	cfg.Sources.DefaultSpecies = "homo_sapiens"

	p := &stubProvider{reply: "General answer."}
	classifier := research.NewClassifier(p, cfg, logger)
	aggregator := research.NewAggregator(nil, nil, time.Second, logger)
	synthesizer := research.NewSynthesizer(p, time.Second)
	svc := research.NewService(cfg, classifier, aggregator, synthesizer, inmemory.New(0), nil, nil, logger)

	e := newEcho(cfg, logger)
	h := &ChatHandler{Service: svc}
	h.Register(e.Group("/api"))

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func postChat(t *testing.T, srv *httptest.Server, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, decoded
}

func TestChatEndpointSuccess(t *testing.T) {
	srv := testServer(t)

	code, body := postChat(t, srv, `{"message":"what is alzheimer disease?"}`)
	if code != http.StatusOK {
		t.Fatalf("status %d, body %v", code, body)
	}
	if body["status"] != "success" {
		t.Fatalf("status field = %v", body["status"])
	}
	if body["session_id"] == "" || body["session_id"] == nil {
		t.Fatalf("missing session id: %v", body)
	}
	if reply, _ := body["response"].(string); !strings.Contains(reply, "General answer.") {
		t.Fatalf("response = %q", reply)
	}
}

func TestChatEndpointSessionContinuity(t *testing.T) {
	srv := testServer(t)

	_, first := postChat(t, srv, `{"message":"hello"}`)
	sid, _ := first["session_id"].(string)
	if sid == "" {
		t.Fatalf("no session id in first response")
	}

	code, second := postChat(t, srv, `{"message":"and more","session_id":"`+sid+`"}`)
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if second["session_id"] != sid {
		t.Fatalf("session id changed: %v -> %v", sid, second["session_id"])
	}
}

func TestChatEndpointRejectsEmptyMessage(t *testing.T) {
	srv := testServer(t)

	code, body := postChat(t, srv, `{"message":"   "}`)
	if code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", code)
	}
	if body["status"] != "error" {
		t.Fatalf("error envelope missing: %v", body)
	}
}

func TestChatEndpointRejectsBadBody(t *testing.T) {
	srv := testServer(t)

	code, body := postChat(t, srv, `{"message":`)
	if code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400, body %v", code, body)
	}
}

func TestHealthz(t *testing.T) {
	srv := testServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
}
