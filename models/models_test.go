package models

import (
	"strings"
	"testing"
)

func TestTrimKeepsMostRecentTurn(t *testing.T) {
	h := History{
		{Role: RoleUser, Content: strings.Repeat("a", 400)},
		{Role: RoleAssistant, Content: strings.Repeat("b", 400)},
		{Role: RoleUser, Content: strings.Repeat("c", 400)},
	}
	trimmed := h.Trim(1)
	if len(trimmed) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(trimmed))
	}
	if trimmed[0].Content[0] != 'c' {
		t.Fatalf("expected most recent turn to survive, got role=%s", trimmed[0].Role)
	}
}

func TestTrimDropsOldestFirst(t *testing.T) {
	h := History{
		{Role: RoleUser, Content: strings.Repeat("a", 200)},
		{Role: RoleAssistant, Content: strings.Repeat("b", 200)},
		{Role: RoleUser, Content: "short"},
	}
	budget := History(h[1:]).Tokens()
	trimmed := h.Trim(budget)
	if len(trimmed) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(trimmed))
	}
	if trimmed[0].Role != RoleAssistant {
		t.Fatalf("expected oldest turn dropped, first surviving role is %s", trimmed[0].Role)
	}
}

func TestTrimNoopWithinBudget(t *testing.T) {
	h := History{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	}
	if got := h.Trim(1000); len(got) != 2 {
		t.Fatalf("expected untouched history, got %d turns", len(got))
	}
}

func TestTrimEmptyHistory(t *testing.T) {
	var h History
	if got := h.Trim(10); len(got) != 0 {
		t.Fatalf("expected empty history, got %d turns", len(got))
	}
}
