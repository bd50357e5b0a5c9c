package provider

import (
	"context"
	"errors"

	"github.com/mohammad-safakhou/medisearch/config"
	"github.com/mohammad-safakhou/medisearch/models"
	openai_provider "github.com/mohammad-safakhou/medisearch/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
)

// ErrNoStructuredOutput is returned by ExtractIntent when the model did not
// produce a usable tool call. Callers treat it as "nothing extracted", not
// as a request failure.
var ErrNoStructuredOutput = openai_provider.ErrNoStructuredOutput

// Provider is the interface that all LLM implementations must satisfy.
// ExtractIntent is the text-understanding capability constrained to the
// intent schema; Generate is the free-text generation capability.
type Provider interface {
	ExtractIntent(ctx context.Context, system string, history models.History, query string) (models.IntentExtraction, error)
	Generate(ctx context.Context, system string, history models.History, user string) (string, error)
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(client Client, cfg config.LLMConfig) (Provider, error) {
	switch client {
	case OpenAI:
		return openai_provider.NewClient(cfg), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
