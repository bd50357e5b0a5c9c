package openai_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mohammad-safakhou/medisearch/config"
	"github.com/mohammad-safakhou/medisearch/models"
)

// ErrNoStructuredOutput reports that the model answered without the
// requested tool call, or with arguments that do not decode.
var ErrNoStructuredOutput = errors.New("no structured output from model")

const extractToolName = "get_research_and_trials"

// client implements the provider interface using OpenAI's API
type client struct {
	cfg        config.LLMConfig
	httpClient *http.Client
}

// Message represents a message in a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// request represents a request to the OpenAI chat completions API
type request struct {
	Model       string           `json:"model"`
	Messages    []Message        `json:"messages"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Tools       []map[string]any `json:"tools,omitempty"`
	ToolChoice  any              `json:"tool_choice,omitempty"`
}

// response represents a response from the OpenAI chat completions API
type response struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// NewClient creates a new OpenAI client
func NewClient(cfg config.LLMConfig) *client {
	timeout := cfg.SynthesizeTimeout
	if cfg.ClassifyTimeout > timeout {
		timeout = cfg.ClassifyTimeout
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ExtractIntent asks the model to call the extraction tool and decodes its
// arguments. A reply without the tool call is ErrNoStructuredOutput.
func (c *client) ExtractIntent(ctx context.Context, system string, history models.History, query string) (models.IntentExtraction, error) {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: system})
	for _, turn := range history {
		messages = append(messages, Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, Message{Role: "user", Content: query})

	reqBody := request{
		Model:       c.cfg.CompletionModel,
		Messages:    messages,
		Temperature: 0,
		Tools:       []map[string]any{extractTool()},
		ToolChoice:  map[string]any{"type": "function", "function": map[string]any{"name": extractToolName}},
	}

	var resp response
	if err := c.sendRequest(ctx, reqBody, &resp); err != nil {
		return models.IntentExtraction{}, err
	}
	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		return models.IntentExtraction{}, ErrNoStructuredOutput
	}
	call := resp.Choices[0].Message.ToolCalls[0]
	if call.Function.Name != extractToolName {
		return models.IntentExtraction{}, ErrNoStructuredOutput
	}
	var out models.IntentExtraction
	if err := json.Unmarshal([]byte(call.Function.Arguments), &out); err != nil {
		return models.IntentExtraction{}, fmt.Errorf("%w: %v", ErrNoStructuredOutput, err)
	}
	return out, nil
}

// Generate produces free-form text from the model.
func (c *client) Generate(ctx context.Context, system string, history models.History, user string) (string, error) {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: system})
	for _, turn := range history {
		messages = append(messages, Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, Message{Role: "user", Content: user})

	reqBody := request{
		Model:       c.cfg.CompletionModel,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}

	var resp response
	if err := c.sendRequest(ctx, reqBody, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// extractTool is the JSON schema of the intent-extraction function. Field
// names match models.IntentExtraction.
func extractTool() map[string]any {
	strArray := func(desc string) map[string]any {
		return map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": desc,
		}
	}
	boolProp := func(desc string) map[string]any {
		return map[string]any{"type": "boolean", "description": desc}
	}
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        extractToolName,
			"description": "Extract search parameters and routing flags from a biomedical research question",
			"parameters": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"disease_keywords":   strArray("Disease terms such as 'Alzheimer disease', 'dementia'"),
					"treatment_keywords": strArray("Treatments such as 'donepezil', 'anti-amyloid'"),
					"gene_symbols":       strArray("Gene symbols such as 'APOE', 'PSEN1'"),
					"variant_ids":        strArray("Variant identifiers such as 'rs429358'"),
					"phenotype_terms":    strArray("Phenotypes such as 'cognitive decline'"),
					"protein_keywords":   strArray("Proteins such as 'amyloid-beta', 'tau protein'"),
					"sequence_keywords":  strArray("Sequence search terms such as 'APOE'"),
					"species": map[string]any{
						"type":        "string",
						"description": "Species name, default 'homo_sapiens'",
					},
					"need_pubmed":        boolProp("Literature search is relevant"),
					"need_trials":        boolProp("Clinical trial search is relevant"),
					"need_ensembl":       boolProp("Set only when explicit gene symbols, variant ids or phenotype terms are present"),
					"need_uniprot":       boolProp("Set only when explicit protein keywords are present"),
					"need_protein_atlas": boolProp("Tissue expression / protein atlas data is relevant"),
					"need_geo":           boolProp("Expression study search (GEO) is relevant"),
					"need_arrayexpress":  boolProp("Expression study search (ArrayExpress) is relevant"),
					"need_genbank":       boolProp("Set only when explicit sequence keywords are present"),
				},
			},
		},
	}
}

// sendRequest sends a request to the OpenAI API
func (c *client) sendRequest(ctx context.Context, reqBody request, out *response) error {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
