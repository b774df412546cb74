// internal/llm/client.go
//
// Minimal chat-completion client for an OpenAI-compatible endpoint
// (OpenRouter, a local proxy, etc.). The AI adapter only needs one call:
// Complete(messages, options) -> content string.
//
// Failure contract: any transport error, timeout, or non-2xx response comes
// back as a *ProviderError. When Options.ResponseSchema is set the provider
// is asked for schema-constrained JSON, but callers must still validate the
// content defensively: providers return malformed output.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Role constants for chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn sent to the provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tune a single completion call.
type Options struct {
	Temperature    float64         // 0 means provider default
	MaxTokens      int             // 0 means provider default
	SchemaName     string          // names the schema when ResponseSchema is set
	ResponseSchema json.RawMessage // JSON schema for structured output
}

// Completer is the reasoning-call contract consumed by the AI adapter.
// The concrete Client satisfies it; tests substitute a fake.
type Completer interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
}

// ProviderError reports a failed reasoning call.
type ProviderError struct {
	Status int    // HTTP status, 0 for transport failures
	Body   string // response body snippet or transport error text
}

func (e *ProviderError) Error() string {
	if e.Status == 0 {
		return "llm: " + e.Body
	}
	return fmt.Sprintf("llm: provider returned %d: %s", e.Status, e.Body)
}

// callTimeout bounds one reasoning call wall-clock. A stalled provider must
// never stall a match; exceeding it is a failure, not a retry.
const callTimeout = 30 * time.Second

// Client talks to one OpenAI-compatible chat-completions endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	httpc   *http.Client
}

// NewClient constructs a Client for baseURL (without trailing slash).
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpc:   &http.Client{Timeout: callTimeout},
	}
}

// FromEnv builds a Client from LLM_BASE_URL / LLM_API_KEY / LLM_MODEL.
// Returns nil if no API key is configured (AI seats are then unavailable).
func FromEnv() *Client {
	key := os.Getenv("LLM_API_KEY")
	if key == "" {
		return nil
	}
	base := os.Getenv("LLM_BASE_URL")
	if base == "" {
		base = "https://openrouter.ai/api/v1"
	}
	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = "openai/gpt-4o-mini"
	}
	return NewClient(base, key, model)
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete performs one chat completion and returns the first choice content.
func (c *Client) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if opts.ResponseSchema != nil {
		name := opts.SchemaName
		if name == "" {
			name = "response"
		}
		reqBody.ResponseFormat = &responseFormat{
			Type:       "json_schema",
			JSONSchema: &jsonSchema{Name: name, Strict: true, Schema: opts.ResponseSchema},
		}
	}

	raw, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.httpc.Do(req)
	if err != nil {
		return "", &ProviderError{Body: err.Error()}
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", &ProviderError{Status: res.StatusCode, Body: snippet(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &ProviderError{Status: res.StatusCode, Body: "unparseable response body"}
	}
	if len(parsed.Choices) == 0 {
		return "", &ProviderError{Status: res.StatusCode, Body: "no choices in response"}
	}
	return parsed.Choices[0].Message.Content, nil
}

func snippet(b []byte) string {
	const max = 256
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}
