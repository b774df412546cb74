package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestComplete_ParsesFirstChoice(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("auth header = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello there"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "test-model")
	out, err := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "hello there" {
		t.Fatalf("content = %q", out)
	}
	if gotReq.Model != "test-model" {
		t.Fatalf("model = %q", gotReq.Model)
	}
	if gotReq.ResponseFormat != nil {
		t.Fatalf("unexpected response_format on a plain call")
	}
}

func TestComplete_SchemaConstrained(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_schema" {
			t.Errorf("response_format missing: %+v", req.ResponseFormat)
		} else if req.ResponseFormat.JSONSchema.Name != "clue" || !req.ResponseFormat.JSONSchema.Strict {
			t.Errorf("schema envelope wrong: %+v", req.ResponseFormat.JSONSchema)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"clue\":\"water\"}"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "m")
	out, err := c.Complete(context.Background(), nil, Options{
		SchemaName:     "clue",
		ResponseSchema: json.RawMessage(`{"type":"object"}`),
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != `{"clue":"water"}` {
		t.Fatalf("content = %q", out)
	}
}

func TestComplete_ProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "m")
	_, err := c.Complete(context.Background(), nil, Options{})
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("want *ProviderError, got %v", err)
	}
	if pe.Status != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", pe.Status)
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "m")
	if _, err := c.Complete(context.Background(), nil, Options{}); err == nil {
		t.Fatalf("empty choices should be an error")
	}
}

func TestFromEnv_NoKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	if c := FromEnv(); c != nil {
		t.Fatalf("FromEnv without a key should return nil")
	}
}
