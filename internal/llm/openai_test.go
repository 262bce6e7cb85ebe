package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	conf := openai.DefaultConfig("test-key")
	conf.BaseURL = server.URL + "/v1"
	return &OpenAIProvider{client: openai.NewClientWithConfig(conf), model: "gpt-4o-mini"}
}

func openAIReply(content, finish string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1234567890,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": finish,
			}},
			"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
		})
	}
}

var pairSchema = &Schema{
	Name: "openai-test-pair",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"verb": map[string]any{"type": "string"},
		},
		"required": []string{"verb"},
	},
}

func TestOpenAIProvider_HappyPath(t *testing.T) {
	var got openai.ChatCompletionRequest
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		openAIReply(`{"verb":"ir"}`, "stop")(w, r)
	})

	resp, err := p.Generate(context.Background(), Request{
		System:    "You write Spanish exercises.",
		Messages:  UserPrompt("One verb."),
		Schema:    pairSchema,
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"verb":"ir"}` {
		t.Errorf("content = %s", resp.Content)
	}
	if resp.Usage.TotalTokens != 65 {
		t.Errorf("total tokens = %d", resp.Usage.TotalTokens)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Errorf("messages = %+v", got.Messages)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.JSONSchema == nil || got.ResponseFormat.JSONSchema.Name != "openai-test-pair" {
		t.Errorf("response format = %+v", got.ResponseFormat)
	}
}

func TestOpenAIProvider_SchemaViolation(t *testing.T) {
	p := newTestOpenAIProvider(t, openAIReply(`{"noun":"casa"}`, "stop"))

	_, err := p.Generate(context.Background(), Request{Messages: UserPrompt("x"), Schema: pairSchema, MaxTokens: 64})
	var inv *InvalidResponseError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvalidResponseError, got %T (%v)", err, err)
	}
}

func TestOpenAIProvider_LengthFinishIsTruncation(t *testing.T) {
	p := newTestOpenAIProvider(t, openAIReply(`{"ve`, "length"))

	_, err := p.Generate(context.Background(), Request{Messages: UserPrompt("x"), Schema: pairSchema, MaxTokens: 4})
	var trunc *TruncatedError
	if !errors.As(err, &trunc) {
		t.Fatalf("expected TruncatedError, got %T (%v)", err, err)
	}
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","model":"gpt-4o-mini","choices":[]}`))
	})

	_, err := p.Generate(context.Background(), Request{Messages: UserPrompt("x")})
	var inv *InvalidResponseError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvalidResponseError, got %T (%v)", err, err)
	}
}

func TestOpenAIProvider_StatusErrors(t *testing.T) {
	tests := []struct {
		status    int
		rateLimit bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, false},
	}
	for _, tt := range tests {
		p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tt.status)
			w.Write([]byte(`{"error":{"message":"nope","type":"server_error"}}`))
		})
		_, err := p.Generate(context.Background(), Request{Messages: UserPrompt("x")})

		var rl *RateLimitError
		var un *UnavailableError
		switch {
		case tt.rateLimit && !errors.As(err, &rl):
			t.Errorf("status %d: expected RateLimitError, got %T", tt.status, err)
		case !tt.rateLimit && !errors.As(err, &un):
			t.Errorf("status %d: expected UnavailableError, got %T", tt.status, err)
		}
	}
}

func TestNewOpenRouterProvider_DefaultsBaseURL(t *testing.T) {
	if _, err := NewOpenRouterProvider(OpenRouterConfig{}); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "k", Model: "google/gemini-2.0-flash-001"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "google/gemini-2.0-flash-001" {
		t.Errorf("model = %q", p.ModelID())
	}
}
