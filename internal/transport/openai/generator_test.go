package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/portfolio-rag/internal/domain"
)

type chatRequest struct {
	Model          string  `json:"model"`
	MaxTokens      int     `json:"max_tokens"`
	Temperature    float32 `json:"temperature"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatServer(t *testing.T, got *chatRequest, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gen-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]any{"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150},
		})
	}))
}

func TestGenerator_Generate(t *testing.T) {
	var got chatRequest
	server := chatServer(t, &got, "  {\"answer_type\":\"success\"}\n")
	defer server.Close()

	gen := NewGenerator(&Config{APIKey: "k", BaseURL: server.URL, Model: "gen-model", Logger: zap.NewNop()})

	res, err := gen.Generate(context.Background(), domain.GenerationRequest{
		System:      "sys",
		Prompt:      "question",
		MaxTokens:   2000,
		Temperature: 0.3,
		JSONMode:    true,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if res.Text != `{"answer_type":"success"}` {
		t.Errorf("unexpected text %q", res.Text)
	}
	if res.PromptTokens != 120 || res.CompletionTokens != 30 {
		t.Errorf("unexpected usage %+v", res)
	}

	if got.Model != "gen-model" || got.MaxTokens != 2000 {
		t.Errorf("unexpected request %+v", got)
	}
	if got.Temperature < 0.29 || got.Temperature > 0.31 {
		t.Errorf("temperature = %v", got.Temperature)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Errorf("expected json_object response format, got %+v", got.ResponseFormat)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "question" {
		t.Errorf("unexpected messages %+v", got.Messages)
	}
}

func TestGenerator_NoSystemNoJSONMode(t *testing.T) {
	var got chatRequest
	server := chatServer(t, &got, "hola")
	defer server.Close()

	gen := NewGenerator(&Config{APIKey: "k", BaseURL: server.URL, Model: "gen-model"})
	if _, err := gen.Generate(context.Background(), domain.GenerationRequest{Prompt: "hi"}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Errorf("unexpected messages %+v", got.Messages)
	}
	if got.ResponseFormat != nil {
		t.Errorf("response format must be omitted, got %+v", got.ResponseFormat)
	}
}

func TestGenerator_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "upstream down", "type": "server_error"},
		})
	}))
	defer server.Close()

	gen := NewGenerator(&Config{APIKey: "k", BaseURL: server.URL, Model: "gen-model"})
	_, err := gen.Generate(context.Background(), domain.GenerationRequest{Prompt: "q"})
	if !errors.Is(err, domain.ErrGenerationProviderError) {
		t.Fatalf("expected ErrGenerationProviderError, got %v", err)
	}
}

func TestGenerator_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "x", "choices": []any{}})
	}))
	defer server.Close()

	gen := NewGenerator(&Config{APIKey: "k", BaseURL: server.URL, Model: "gen-model"})
	_, err := gen.Generate(context.Background(), domain.GenerationRequest{Prompt: "q"})
	if !errors.Is(err, domain.ErrGenerationProviderError) {
		t.Fatalf("expected ErrGenerationProviderError, got %v", err)
	}
}

func TestGenerator_ZeroTemperatureIsSent(t *testing.T) {
	var got struct {
		Temperature *float32 `json:"temperature"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": "{}"}}},
		})
	}))
	defer server.Close()

	gen := NewGenerator(&Config{APIKey: "k", BaseURL: server.URL, Model: "gen-model"})
	if _, err := gen.Generate(context.Background(), domain.GenerationRequest{Prompt: "q", Temperature: 0}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got.Temperature == nil {
		t.Fatal("temperature 0 must be sent, not omitted")
	}
	if *got.Temperature > 1e-6 {
		t.Errorf("temperature = %v, want ~0", *got.Temperature)
	}
}
