package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/portfolio-rag/internal/domain"
	"github.com/kailas-cloud/portfolio-rag/internal/metrics"
	"github.com/kailas-cloud/portfolio-rag/internal/resilience"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
}

// vectorServer answers /embeddings with the given vectors, indexed as listed in order.
func vectorServer(t *testing.T, got *embeddingRequest, order []int, vecs ...[]float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer k" {
			t.Errorf("unexpected auth header: %s", auth)
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		if order == nil {
			for i := range vecs {
				order = append(order, i)
			}
		}
		data := make([]map[string]any, 0, len(vecs))
		for i, v := range vecs {
			data = append(data, map[string]any{"object": "embedding", "index": order[i], "embedding": v})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "titan",
			"data":   data,
			"usage":  map[string]any{"prompt_tokens": 7 * len(vecs), "total_tokens": 7 * len(vecs)},
		})
	}))
}

func errorServer(status int, body map[string]any, calls *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
}

func testEmbedder(url string, dims int, exec *resilience.Executor) *Embedder {
	return NewEmbedder(&Config{
		APIKey:     "k",
		BaseURL:    url,
		Model:      "titan",
		Dimensions: dims,
		Provider:   "openai",
		Executor:   exec,
		Logger:     zap.NewNop(),
	})
}

func TestEmbedder_Embed(t *testing.T) {
	var got embeddingRequest
	server := vectorServer(t, &got, nil, []float32{0.5, -0.25, 1})
	defer server.Close()

	res, err := testEmbedder(server.URL, 3, nil).Embed(context.Background(), "aplicaciones críticas en Perú")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(res.Embedding) != 3 || res.Embedding[1] != -0.25 {
		t.Fatalf("embedding = %v", res.Embedding)
	}
	if res.PromptTokens != 7 || res.TotalTokens != 7 {
		t.Errorf("usage = %d/%d, want 7/7", res.PromptTokens, res.TotalTokens)
	}
	if len(got.Input) != 1 || got.Input[0] != "aplicaciones críticas en Perú" {
		t.Errorf("input = %v", got.Input)
	}
	if got.Model != "titan" || got.Dimensions != 3 {
		t.Errorf("model=%q dimensions=%d", got.Model, got.Dimensions)
	}
}

func TestEmbedder_DimensionsOmittedWhenUnset(t *testing.T) {
	var got embeddingRequest
	server := vectorServer(t, &got, nil, []float32{1, 2})
	defer server.Close()

	if _, err := testEmbedder(server.URL, 0, nil).Embed(context.Background(), "x"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if got.Dimensions != 0 {
		t.Fatalf("dimensions must be omitted, got %d", got.Dimensions)
	}
}

func TestEmbedder_BatchEmbedRestoresOrder(t *testing.T) {
	server := vectorServer(t, nil, []int{2, 0, 1}, []float32{3}, []float32{1}, []float32{2})
	defer server.Close()

	res, err := testEmbedder(server.URL, 0, nil).BatchEmbed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("BatchEmbed: %v", err)
	}
	for i, want := range []float32{1, 2, 3} {
		if res.Embeddings[i][0] != want {
			t.Fatalf("embeddings[%d] = %v, want %v", i, res.Embeddings[i], want)
		}
	}
	if res.TotalTokens != 21 {
		t.Errorf("total tokens = %d, want 21", res.TotalTokens)
	}
}

func TestEmbedder_BatchEmbedNoInput(t *testing.T) {
	res, err := testEmbedder("http://127.0.0.1:1", 0, nil).BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Embeddings != nil {
		t.Fatalf("expected no embeddings, got %v", res.Embeddings)
	}
}

func TestEmbedder_BatchEmbedCountMismatch(t *testing.T) {
	server := vectorServer(t, nil, nil, []float32{0.1})
	defer server.Close()

	_, err := testEmbedder(server.URL, 0, nil).BatchEmbed(context.Background(), []string{"a", "b"})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestEmbedder_EmptyResponse(t *testing.T) {
	server := vectorServer(t, nil, nil)
	defer server.Close()

	_, err := testEmbedder(server.URL, 0, nil).Embed(context.Background(), "x")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestEmbedder_ProviderErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   map[string]any
	}{
		{"rate limited", http.StatusTooManyRequests,
			map[string]any{"error": map[string]any{"message": "rate limit exceeded", "type": "rate_limit_error"}}},
		{"detail body", http.StatusBadRequest, map[string]any{"detail": "input too long"}},
		{"server error", http.StatusInternalServerError, map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := errorServer(tt.status, tt.body, nil)
			defer server.Close()

			_, err := testEmbedder(server.URL, 0, nil).Embed(context.Background(), "x")
			if !errors.Is(err, domain.ErrEmbeddingProviderError) {
				t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
			}
		})
	}
}

func TestExtractDetail(t *testing.T) {
	if got := extractDetail([]byte(`{"detail":"model not found"}`)); got != "model not found" {
		t.Errorf("got %q", got)
	}
	if got := extractDetail([]byte(`not json`)); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestEmbedder_CircuitOpen(t *testing.T) {
	var calls atomic.Int32
	server := errorServer(http.StatusServiceUnavailable, map[string]any{"detail": "overloaded"}, &calls)
	defer server.Close()

	rcfg := resilience.DefaultConfig()
	rcfg.BreakerMinRequests = 2
	emb := testEmbedder(server.URL, 0, resilience.NewExecutor(rcfg, zap.NewNop()))

	for range 2 {
		if _, err := emb.Embed(context.Background(), "x"); err == nil {
			t.Fatal("expected error for 503 response")
		}
	}
	seen := calls.Load()

	_, err := emb.Embed(context.Background(), "x")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
	if calls.Load() != seen {
		t.Fatalf("open breaker must not reach the provider, calls %d -> %d", seen, calls.Load())
	}
}
