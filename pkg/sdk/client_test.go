package portfoliorag

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/portfolio-rag/internal/domain"
	domanswer "github.com/kailas-cloud/portfolio-rag/internal/domain/answer"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/document"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/search/intent"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/portfolio-rag/internal/usecase/health"
	queryuc "github.com/kailas-cloud/portfolio-rag/internal/usecase/query"
)

func TestNew_NoAddress(t *testing.T) {
	_, err := New(context.Background(), WithModels("emb", "gen", 3))
	if err == nil {
		t.Fatal("expected error when no address provided")
	}
}

func TestNew_NoModels(t *testing.T) {
	_, err := New(context.Background(), WithOpenSearch([]string{"http://localhost:9200"}, "", ""))
	if err == nil {
		t.Fatal("expected error when no models provided")
	}
}

func TestClientConfig_Validate(t *testing.T) {
	base := func() *clientConfig {
		return &clientConfig{
			addrs:           []string{"http://localhost:9200"},
			embeddingModel:  "emb",
			generationModel: "gen",
			dimensions:      1024,
		}
	}
	if err := base().validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := base()
	c.dimensions = 0
	if err := c.validate(); err == nil {
		t.Error("expected error for zero dimensions")
	}

	c = base()
	c.defaultTopK, c.maxTopK = 20, 10
	if err := c.validate(); err == nil {
		t.Error("expected error for default top k above max")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}
	reg := prometheus.NewRegistry()
	logger := slog.Default()

	opts := []Option{
		WithOpenSearch([]string{"a:9200", "b:9200"}, "admin", "secret"),
		WithInsecureTLS(),
		WithIndex("apps-v2"),
		WithOpenAI("key", "http://llm:8000/v1"),
		WithModels("bge-m3", "qwen", 1024),
		WithQueryInstruction("query: "),
		WithVocabularyFile("/etc/vocab.yaml"),
		WithTopK(8, 30),
		WithLogger(logger),
		WithPrometheus(reg),
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) != 2 || cfg.username != "admin" || cfg.password != "secret" || !cfg.insecure {
		t.Errorf("search options not applied: %+v", cfg)
	}
	if cfg.index != "apps-v2" {
		t.Errorf("index = %q", cfg.index)
	}
	if cfg.apiKey != "key" || cfg.baseURL != "http://llm:8000/v1" {
		t.Errorf("endpoint options not applied: %+v", cfg)
	}
	if cfg.embeddingModel != "bge-m3" || cfg.generationModel != "qwen" || cfg.dimensions != 1024 {
		t.Errorf("model options not applied: %+v", cfg)
	}
	if cfg.queryInstruction != "query: " || cfg.vocabularyPath != "/etc/vocab.yaml" {
		t.Errorf("pipeline options not applied: %+v", cfg)
	}
	if cfg.defaultTopK != 8 || cfg.maxTopK != 30 {
		t.Errorf("top k = %d/%d", cfg.defaultTopK, cfg.maxTopK)
	}
	if cfg.logger != logger || cfg.metricsReg != reg {
		t.Error("observability options not applied")
	}
}

func TestClient_Query(t *testing.T) {
	mock := &mockQueryUC{
		queryFn: func(_ context.Context, _ request.Request) (queryuc.Response, error) {
			return queryuc.Response{
				Answer:  domanswer.Answer{Kind: domanswer.KindSuccess, Summary: "2 apps", TotalFound: 2},
				Intent:  intent.Retrieval,
				Sources: []queryuc.Source{{ID: "A1-0", Score: 3.5, Metadata: document.Metadata{IDApp: "A1"}}},
			}, nil
		},
	}
	c := &Client{querySvc: mock, defaultTopK: 5, maxTopK: 10}

	res, err := c.Query(context.Background(), "apps críticas en Perú", WithK(50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Answer.Summary != "2 apps" || res.Intent != "retrieval" {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.Sources != nil {
		t.Error("sources must be omitted unless requested")
	}
	if mock.lastReq.TopK() != 10 {
		t.Errorf("top k = %d, want clamped to 10", mock.lastReq.TopK())
	}
}

func TestClient_Query_WithSources(t *testing.T) {
	mock := &mockQueryUC{
		queryFn: func(_ context.Context, req request.Request) (queryuc.Response, error) {
			if !req.IncludeMetadata() {
				t.Error("expected metadata to be requested")
			}
			return queryuc.Response{
				Answer:  domanswer.Answer{Kind: domanswer.KindSuccess},
				Sources: []queryuc.Source{{ID: "A1-0"}},
			}, nil
		},
	}
	c := &Client{querySvc: mock}

	res, err := c.Query(context.Background(), "CRM", WithSources())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Sources) != 1 || res.Sources[0].ID != "A1-0" {
		t.Errorf("sources = %+v", res.Sources)
	}
	if mock.lastReq.TopK() != request.DefaultTopK {
		t.Errorf("top k = %d, want default", mock.lastReq.TopK())
	}
}

func TestClient_Query_EmptyQuestion(t *testing.T) {
	mock := &mockQueryUC{
		queryFn: func(_ context.Context, _ request.Request) (queryuc.Response, error) {
			t.Fatal("pipeline must not run for an empty question")
			return queryuc.Response{}, nil
		},
	}
	c := &Client{querySvc: mock}

	res, err := c.Query(context.Background(), "   ")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if res.Answer.Kind != domanswer.KindError {
		t.Errorf("answer kind = %q, want error envelope", res.Answer.Kind)
	}
}

func TestClient_Query_ProviderError(t *testing.T) {
	mock := &mockQueryUC{
		queryFn: func(_ context.Context, _ request.Request) (queryuc.Response, error) {
			return queryuc.Response{Intent: intent.Retrieval}, domain.ErrEmbeddingProviderError
		},
	}
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	c := &Client{querySvc: mock, obs: obs}

	res, err := c.Query(context.Background(), "apps en Chile")
	if !errors.Is(err, ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
	if res.Answer.Kind != domanswer.KindError || res.Intent != "retrieval" {
		t.Errorf("unexpected result: %+v", res)
	}
	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("query", "error")); got != 1 {
		t.Errorf("error operations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.metrics.answers.WithLabelValues("error")); got != 1 {
		t.Errorf("error answers = %v, want 1", got)
	}
}

func TestClient_Health(t *testing.T) {
	c := &Client{healthSvc: &mockHealthUC{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{
			healthuc.ComponentSearch:     healthuc.CheckOK,
			healthuc.ComponentGeneration: healthuc.CheckError,
		},
	}}}

	h := c.Health(context.Background())
	if h.Status != "degraded" {
		t.Errorf("status = %q", h.Status)
	}
	if h.Checks["search_store"] != "ok" || h.Checks["generation"] != "error" {
		t.Errorf("checks = %v", h.Checks)
	}
}

func TestObserver_NilSafe(t *testing.T) {
	// nil observer should not panic.
	var obs *observer
	obs.observe("test", time.Now(), nil)
	obs.observe("test", time.Now(), errors.New("err"))
	obs.answer("success")
}

func TestObserver_WithPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	obs.observe("query", time.Now().Add(-10*time.Millisecond), nil)
	obs.observe("query", time.Now(), errors.New("fail"))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	// Verify operations counter has both ok and error.
	found := false
	for _, f := range families {
		if f.GetName() == "portfolio_rag_sdk_operations_total" {
			found = true
			if len(f.GetMetric()) != 2 {
				t.Errorf("expected 2 metric samples, got %d", len(f.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("portfolio_rag_sdk_operations_total not found")
	}
}

func TestObserver_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("first observer: %v", err)
	}
	second, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second observer must reuse collectors: %v", err)
	}

	first.answer("success")
	second.answer("success")
	if got := testutil.ToFloat64(first.metrics.answers.WithLabelValues("success")); got != 2 {
		t.Errorf("shared answers counter = %v, want 2", got)
	}
}

func TestObserver_WithLogger(t *testing.T) {
	// Проверяем что логгер не паникует при вызове.
	obs, err := newObserver(slog.Default(), nil)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	obs.observe("query", time.Now(), nil)
	obs.observe("query", time.Now(), errors.New("test error"))
}
