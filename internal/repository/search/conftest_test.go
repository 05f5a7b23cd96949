package search

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/kailas-cloud/portfolio-rag/internal/db"
	"github.com/kailas-cloud/portfolio-rag/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

// mockStore implements the consumer interface for tests and records the last body.
type mockStore struct {
	searchFn func(ctx context.Context, index string, body []byte) (*db.SearchResponse, error)
	index    string
	body     []byte
	calls    int
}

func (m *mockStore) Search(ctx context.Context, index string, body []byte) (*db.SearchResponse, error) {
	m.calls++
	m.index = index
	m.body = body
	if m.searchFn != nil {
		return m.searchFn(ctx, index, body)
	}
	return &db.SearchResponse{}, nil
}

// decoded returns the last request body as a generic map.
func (m *mockStore) decoded(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(m.body, &out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo, err := New(ms, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return repo, ms
}

func testVector() []float32 {
	vec := make([]float32, 4)
	for i := range vec {
		vec[i] = 0.1
	}
	return vec
}

func hitSource(t *testing.T, text, idApp, name string) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"text_content": text,
		"metadata": map[string]any{
			"id_app":      idApp,
			"name":        name,
			"country":     "Colombia",
			"critic_name": "Crítico",
			"score":       87.5,
		},
	})
	if err != nil {
		t.Fatalf("marshal source: %v", err)
	}
	return b
}

// boolQuery digs query.bool out of a decoded body.
func boolQuery(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	q, ok := body["query"].(map[string]any)
	if !ok {
		t.Fatalf("query missing: %v", body)
	}
	b, ok := q["bool"].(map[string]any)
	if !ok {
		t.Fatalf("query.bool missing: %v", q)
	}
	return b
}

// clauseKinds lists the top-level key of every clause, e.g. ["term", "knn", ...].
func clauseKinds(t *testing.T, clauses any) []string {
	t.Helper()
	list, ok := clauses.([]any)
	if !ok {
		t.Fatalf("clauses are not a list: %v", clauses)
	}
	var kinds []string
	for _, c := range list {
		for k := range c.(map[string]any) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
