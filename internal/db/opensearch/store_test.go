package opensearch

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/portfolio-rag/internal/db"
)

func newTestStore(t *testing.T, h http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	s, err := NewStore(Config{Addresses: []string{srv.URL}, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNewStore_NoAddresses(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestPing_Success(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"name":"node-1","cluster_name":"rag","version":{"number":"2.11.0","distribution":"opensearch"},"tagline":"The OpenSearch Project"}`)
	})
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 503, `{"error":{"type":"unavailable","reason":"down"},"status":503}`)
	})
	err := s.Ping(context.Background())
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpInfo {
		t.Fatalf("expected db.Error{Op: INFO}, got %v", err)
	}
}

func TestSearch_Success(t *testing.T) {
	var gotPath, gotBody string
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		writeJSON(w, 200, `{
			"took": 3, "timed_out": false,
			"_shards": {"total":1,"successful":1,"skipped":0,"failed":0},
			"hits": {
				"total": {"value": 30, "relation": "eq"},
				"max_score": 12.5,
				"hits": [
					{"_index":"apps","_id":"APP1-0","_score":12.5,"_source":{"text_content":"[Peru] Pagos","metadata":{"id_app":"APP1"}}},
					{"_index":"apps","_id":"APP2-0","_score":7.25,"_source":{"text_content":"[Peru] Cobros","metadata":{"id_app":"APP2"}}}
				]
			},
			"aggregations": {"unique_apps": {"value": 12}}
		}`)
	})

	resp, err := s.Search(context.Background(), "apps", []byte(`{"size":2}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/apps/_search" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody != `{"size":2}` {
		t.Errorf("body = %q", gotBody)
	}
	if resp.Total != 30 {
		t.Errorf("Total = %d, want 30", resp.Total)
	}
	if len(resp.Hits) != 2 || resp.Hits[0].ID != "APP1-0" || resp.Hits[1].Score != 7.25 {
		t.Errorf("Hits = %+v", resp.Hits)
	}

	var aggs struct {
		UniqueApps struct {
			Value int `json:"value"`
		} `json:"unique_apps"`
	}
	if err := json.Unmarshal(resp.Aggregations, &aggs); err != nil || aggs.UniqueApps.Value != 12 {
		t.Errorf("Aggregations = %s (%v)", resp.Aggregations, err)
	}
}

func TestSearch_Error(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 404, `{"error":{"type":"index_not_found_exception","reason":"no such index [apps]"},"status":404}`)
	})
	_, err := s.Search(context.Background(), "apps", []byte(`{}`))
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpSearch {
		t.Fatalf("expected db.Error{Op: _search}, got %v", err)
	}
}

func TestBulk_Success(t *testing.T) {
	var lines []string
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		sc := bufio.NewScanner(r.Body)
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		writeJSON(w, 200, `{"took":5,"errors":true,"items":[
			{"index":{"_index":"apps","_id":"APP1-0","_version":1,"result":"created","status":201}},
			{"index":{"_index":"apps","_id":"APP1-1","status":400,"error":{"type":"mapper_parsing_exception","reason":"bad vector"}}}
		]}`)
	})

	res, err := s.Bulk(context.Background(), "apps", []db.BulkItem{
		{ID: "APP1-0", Body: []byte(`{"text_content":"a"}`)},
		{ID: "APP1-1", Body: []byte("{\"text_content\":\"b\"}\n")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 4 {
		t.Fatalf("expected 4 NDJSON lines, got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], `"_id":"APP1-0"`) || !strings.Contains(lines[0], `"_index":"apps"`) {
		t.Errorf("action line = %s", lines[0])
	}
	if res.Indexed != 1 {
		t.Errorf("Indexed = %d, want 1", res.Indexed)
	}
	if len(res.Failed) != 1 || res.Failed[0].ID != "APP1-1" || !strings.Contains(res.Failed[0].Reason, "bad vector") {
		t.Errorf("Failed = %+v", res.Failed)
	}
}

func TestBulk_Empty(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty bulk")
	})
	res, err := s.Bulk(context.Background(), "apps", nil)
	if err != nil || res.Indexed != 0 {
		t.Fatalf("Bulk(nil) = %+v, %v", res, err)
	}
}

func TestDeleteByQuery_Success(t *testing.T) {
	var gotMethod, gotPath, gotBody string
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		writeJSON(w, 200, `{"took":12,"timed_out":false,"total":4,"deleted":4,"batches":1,
			"version_conflicts":0,"noops":0,"retries":{"bulk":0,"search":0},
			"throttled_millis":0,"requests_per_second":-1,"throttled_until_millis":0,"failures":[]}`)
	})

	query := `{"query":{"match_all":{}}}`
	n, err := s.DeleteByQuery(context.Background(), "portfolio-apps", []byte(query))
	if err != nil {
		t.Fatalf("DeleteByQuery: %v", err)
	}
	if n != 4 {
		t.Fatalf("deleted = %d, want 4", n)
	}
	if gotMethod != http.MethodPost || gotPath != "/portfolio-apps/_delete_by_query" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
	if gotBody != query {
		t.Fatalf("body = %s", gotBody)
	}
}

func TestDeleteByQuery_Error(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 404, `{"error":{"type":"index_not_found_exception","reason":"no such index [apps]"},"status":404}`)
	})
	_, err := s.DeleteByQuery(context.Background(), "apps", []byte(`{"query":{"match_all":{}}}`))
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpDeleteByQuery {
		t.Fatalf("expected db.Error{Op: _delete_by_query}, got %v", err)
	}
}

func TestRefresh(t *testing.T) {
	var gotPath string
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		writeJSON(w, 200, `{"_shards":{"total":2,"successful":1,"failed":0}}`)
	})
	if err := s.Refresh(context.Background(), "portfolio-apps"); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if gotPath != "/portfolio-apps/_refresh" {
		t.Fatalf("path = %s", gotPath)
	}

	failing := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 503, `{"error":{"type":"unavailable","reason":"down"},"status":503}`)
	})
	var dbErr *db.Error
	if err := failing.Refresh(context.Background(), "portfolio-apps"); !errors.As(err, &dbErr) || dbErr.Op != db.OpRefresh {
		t.Fatalf("expected db.Error{Op: _refresh}, got %v", err)
	}
}
