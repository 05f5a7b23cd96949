package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/query", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"answer_type":"success"}`))
	})

	req := httptest.NewRequest("POST", "/query", strings.NewReader(`{"question":"hola"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/query", "200")); v < 1 {
		t.Errorf("expected http_requests_total >= 1, got %f", v)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMetricsMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/query", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("case") {
		case "bad":
			w.WriteHeader(http.StatusBadRequest)
		case "fail":
			w.WriteHeader(http.StatusInternalServerError)
		case "limited":
			w.WriteHeader(http.StatusTooManyRequests)
		}
	})

	tests := []struct {
		query  string
		status string
	}{
		{"bad", "400"},
		{"fail", "500"},
		{"limited", "429"},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/query?case="+tc.query, http.NoBody)
			r.ServeHTTP(httptest.NewRecorder(), req)

			// Query strings never leak into the path label.
			if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/query", tc.status)); v < 1 {
				t.Errorf("expected requests_total for status %s >= 1, got %f", tc.status, v)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "unmatched"},
		{"/*", "unmatched"},
		{"/query", "/query"},
		{"/health", "/health"},
	}
	for _, tc := range tests {
		if got := normalizePath(tc.input); got != tc.expected {
			t.Errorf("normalizePath(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestMetricsMiddleware_UnmatchedRoute(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/wp-admin/setup.php", http.NoBody))

	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unmatched", "404")); v < 1 {
		t.Errorf("expected unmatched 404 to be counted, got %f", v)
	}
	if v := testutil.ToFloat64(httpInFlight); v != 0 {
		t.Errorf("in-flight gauge must return to 0, got %f", v)
	}
}

func TestRegisterPipelineMetrics_Idempotent(t *testing.T) {
	RegisterPipelineMetrics()
	RegisterPipelineMetrics()

	RouteDecisionsTotal.WithLabelValues("retrieval").Inc()
	if v := testutil.ToFloat64(RouteDecisionsTotal.WithLabelValues("retrieval")); v < 1 {
		t.Errorf("route_decisions_total = %f", v)
	}
}
