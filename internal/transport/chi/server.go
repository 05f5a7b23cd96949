package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/portfolio-rag/internal/domain"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/answer"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/search/request"
	"github.com/kailas-cloud/portfolio-rag/internal/logger"
	healthuc "github.com/kailas-cloud/portfolio-rag/internal/usecase/health"
	queryuc "github.com/kailas-cloud/portfolio-rag/internal/usecase/query"
)

// maxBodyBytes caps the request body; questions are short.
const maxBodyBytes = 64 << 10

// QueryService runs the RAG pipeline.
type QueryService interface {
	Query(ctx context.Context, req request.Request) (queryuc.Response, error)
	Failure(err error) answer.Answer
}

// HealthService aggregates component checks.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a pipeline error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Limits bound the per-request evidence count.
type Limits struct {
	DefaultTopK int
	MaxTopK     int
}

// Server serves the query API.
type Server struct {
	query         QueryService
	health        HealthService
	logger        *zap.Logger
	limits        Limits
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(query QueryService, health HealthService, limits Limits, logger *zap.Logger) *Server {
	if limits.DefaultTopK <= 0 {
		limits.DefaultTopK = request.DefaultTopK
	}
	if limits.MaxTopK <= 0 {
		limits.MaxTopK = request.MaxTopK
	}
	s := &Server{
		query:  query,
		health: health,
		logger: logger,
		limits: limits,
	}
	s.errorHandlers = []errorHandler{
		s.invalidInputHandler,
		s.failureHandler(domain.ErrEmbeddingProviderError),
		s.failureHandler(domain.ErrGenerationProviderError),
	}
	return s
}

// queryRequest is the inbound body. Query is the legacy alias of Question.
type queryRequest struct {
	Question        *string `json:"question"`
	Query           *string `json:"query"`
	K               *int    `json:"k"`
	IncludeMetadata *bool   `json:"include_metadata"`
}

func (q *queryRequest) question() string {
	if q.Question != nil {
		return *q.Question
	}
	if q.Query != nil {
		return *q.Query
	}
	return ""
}

// queryResponse is the answer envelope plus optional raw sources.
type queryResponse struct {
	answer.Answer
	Sources []queryuc.Source `json:"sources,omitempty"`
}

type usageBody struct {
	Question        string `json:"question"`
	K               int    `json:"k"`
	IncludeMetadata bool   `json:"include_metadata"`
}

type usageResponse struct {
	Error string `json:"error"`
	Usage struct {
		Body usageBody `json:"body"`
	} `json:"usage"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Query handles POST /query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var body queryRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		s.writeUsage(w, "Invalid request body")
		return
	}

	k := 0
	if body.K != nil {
		k = *body.K
	}
	includeMetadata := true
	if body.IncludeMetadata != nil {
		includeMetadata = *body.IncludeMetadata
	}

	req, err := request.New(body.question(), k, s.limits.DefaultTopK, s.limits.MaxTopK, includeMetadata)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp, err := s.query.Query(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{Answer: resp.Answer, Sources: resp.Sources})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) writeUsage(w http.ResponseWriter, msg string) {
	resp := usageResponse{Error: msg}
	resp.Usage.Body = usageBody{
		Question:        "your search text",
		K:               s.limits.DefaultTopK,
		IncludeMetadata: true,
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

func (s *Server) invalidInputHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrInvalidInput) {
		return false
	}
	s.writeUsage(w, "Missing required field: question")
	return true
}

// failureHandler matches a single sentinel and renders the error answer envelope.
func (s *Server) failureHandler(sentinel error) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeJSON(w, http.StatusInternalServerError, s.query.Failure(err))
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, s.query.Failure(err))
}
