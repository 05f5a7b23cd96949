// Package query is the top-level pipeline: sanitize, route, then either a
// conversational reply or extract, embed, search and synthesize.
package query

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/portfolio-rag/internal/domain"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/answer"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/document"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/search/filter"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/search/intent"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/search/request"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/search/result"
	"github.com/kailas-cloud/portfolio-rag/internal/logger"
	"github.com/kailas-cloud/portfolio-rag/internal/metrics"
	"github.com/kailas-cloud/portfolio-rag/internal/sanitize"
	filterext "github.com/kailas-cloud/portfolio-rag/internal/usecase/filter"
	intentrouter "github.com/kailas-cloud/portfolio-rag/internal/usecase/intent"
	"github.com/kailas-cloud/portfolio-rag/internal/vocabulary"
)

// Caller-safe failure messages.
const (
	msgEmbedding  = "Error al generar el embedding de la consulta"
	msgGeneration = "Error al generar la respuesta"
	msgInternal   = "Error interno al procesar la consulta"
)

// Source is one retrieved hit, returned when the caller asks for metadata.
type Source struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Text     string            `json:"text"`
	Metadata document.Metadata `json:"metadata"`
}

// Response is the outcome of one pipeline pass.
type Response struct {
	Answer  answer.Answer
	Intent  intent.Intent
	Filters filter.Set
	Sources []Source
}

type rules struct {
	router    *intentrouter.Router
	extractor *filterext.Extractor
}

// Service is the query orchestrator. It holds no per-request state.
type Service struct {
	embed  Embedder
	search Searcher
	synth  Synthesizer
	rules  atomic.Pointer[rules]
	maxLen int
}

// New creates the orchestrator with the given keyword tables.
func New(embed Embedder, search Searcher, synth Synthesizer, vocab vocabulary.Vocabulary) *Service {
	s := &Service{embed: embed, search: search, synth: synth, maxLen: request.MaxQuestionLength}
	s.Reload(vocab)
	return s
}

// WithMaxQuestionLength sets the sanitized question length bound. n <= 0 keeps the default.
func (s *Service) WithMaxQuestionLength(n int) *Service {
	if n > 0 {
		s.maxLen = n
	}
	return s
}

// Reload swaps the keyword tables. Requests in flight keep the tables they started with.
func (s *Service) Reload(vocab vocabulary.Vocabulary) {
	s.rules.Store(&rules{
		router:    intentrouter.NewRouter(vocab),
		extractor: filterext.NewExtractor(vocab),
	})
}

// Query runs one pass. A non-nil error means the caller must respond with a
// failure status; use Failure to build the body.
func (s *Service) Query(ctx context.Context, req request.Request) (Response, error) {
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
	}()

	log := logger.FromContext(ctx)
	r := s.rules.Load()

	question := sanitize.Text(req.Question(), s.maxLen)
	if question == "" {
		return Response{}, fmt.Errorf("%w: question is empty after sanitization", domain.ErrInvalidInput)
	}

	route := r.router.Route(question)
	metrics.RouteDecisionsTotal.WithLabelValues(string(route)).Inc()
	log.Debug("Question routed", zap.String("intent", string(route)))

	if !route.NeedsRetrieval() {
		a := s.synth.Conversational(ctx, question)
		metrics.AnswersTotal.WithLabelValues(string(a.Kind)).Inc()
		return Response{Answer: a, Intent: route}, nil
	}

	filters := r.extractor.Extract(question)
	log.Debug("Filters extracted",
		zap.String("country", filters.Country),
		zap.String("criticality", string(filters.Criticality)),
		zap.String("status", string(filters.Status)),
		zap.String("deploy", string(filters.Deploy)),
		zap.String("exact_name", filters.ExactName),
		zap.Bool("numerical", filters.IsNumerical),
	)

	embStart := time.Now()
	emb, err := s.embed.Embed(ctx, question)
	metrics.StageDuration.WithLabelValues("embedding").Observe(time.Since(embStart).Seconds())
	if err != nil {
		log.Error("Embedding failed, aborting retrieval", zap.Error(err))
		if !errors.Is(err, domain.ErrEmbeddingProviderError) {
			err = fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
		}
		return Response{Intent: route, Filters: filters}, fmt.Errorf("embed question: %w", err)
	}

	outcome := s.search.Search(ctx, question, emb.Embedding, filters, req.TopK())

	a, err := s.synth.FromEvidence(ctx, question, outcome, filters, req.TopK())
	if err != nil {
		log.Error("Answer synthesis failed", zap.Error(err))
		return Response{Intent: route, Filters: filters}, fmt.Errorf("synthesize answer: %w", err)
	}
	metrics.AnswersTotal.WithLabelValues(string(a.Kind)).Inc()

	resp := Response{Answer: a, Intent: route, Filters: filters}
	if req.IncludeMetadata() {
		resp.Sources = sources(outcome.Results())
	}
	return resp, nil
}

// Failure builds the validated error envelope for err. Internal details never leak.
func (s *Service) Failure(err error) answer.Answer {
	msg := msgInternal
	switch {
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		msg = msgEmbedding
	case errors.Is(err, domain.ErrGenerationProviderError):
		msg = msgGeneration
	}
	a := s.synth.Failure(msg)
	metrics.AnswersTotal.WithLabelValues(string(a.Kind)).Inc()
	return a
}

func sources(results []result.Result) []Source {
	out := make([]Source, 0, len(results))
	for i := range results {
		r := &results[i]
		out = append(out, Source{ID: r.ID(), Score: r.Score(), Text: r.Text(), Metadata: r.Metadata()})
	}
	return out
}
