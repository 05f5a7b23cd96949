// Package answer turns retrieval outcomes into validated structured answers.
package answer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/portfolio-rag/internal/domain"
	domanswer "github.com/kailas-cloud/portfolio-rag/internal/domain/answer"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/search/filter"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/search/result"
	"github.com/kailas-cloud/portfolio-rag/internal/logger"
	"github.com/kailas-cloud/portfolio-rag/internal/metrics"
	"github.com/kailas-cloud/portfolio-rag/internal/sanitize"
)

// parseExcerptLength bounds the raw generator text carried by a parse_error answer.
const parseExcerptLength = 500

// Config holds generation parameters per path.
type Config struct {
	MaxTokens                 int
	Temperature               float32
	ConversationalMaxTokens   int
	ConversationalTemperature float32
	// JSONMode asks the provider for a JSON object response when it supports it.
	JSONMode bool
}

// DefaultConfig returns the production generation parameters.
func DefaultConfig() Config {
	return Config{
		MaxTokens:                 2000,
		Temperature:               0.3,
		ConversationalMaxTokens:   500,
		ConversationalTemperature: 0.7,
		JSONMode:                  true,
	}
}

var noResultsSuggestions = []string{
	"Verifica la ortografía del nombre de la aplicación",
	"Prueba con términos más generales",
	"Quita algunos filtros (país, criticidad, despliegue)",
}

var conversationalSuggestions = []string{
	"¿Cuántas aplicaciones críticas hay en Colombia?",
	"Muestra una tabla de apps en Argentina",
	"¿Qué aplicaciones tienen DRP?",
}

// Synthesizer builds answers. Every answer it returns has passed Schema.Validate.
type Synthesizer struct {
	gen    Generator
	schema domanswer.Schema
	cfg    Config
}

// New creates a synthesizer.
func New(gen Generator, schema domanswer.Schema, cfg Config) *Synthesizer {
	return &Synthesizer{gen: gen, schema: schema, cfg: cfg}
}

// Conversational answers small talk. It never fails: a generator error or an
// unusable reply becomes a canned conversational answer.
func (s *Synthesizer) Conversational(ctx context.Context, question string) domanswer.Answer {
	log := logger.FromContext(ctx)

	res, err := s.generate(ctx, domain.GenerationRequest{
		System:      conversationalSystem,
		Prompt:      conversationalPrompt(question),
		MaxTokens:   s.cfg.ConversationalMaxTokens,
		Temperature: s.cfg.ConversationalTemperature,
		JSONMode:    s.cfg.JSONMode,
	})
	if err != nil {
		log.Warn("Conversational generation failed, using fallback", zap.Error(err))
		return s.conversationalFallback()
	}

	a, ok := parseLenient(res.Text)
	if !ok || a.Kind != domanswer.KindConversational || a.Summary == "" {
		metrics.GenerationParseFailuresTotal.WithLabelValues("conversational").Inc()
		log.Warn("Conversational reply unusable, using fallback",
			zap.Bool("parsed", ok),
			zap.String("answer_type", string(a.Kind)),
		)
		return s.conversationalFallback()
	}

	if len(a.Suggestions) == 0 {
		a.Suggestions = conversationalSuggestions
	}
	a.TotalFound = 0
	a.Applications = nil
	a.HTMLTable = ""
	a.MermaidDiagram = ""
	return s.schema.Validate(a)
}

// FromEvidence answers a retrieval question. Numeric questions and empty
// outcomes are answered without a generator call. The only error is a
// generator transport failure (domain.ErrGenerationProviderError).
func (s *Synthesizer) FromEvidence(
	ctx context.Context, question string, outcome result.Outcome,
	filters filter.Set, topK int,
) (domanswer.Answer, error) {
	if filters.IsNumerical {
		return s.numeric(outcome, filters), nil
	}
	if outcome.IsEmpty() {
		return s.noResults(), nil
	}

	log := logger.FromContext(ctx)

	res, err := s.generate(ctx, domain.GenerationRequest{
		System:      evidenceSystem,
		Prompt:      evidencePrompt(question, outcome, filters, topK),
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		JSONMode:    s.cfg.JSONMode,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrGenerationProviderError) {
			err = fmt.Errorf("%w: %w", domain.ErrGenerationProviderError, err)
		}
		return domanswer.Answer{}, fmt.Errorf("synthesize: %w", err)
	}

	a, ok := parseLenient(res.Text)
	if !ok {
		metrics.GenerationParseFailuresTotal.WithLabelValues("evidence").Inc()
		log.Warn("Generator reply is not valid JSON",
			zap.Int("length", len(res.Text)),
		)
		return s.parseError(res.Text, outcome), nil
	}

	if a.Kind == domanswer.KindSuccess {
		a.TotalFound = domanswer.Count(outcome.TotalCount())
	}
	if a.HTMLTable != "" {
		a.HTMLTable = sanitize.HTML(a.HTMLTable)
	}
	if a.MermaidDiagram != "" && !sanitize.ValidDiagram(a.MermaidDiagram) {
		log.Debug("Discarding invalid mermaid diagram")
		a.MermaidDiagram = ""
	}
	return s.schema.Validate(a), nil
}

// Failure is the validated error envelope for unrecoverable pipeline failures.
// message must be safe to show to the caller.
func (s *Synthesizer) Failure(message string) domanswer.Answer {
	return s.schema.Validate(domanswer.Answer{
		Kind:        domanswer.KindError,
		Summary:     "No fue posible procesar la consulta.",
		Message:     message,
		Suggestions: []string{"Intenta nuevamente en unos minutos"},
	})
}

func (s *Synthesizer) generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues("generation").Observe(time.Since(start).Seconds())
	}()

	res, err := s.gen.Generate(ctx, req)
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("generate: %w", err)
	}
	return res, nil
}

func (s *Synthesizer) numeric(outcome result.Outcome, f filter.Set) domanswer.Answer {
	n := outcome.TotalCount()
	phrase := countPhrase(n, f)
	return s.schema.Validate(domanswer.Answer{
		Kind:         domanswer.KindSuccess,
		Summary:      fmt.Sprintf("Se encontraron %s.", phrase),
		TotalFound:   domanswer.Count(n),
		Applications: []domanswer.Application{},
		Insights:     []string{fmt.Sprintf("Total: %s (aplicaciones únicas).", phrase)},
		Suggestions:  []string{"Pide el listado de estas aplicaciones para ver el detalle"},
	})
}

func (s *Synthesizer) noResults() domanswer.Answer {
	return s.schema.Validate(domanswer.Answer{
		Kind:        domanswer.KindNoResults,
		Summary:     "No se encontraron aplicaciones que coincidan con la consulta.",
		Suggestions: noResultsSuggestions,
	})
}

func (s *Synthesizer) parseError(raw string, outcome result.Outcome) domanswer.Answer {
	return s.schema.Validate(domanswer.Answer{
		Kind:        domanswer.KindParseError,
		Summary:     "No se pudo interpretar la respuesta generada.",
		Message:     domanswer.Truncate(raw, parseExcerptLength),
		TotalFound:  domanswer.Count(outcome.TotalCount()),
		Suggestions: []string{"Reformula la pregunta con más detalle"},
	})
}

func (s *Synthesizer) conversationalFallback() domanswer.Answer {
	return s.schema.Validate(domanswer.Answer{
		Kind:        domanswer.KindConversational,
		Summary:     "¡Hola! Soy el asistente del portafolio de aplicaciones. Puedo ayudarte a buscar aplicaciones por país, criticidad, estado o despliegue.",
		Suggestions: conversationalSuggestions,
	})
}
