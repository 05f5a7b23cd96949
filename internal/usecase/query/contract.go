package query

import (
	"context"

	"github.com/kailas-cloud/portfolio-rag/internal/domain"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/answer"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/search/filter"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/search/result"
)

// Embedder vectorizes the question.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Searcher runs the hybrid query. It never fails: store errors become an empty outcome.
type Searcher interface {
	Search(ctx context.Context, question string, vector []float32, filters filter.Set, topK int) result.Outcome
}

// Synthesizer produces validated answers.
type Synthesizer interface {
	Conversational(ctx context.Context, question string) answer.Answer
	FromEvidence(ctx context.Context, question string, outcome result.Outcome, filters filter.Set, topK int) (answer.Answer, error)
	Failure(message string) answer.Answer
}
