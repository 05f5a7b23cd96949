package answer

import (
	"context"

	"github.com/kailas-cloud/portfolio-rag/internal/domain"
)

// Generator produces raw text from a prompt.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)
}
