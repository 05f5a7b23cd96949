package portfoliorag

import "github.com/kailas-cloud/portfolio-rag/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidInput            = domain.ErrInvalidInput
	ErrEmbeddingProviderError  = domain.ErrEmbeddingProviderError
	ErrGenerationProviderError = domain.ErrGenerationProviderError
	ErrVectorDimMismatch       = domain.ErrVectorDimMismatch
)
