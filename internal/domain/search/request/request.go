package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/portfolio-rag/internal/domain"
)

// Question limits.
const (
	// MaxQuestionLength is the maximum accepted question length in characters.
	MaxQuestionLength = 1000
	DefaultTopK       = 5
	MaxTopK           = 50
)

// Request is a validated question. It lives for one pipeline pass.
type Request struct {
	question        string
	topK            int
	includeMetadata bool
}

// New validates the question and clamps topK into [1, maxTopK].
// topK <= 0 falls back to defaultTopK; maxTopK <= 0 uses MaxTopK.
func New(question string, topK, defaultTopK, maxTopK int, includeMetadata bool) (Request, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Request{}, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	if maxTopK <= 0 {
		maxTopK = MaxTopK
	}
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	if topK <= 0 {
		topK = defaultTopK
	}
	if topK > maxTopK {
		topK = maxTopK
	}
	return Request{question: question, topK: topK, includeMetadata: includeMetadata}, nil
}

// Question returns the trimmed question text.
func (r *Request) Question() string { return r.question }

// TopK returns the number of evidence results requested.
func (r *Request) TopK() int { return r.topK }

// IncludeMetadata reports whether raw sources should be returned with the answer.
func (r *Request) IncludeMetadata() bool { return r.includeMetadata }
