package portfoliorag

import (
	domanswer "github.com/kailas-cloud/portfolio-rag/internal/domain/answer"
	queryuc "github.com/kailas-cloud/portfolio-rag/internal/usecase/query"
)

// Answer is the structured response rendered to the user.
type Answer = domanswer.Answer

// Source is one retrieved chunk with its application metadata.
type Source = queryuc.Source

// Result is the outcome of Client.Query.
type Result struct {
	Answer  Answer
	Intent  string   // "conversational" or "retrieval"
	Sources []Source // nil unless WithSources was passed
}
