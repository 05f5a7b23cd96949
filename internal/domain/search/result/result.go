package result

import (
	"encoding/json"

	"github.com/kailas-cloud/portfolio-rag/internal/domain/document"
)

// Result is a single search hit.
type Result struct {
	id       string
	score    float64
	text     string
	metadata document.Metadata
}

// New creates a search result.
func New(id string, score float64, text string, metadata document.Metadata) Result {
	return Result{id: id, score: score, text: text, metadata: metadata}
}

// ID returns the document identifier.
func (r *Result) ID() string { return r.id }

// Score returns the combined relevance score.
func (r *Result) Score() float64 { return r.score }

// Text returns the chunk text.
func (r *Result) Text() string { return r.text }

// Metadata returns the application metadata.
func (r *Result) Metadata() document.Metadata { return r.metadata }

// Bucket is one terms-aggregation bucket.
type Bucket struct {
	Key   string `json:"key"`
	Count int    `json:"doc_count"`
}

// Outcome is the normalized result of one retrieval.
type Outcome struct {
	totalCount   int
	results      []Result
	hasMore      bool
	countries    []Bucket
	aggregations json.RawMessage
}

// NewOutcome builds an outcome. hasMore is derived: totalCount exceeds the
// returned hits, and is always false for aggregation-only (numerical) queries.
func NewOutcome(
	totalCount int, results []Result, numerical bool,
	countries []Bucket, aggregations json.RawMessage,
) Outcome {
	if numerical {
		results = nil
	}
	if totalCount < 0 {
		totalCount = 0
	}
	return Outcome{
		totalCount:   totalCount,
		results:      results,
		hasMore:      !numerical && totalCount > len(results),
		countries:    countries,
		aggregations: aggregations,
	}
}

// Empty returns the zero outcome used when the store fails.
func Empty() Outcome { return Outcome{} }

// TotalCount returns the authoritative count of distinct applications.
func (o *Outcome) TotalCount() int { return o.totalCount }

// Results returns the ranked hits, best first.
func (o *Outcome) Results() []Result { return o.results }

// HasMore reports whether more matches exist than were returned.
func (o *Outcome) HasMore() bool { return o.hasMore }

// Countries returns the per-country breakdown when it was requested.
func (o *Outcome) Countries() []Bucket { return o.countries }

// Aggregations returns the raw aggregation payload ({} when absent).
func (o *Outcome) Aggregations() json.RawMessage {
	if len(o.aggregations) == 0 {
		return json.RawMessage("{}")
	}
	return o.aggregations
}

// IsEmpty reports whether there is nothing to present.
func (o *Outcome) IsEmpty() bool { return len(o.results) == 0 }
