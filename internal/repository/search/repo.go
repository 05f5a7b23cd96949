// Package search runs the hybrid lexical+vector query against the search store.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/portfolio-rag/internal/db"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/document"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/search/filter"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/search/result"
	"github.com/kailas-cloud/portfolio-rag/internal/logger"
	"github.com/kailas-cloud/portfolio-rag/internal/metrics"
	"github.com/kailas-cloud/portfolio-rag/internal/resilience"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	Search(ctx context.Context, index string, body []byte) (*db.SearchResponse, error)
}

// Repo implements the hybrid search engine over a db.Searcher.
type Repo struct {
	store store
	opts  Options
	exec  *resilience.Executor
}

// New creates a search repository. exec may be nil.
func New(s store, opts Options, exec *resilience.Executor) (*Repo, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("search options: %w", err)
	}
	return &Repo{store: s, opts: opts, exec: exec}, nil
}

// Search runs one hybrid query. Store failures never propagate:
// they are logged, counted and degraded to the zero outcome.
func (r *Repo) Search(
	ctx context.Context, question string, vector []float32,
	filters filter.Set, topK int,
) result.Outcome {
	log := logger.FromContext(ctx)
	start := time.Now()

	outcome, err := r.search(ctx, question, vector, filters, topK)

	metrics.StageDuration.WithLabelValues("search").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchFailuresTotal.Inc()
		log.Error("Search store query failed, returning empty outcome",
			zap.String("index", r.opts.Index),
			zap.Bool("numerical", filters.IsNumerical),
			zap.Error(err),
		)
		return result.Empty()
	}

	log.Debug("Search completed",
		zap.Int("total_count", outcome.TotalCount()),
		zap.Int("results", len(outcome.Results())),
		zap.Bool("has_more", outcome.HasMore()),
	)
	return outcome
}

func (r *Repo) search(
	ctx context.Context, question string, vector []float32,
	filters filter.Set, topK int,
) (result.Outcome, error) {
	body, err := json.Marshal(buildQuery(question, vector, filters, topK, r.opts))
	if err != nil {
		return result.Outcome{}, fmt.Errorf("marshal query: %w", err)
	}

	var resp *db.SearchResponse
	call := func(ctx context.Context) error {
		var callErr error
		resp, callErr = r.store.Search(ctx, r.opts.Index, body)
		return callErr //nolint:wrapcheck // wrapped below
	}
	if r.exec != nil {
		err = r.exec.Execute(ctx, resilience.OpSearch, call, resilience.DefaultClassifier)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return result.Outcome{}, fmt.Errorf("search %s: %w", r.opts.Index, err)
	}

	return parseResponse(resp, filters.IsNumerical)
}

// source is the stored document shape.
type source struct {
	Text     string            `json:"text_content"`
	Metadata document.Metadata `json:"metadata"`
}

type aggregations struct {
	UniqueApps *struct {
		Value int `json:"value"`
	} `json:"unique_apps"`
	Countries *struct {
		Buckets []result.Bucket `json:"buckets"`
	} `json:"countries"`
}

// parseResponse normalizes the store response. The distinct-application
// cardinality is authoritative; the raw hit total is a fallback only.
func parseResponse(resp *db.SearchResponse, numerical bool) (result.Outcome, error) {
	if resp == nil {
		return result.Empty(), nil
	}

	total := resp.Total
	var countries []result.Bucket
	if len(resp.Aggregations) > 0 {
		var aggs aggregations
		if err := json.Unmarshal(resp.Aggregations, &aggs); err != nil {
			return result.Outcome{}, fmt.Errorf("decode aggregations: %w", err)
		}
		if aggs.UniqueApps != nil {
			total = aggs.UniqueApps.Value
		}
		if aggs.Countries != nil {
			countries = aggs.Countries.Buckets
		}
	}

	var results []result.Result
	if !numerical {
		results = make([]result.Result, 0, len(resp.Hits))
		for _, hit := range resp.Hits {
			var src source
			if len(hit.Source) > 0 {
				if err := json.Unmarshal(hit.Source, &src); err != nil {
					return result.Outcome{}, fmt.Errorf("decode hit %s: %w", hit.ID, err)
				}
			}
			results = append(results, result.New(hit.ID, hit.Score, src.Text, src.Metadata))
		}
	}

	return result.NewOutcome(total, results, numerical, countries, resp.Aggregations), nil
}
