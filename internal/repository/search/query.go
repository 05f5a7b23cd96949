package search

import (
	"fmt"

	"github.com/kailas-cloud/portfolio-rag/internal/domain/search/filter"
)

// CountScope selects which document set numeric questions count over.
type CountScope string

const (
	// CountMatched counts applications matching the hybrid query plus filters.
	CountMatched CountScope = "matched"
	// CountFiltered counts applications matching the filters alone.
	CountFiltered CountScope = "filtered"
)

// Aggregation names in the request body and response.
const (
	aggUniqueApps = "unique_apps"
	aggCountries  = "countries"
)

// Boosts are the relative weights of the disjunctive sub-queries.
type Boosts struct {
	ExactName  float64
	Name       float64
	Phrase     float64
	Content    float64
	MultiMatch float64
}

// Fields are the index field paths the query addresses.
type Fields struct {
	Name     string
	Content  string
	Owner    string
	Vector   string
	AppID    string
	Country  string
	Metadata string // prefix for filter keys, e.g. "metadata."
}

// Options tune query construction.
type Options struct {
	Index      string
	Fields     Fields
	Boosts     Boosts
	Overfetch  int
	CountScope CountScope
	// CountryBuckets caps the per-country terms aggregation.
	CountryBuckets int
}

// DefaultOptions returns the empirically chosen weights: exact 10, name 5,
// phrase 3, content 2, multi-field 1.5, k = topK*3.
func DefaultOptions() Options {
	return Options{
		Index: "portfolio-apps",
		Fields: Fields{
			Name:     "metadata.name",
			Content:  "text_content",
			Owner:    "metadata.owner",
			Vector:   "embedding",
			AppID:    "metadata.id_app",
			Country:  "metadata.country",
			Metadata: "metadata.",
		},
		Boosts: Boosts{
			ExactName:  10.0,
			Name:       5.0,
			Phrase:     3.0,
			Content:    2.0,
			MultiMatch: 1.5,
		},
		Overfetch:      3,
		CountScope:     CountMatched,
		CountryBuckets: 50,
	}
}

// Validate checks the options are usable.
func (o Options) Validate() error {
	if o.Index == "" {
		return fmt.Errorf("index is required")
	}
	if o.Overfetch < 1 {
		return fmt.Errorf("overfetch must be >= 1")
	}
	switch o.CountScope {
	case CountMatched, CountFiltered:
	default:
		return fmt.Errorf("unknown count scope %q", o.CountScope)
	}
	if o.Fields.Vector == "" || o.Fields.Content == "" || o.Fields.Name == "" || o.Fields.AppID == "" {
		return fmt.Errorf("vector, content, name and app id fields are required")
	}
	return nil
}

// buildQuery assembles the request body. filters only ever narrow the
// disjunctive match set; ExactName contributes a should clause, not a filter.
func buildQuery(question string, vector []float32, filters filter.Set, topK int, o Options) map[string]any {
	f := o.Fields

	must := make([]any, 0, len(filters.Conditions()))
	for _, c := range filters.Conditions() {
		must = append(must, map[string]any{
			"term": map[string]any{f.Metadata + c.Key(): c.Value()},
		})
	}

	boolQuery := map[string]any{}
	if len(must) > 0 {
		boolQuery["filter"] = must
	}

	filteredCount := filters.IsNumerical && o.CountScope == CountFiltered
	if !filteredCount {
		boolQuery["should"] = shouldClauses(question, vector, filters.ExactName, topK, o)
		boolQuery["minimum_should_match"] = 1
	}

	var query map[string]any
	if len(boolQuery) == 0 {
		query = map[string]any{"match_all": map[string]any{}}
	} else {
		query = map[string]any{"bool": boolQuery}
	}

	aggs := map[string]any{
		aggUniqueApps: map[string]any{
			"cardinality": map[string]any{"field": f.AppID},
		},
	}
	if !filters.IsNumerical && !filters.HasCountry() && f.Country != "" {
		aggs[aggCountries] = map[string]any{
			"terms": map[string]any{"field": f.Country, "size": o.CountryBuckets},
		}
	}

	size := topK
	if filters.IsNumerical {
		size = 0
	}

	return map[string]any{
		"size":             size,
		"query":            query,
		"aggs":             aggs,
		"track_total_hits": true,
		"_source":          map[string]any{"excludes": []string{f.Vector}},
	}
}

func shouldClauses(question string, vector []float32, exactName string, topK int, o Options) []any {
	f, b := o.Fields, o.Boosts

	should := make([]any, 0, 6)
	if exactName != "" {
		should = append(should, map[string]any{
			"term": map[string]any{f.Name: map[string]any{
				"value":            exactName,
				"case_insensitive": true,
				"boost":            b.ExactName,
			}},
		})
	}

	should = append(should,
		map[string]any{
			"knn": map[string]any{f.Vector: map[string]any{
				"vector": vector,
				"k":      topK * o.Overfetch,
			}},
		},
		map[string]any{
			"match": map[string]any{f.Name: map[string]any{"query": question, "boost": b.Name}},
		},
		map[string]any{
			"match": map[string]any{f.Content: map[string]any{"query": question, "boost": b.Content}},
		},
		map[string]any{
			"match_phrase": map[string]any{f.Content: map[string]any{"query": question, "boost": b.Phrase}},
		},
	)

	fields := []string{f.Name + "^3", f.Content + "^1"}
	if f.Owner != "" {
		fields = append(fields, f.Owner+"^1")
	}
	should = append(should, map[string]any{
		"multi_match": map[string]any{
			"query":  question,
			"fields": fields,
			"type":   "best_fields",
			"boost":  b.MultiMatch,
		},
	})
	return should
}
