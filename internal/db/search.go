package db

import "encoding/json"

// SearchResponse is the normalized output of a search request.
type SearchResponse struct {
	// Total is the raw hit total (chunk documents, not applications).
	Total        int
	Hits         []SearchHit
	Aggregations json.RawMessage
}

// SearchHit is a single document hit.
type SearchHit struct {
	ID     string
	Score  float64
	Source json.RawMessage
}

// BulkItem is one document to index under an explicit ID.
type BulkItem struct {
	ID   string
	Body []byte
}

// BulkResult summarizes a bulk request.
type BulkResult struct {
	Indexed int
	Failed  []BulkFailure
}

// BulkFailure describes a rejected bulk item.
type BulkFailure struct {
	ID     string
	Status int
	Reason string
}
