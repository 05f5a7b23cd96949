package db

import (
	"context"
	"time"
)

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache is the key-value backend behind the embedding cache.
type Cache interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Searcher executes a structured query against an index.
type Searcher interface {
	Search(ctx context.Context, index string, body []byte) (*SearchResponse, error)
}

// BulkIndexer writes documents in one bulk request.
type BulkIndexer interface {
	Bulk(ctx context.Context, index string, items []BulkItem) (*BulkResult, error)
}

// Cleaner removes documents matching a query. Refresh makes prior writes
// visible to the query first.
type Cleaner interface {
	Refresh(ctx context.Context, index string) error
	DeleteByQuery(ctx context.Context, index string, body []byte) (int, error)
}

// SearchStore is the document index facade: query path and indexer path.
type SearchStore interface {
	Pinger
	Searcher
	BulkIndexer
	Cleaner
}
