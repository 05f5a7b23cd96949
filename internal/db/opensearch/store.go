// Package opensearch implements the search store on OpenSearch.
package opensearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"

	"github.com/kailas-cloud/portfolio-rag/internal/db"
)

// Compile-time check: Store implements db.SearchStore.
var _ db.SearchStore = (*Store)(nil)

// Config holds connection parameters for the cluster.
type Config struct {
	Addresses          []string
	Username           string
	Password           string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// Store wraps the opensearchapi client behind db.SearchStore.
type Store struct {
	client *opensearchapi.Client
}

// NewStore creates an OpenSearch-backed store.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("addresses is required")
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for dev clusters
	}

	client, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses: cfg.Addresses,
			Username:  cfg.Username,
			Password:  cfg.Password,
			Transport: &timeoutTransport{inner: transport, timeout: cfg.Timeout},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Store{client: client}, nil
}

// Ping checks cluster reachability via the info endpoint.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.Info(ctx, nil); err != nil {
		return &db.Error{Op: db.OpInfo, Err: err}
	}
	return nil
}

// Search runs a raw query body against index.
func (s *Store) Search(ctx context.Context, index string, body []byte) (*db.SearchResponse, error) {
	resp, err := s.client.Search(ctx, &opensearchapi.SearchReq{
		Indices: []string{index},
		Body:    bytes.NewReader(body),
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	out := &db.SearchResponse{
		Total:        resp.Hits.Total.Value,
		Hits:         make([]db.SearchHit, 0, len(resp.Hits.Hits)),
		Aggregations: resp.Aggregations,
	}
	for _, h := range resp.Hits.Hits {
		out.Hits = append(out.Hits, db.SearchHit{
			ID:     h.ID,
			Score:  float64(h.Score),
			Source: h.Source,
		})
	}
	return out, nil
}

// Bulk indexes items with explicit IDs. Item-level rejections are reported in
// BulkResult.Failed, only transport failures return an error.
func (s *Store) Bulk(ctx context.Context, index string, items []db.BulkItem) (*db.BulkResult, error) {
	if len(items) == 0 {
		return &db.BulkResult{}, nil
	}

	var buf bytes.Buffer
	for _, it := range items {
		action := map[string]any{"index": map[string]string{"_index": index, "_id": it.ID}}
		line, err := json.Marshal(action)
		if err != nil {
			return nil, fmt.Errorf("marshal bulk action: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
		buf.Write(bytes.TrimSpace(it.Body))
		buf.WriteByte('\n')
	}

	resp, err := s.client.Bulk(ctx, opensearchapi.BulkReq{Index: index, Body: &buf})
	if err != nil {
		return nil, &db.Error{Op: db.OpBulk, Err: err}
	}

	res := &db.BulkResult{}
	for _, entry := range resp.Items {
		for _, item := range entry {
			if item.Error == nil && item.Status < http.StatusMultipleChoices {
				res.Indexed++
				continue
			}
			f := db.BulkFailure{ID: item.ID, Status: item.Status}
			if item.Error != nil {
				f.Reason = item.Error.Type + ": " + item.Error.Reason
			}
			res.Failed = append(res.Failed, f)
		}
	}
	return res, nil
}

// Refresh makes every write to index visible to search.
func (s *Store) Refresh(ctx context.Context, index string) error {
	if _, err := s.client.Indices.Refresh(ctx, &opensearchapi.IndicesRefreshReq{Indices: []string{index}}); err != nil {
		return &db.Error{Op: db.OpRefresh, Err: err}
	}
	return nil
}

// DeleteByQuery removes the documents of index matching body and returns how many went.
func (s *Store) DeleteByQuery(ctx context.Context, index string, body []byte) (int, error) {
	resp, err := s.client.Document.DeleteByQuery(ctx, opensearchapi.DocumentDeleteByQueryReq{
		Indices: []string{index},
		Body:    bytes.NewReader(body),
	})
	if err != nil {
		return 0, &db.Error{Op: db.OpDeleteByQuery, Err: err}
	}
	return resp.Deleted, nil
}

// timeoutTransport bounds each round trip when a timeout is configured.
type timeoutTransport struct {
	inner   http.RoundTripper
	timeout time.Duration
}

func (t *timeoutTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.timeout <= 0 {
		return t.inner.RoundTrip(req) //nolint:wrapcheck // transparent transport
	}
	ctx, cancel := context.WithTimeout(req.Context(), t.timeout)
	resp, err := t.inner.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err //nolint:wrapcheck // transparent transport
	}
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}
