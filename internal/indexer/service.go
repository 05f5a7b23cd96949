package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/portfolio-rag/internal/db"
	"github.com/kailas-cloud/portfolio-rag/internal/domain"
	dombatch "github.com/kailas-cloud/portfolio-rag/internal/domain/batch"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/document"
	"github.com/kailas-cloud/portfolio-rag/internal/metrics"
)

// Defaults for batch processing.
const (
	DefaultBatchSize   = 10
	DefaultConcurrency = 4
)

// Embedder vectorizes a batch of chunk texts.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// BulkWriter writes documents under explicit IDs.
type BulkWriter interface {
	Bulk(ctx context.Context, index string, items []db.BulkItem) (*db.BulkResult, error)
}

// ResetMode says what happens to documents written by earlier runs.
type ResetMode string

const (
	// ResetNone leaves earlier documents in place.
	ResetNone ResetMode = "none"
	// ResetAll empties the index before indexing.
	ResetAll ResetMode = "all"
	// ResetPrune deletes documents of other runs after a run without failures.
	ResetPrune ResetMode = "prune"
)

// ParseResetMode validates a reset mode name.
func ParseResetMode(s string) (ResetMode, error) {
	switch m := ResetMode(s); m {
	case ResetNone, ResetAll, ResetPrune:
		return m, nil
	default:
		return "", fmt.Errorf("unknown reset mode %q (want none, all or prune)", s)
	}
}

// Config tunes a run.
type Config struct {
	Index       string
	Dimensions  int
	BatchSize   int
	Concurrency int
	Chunker     Chunker
	Reset       ResetMode
	// Cleaner is required unless Reset is ResetNone.
	Cleaner db.Cleaner
	// Progress receives a progress bar when non-nil.
	Progress io.Writer
	Metrics  *metrics.Indexer
	Logger   *zap.Logger
	Now      func() time.Time
}

// Summary is the outcome of one run.
type Summary struct {
	RunID       string
	Rows        int
	SkippedRows int
	Chunks      int
	Indexed     int
	Failed      int
	// Cleared counts documents removed before indexing (ResetAll).
	Cleared int
	// Pruned counts documents of earlier runs removed afterwards (ResetPrune).
	Pruned   int
	Duration time.Duration
	// Results holds one entry per chunk document, in input order.
	Results []dombatch.Result
}

// FirstErrors returns up to n failed results for reporting.
func (s Summary) FirstErrors(n int) []dombatch.Result {
	return dombatch.Failed(s.Results, n)
}

// Service runs the ingestion pipeline: rows -> chunks -> embed -> bulk.
type Service struct {
	embed Embedder
	store BulkWriter
	cfg   Config
}

// New creates an indexer service.
func New(embed Embedder, store BulkWriter, cfg Config) (*Service, error) {
	if cfg.Index == "" {
		return nil, fmt.Errorf("index is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", cfg.Dimensions)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Reset == "" {
		cfg.Reset = ResetNone
	}
	if _, err := ParseResetMode(string(cfg.Reset)); err != nil {
		return nil, err
	}
	if cfg.Reset != ResetNone && cfg.Cleaner == nil {
		return nil, fmt.Errorf("reset mode %q needs a cleaner", cfg.Reset)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewIndexer(nil)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{embed: embed, store: store, cfg: cfg}, nil
}

type pendingChunk struct {
	id   string
	text string
	meta document.Metadata
}

// source is the indexed document body.
type source struct {
	TextContent string            `json:"text_content"`
	Embedding   []float32         `json:"embedding"`
	Metadata    document.Metadata `json:"metadata"`
	Timestamp   string            `json:"timestamp"`
	RunID       string            `json:"run_id"`
}

// Run indexes rows. Item failures are reported in the summary; only
// cancellation returns an error.
func (s *Service) Run(ctx context.Context, rows []Row) (Summary, error) {
	start := time.Now()
	sum := Summary{RunID: uuid.NewString(), Rows: len(rows)}
	log := s.cfg.Logger.With(zap.String("run_id", sum.RunID))

	chunks := s.prepare(rows, &sum)
	sum.Chunks = len(chunks)
	sum.Results = make([]dombatch.Result, len(chunks))

	log.Info("Indexing started",
		zap.Int("rows", sum.Rows),
		zap.Int("skipped_rows", sum.SkippedRows),
		zap.Int("chunks", sum.Chunks),
		zap.String("index", s.cfg.Index),
	)

	if s.cfg.Reset == ResetAll {
		n, err := s.cfg.Cleaner.DeleteByQuery(ctx, s.cfg.Index, matchAllQuery())
		if err != nil {
			return sum, fmt.Errorf("clear index: %w", err)
		}
		sum.Cleared = n
		log.Info("Index cleared", zap.Int("deleted", n))
	}

	bar := s.newBar(len(chunks))
	timestamp := s.cfg.Now().UTC().Format(time.RFC3339)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for off := 0; off < len(chunks); off += s.cfg.BatchSize {
		end := min(off+s.cfg.BatchSize, len(chunks))
		batch := chunks[off:end]
		results := sum.Results[off:end]

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err //nolint:wrapcheck // cancellation is reported as-is
			}
			s.processBatch(gctx, log, batch, results, timestamp, sum.RunID)
			_ = bar.Add(len(batch))
			return nil
		})
	}

	runErr := g.Wait()
	_ = bar.Finish()

	for i, r := range sum.Results {
		if !r.Done() {
			// batch never ran (canceled)
			sum.Results[i] = dombatch.NewError(chunks[i].id, context.Canceled)
		}
	}
	sum.Indexed, sum.Failed = dombatch.Tally(sum.Results)
	sum.Duration = time.Since(start)

	log.Info("Indexing finished",
		zap.Int("indexed", sum.Indexed),
		zap.Int("failed", sum.Failed),
		zap.Duration("duration", sum.Duration),
	)

	if runErr != nil {
		return sum, fmt.Errorf("indexing interrupted: %w", runErr)
	}
	if s.cfg.Reset == ResetPrune {
		if err := s.prune(ctx, log, &sum); err != nil {
			return sum, fmt.Errorf("prune stale documents: %w", err)
		}
	}
	return sum, nil
}

// prune deletes documents not written by this run. A run with failures keeps
// the old documents: they may be the only copy of the failed applications.
func (s *Service) prune(ctx context.Context, log *zap.Logger, sum *Summary) error {
	if sum.Failed > 0 || sum.Indexed == 0 {
		log.Warn("Stale documents kept",
			zap.Int("indexed", sum.Indexed),
			zap.Int("failed", sum.Failed),
		)
		return nil
	}
	if err := s.cfg.Cleaner.Refresh(ctx, s.cfg.Index); err != nil {
		return err //nolint:wrapcheck // wrapped by Run
	}
	n, err := s.cfg.Cleaner.DeleteByQuery(ctx, s.cfg.Index, otherRunsQuery(sum.RunID))
	if err != nil {
		return err //nolint:wrapcheck // wrapped by Run
	}
	sum.Pruned = n
	log.Info("Stale documents pruned", zap.Int("deleted", n))
	return nil
}

func matchAllQuery() []byte {
	return []byte(`{"query":{"match_all":{}}}`)
}

// otherRunsQuery matches documents whose run_id differs from runID.
// match_phrase works whether run_id is mapped as keyword or text.
func otherRunsQuery(runID string) []byte {
	body, _ := json.Marshal(map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must_not": []any{
					map[string]any{"match_phrase": map[string]any{"run_id": runID}},
				},
			},
		},
	})
	return body
}

// prepare builds chunk documents from rows, skipping rows without content or ID.
// Document IDs derive from id_app, so only the first row of an application is kept.
func (s *Service) prepare(rows []Row, sum *Summary) []pendingChunk {
	var out []pendingChunk
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		text := EnrichedText(row)
		meta := BuildMetadata(row)
		_, dup := seen[meta.IDApp]
		if meta.IDApp == "" || dup || utf8.RuneCountInString(text) < minEnrichedChars {
			if dup {
				s.cfg.Logger.Warn("Duplicate application row skipped", zap.String("id_app", meta.IDApp))
			}
			sum.SkippedRows++
			s.cfg.Metrics.RowsTotal.WithLabelValues("skipped").Inc()
			continue
		}
		seen[meta.IDApp] = struct{}{}
		s.cfg.Metrics.RowsTotal.WithLabelValues("accepted").Inc()

		parts := s.cfg.Chunker.Split(text)
		for i, p := range parts {
			m := meta
			m.ChunkNumber = i
			m.TotalChunks = len(parts)
			out = append(out, pendingChunk{id: fmt.Sprintf("%s-%d", m.IDApp, i), text: p, meta: m})
		}
	}
	return out
}

func (s *Service) processBatch(
	ctx context.Context,
	log *zap.Logger,
	batch []pendingChunk,
	results []dombatch.Result,
	timestamp, runID string,
) {
	m := s.cfg.Metrics
	m.BatchesTotal.Inc()

	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].text
	}

	embStart := time.Now()
	emb, err := s.embed.BatchEmbed(ctx, texts)
	m.BatchDuration.WithLabelValues("embed").Observe(time.Since(embStart).Seconds())
	if err == nil && len(emb.Embeddings) != len(batch) {
		err = fmt.Errorf("%w: got %d vectors for %d texts",
			domain.ErrEmbeddingProviderError, len(emb.Embeddings), len(batch))
	}
	if err != nil {
		log.Error("Batch embedding failed", zap.Int("size", len(batch)), zap.Error(err))
		failAll(batch, results, fmt.Errorf("embed: %w", err))
		m.ChunksTotal.WithLabelValues("failed", "embedding").Add(float64(len(batch)))
		return
	}

	items := make([]db.BulkItem, 0, len(batch))
	positions := make(map[string]int, len(batch))
	for i := range batch {
		c := &batch[i]
		vec := emb.Embeddings[i]
		if len(vec) != s.cfg.Dimensions {
			results[i] = dombatch.NewError(c.id, fmt.Errorf("%w: expected %d, got %d",
				domain.ErrVectorDimMismatch, s.cfg.Dimensions, len(vec)))
			m.ChunksTotal.WithLabelValues("failed", "dimension").Inc()
			continue
		}
		item, err := buildItem(c, vec, timestamp, runID)
		if err != nil {
			results[i] = dombatch.NewError(c.id, err)
			m.ChunksTotal.WithLabelValues("failed", "invalid").Inc()
			continue
		}
		items = append(items, item)
		positions[item.ID] = i
	}
	if len(items) == 0 {
		return
	}

	bulkStart := time.Now()
	res, err := s.store.Bulk(ctx, s.cfg.Index, items)
	m.BatchDuration.WithLabelValues("bulk").Observe(time.Since(bulkStart).Seconds())
	if err != nil {
		log.Error("Bulk write failed", zap.Int("size", len(items)), zap.Error(err))
		for _, it := range items {
			results[positions[it.ID]] = dombatch.NewError(it.ID, fmt.Errorf("bulk: %w", err))
		}
		m.ChunksTotal.WithLabelValues("failed", "bulk").Add(float64(len(items)))
		return
	}

	rejected := make(map[string]db.BulkFailure, len(res.Failed))
	for _, f := range res.Failed {
		rejected[f.ID] = f
	}
	for _, it := range items {
		if f, ok := rejected[it.ID]; ok {
			results[positions[it.ID]] = dombatch.NewError(it.ID,
				fmt.Errorf("rejected with status %d: %s", f.Status, f.Reason))
			m.ChunksTotal.WithLabelValues("failed", "rejected").Inc()
			continue
		}
		results[positions[it.ID]] = dombatch.NewOK(it.ID)
		m.ChunksTotal.WithLabelValues("indexed", "").Inc()
	}
}

func buildItem(c *pendingChunk, vec []float32, timestamp, runID string) (db.BulkItem, error) {
	doc, err := document.New(c.text, vec, c.meta, time.Time{})
	if err != nil {
		return db.BulkItem{}, fmt.Errorf("document %s: %w", c.id, err)
	}
	body, err := json.Marshal(source{
		TextContent: doc.Text(),
		Embedding:   doc.Vector(),
		Metadata:    doc.Metadata(),
		Timestamp:   timestamp,
		RunID:       runID,
	})
	if err != nil {
		return db.BulkItem{}, fmt.Errorf("marshal %s: %w", c.id, err)
	}
	return db.BulkItem{ID: doc.ID(), Body: body}, nil
}

func failAll(batch []pendingChunk, results []dombatch.Result, err error) {
	for i := range batch {
		results[i] = dombatch.NewError(batch[i].id, err)
	}
}

func (s *Service) newBar(total int) *progressbar.ProgressBar {
	if s.cfg.Progress == nil {
		return progressbar.DefaultSilent(int64(total))
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(s.cfg.Progress),
		progressbar.OptionSetDescription("indexing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("chunks"),
		progressbar.OptionShowIts(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() { _, _ = fmt.Fprintln(s.cfg.Progress) }),
	)
}

// IsCanceled reports whether a summary error came from cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
