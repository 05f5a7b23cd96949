// Command indexer loads the application portfolio spreadsheet into the search index.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/portfolio-rag/internal/config"
	dbOpenSearch "github.com/kailas-cloud/portfolio-rag/internal/db/opensearch"
	"github.com/kailas-cloud/portfolio-rag/internal/indexer"
	logpkg "github.com/kailas-cloud/portfolio-rag/internal/logger"
	"github.com/kailas-cloud/portfolio-rag/internal/metrics"
	"github.com/kailas-cloud/portfolio-rag/internal/resilience"
	openaiTransport "github.com/kailas-cloud/portfolio-rag/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/portfolio-rag/internal/usecase/embedding"
	"github.com/kailas-cloud/portfolio-rag/internal/version"
)

const reportErrors = 5

type options struct {
	file        string
	sheet       string
	configPath  string
	batchSize   int
	concurrency int
	quiet       bool
	reset       string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "indexer",
		Short:         "Index the application portfolio into OpenSearch",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := run(ctx, opts); err != nil {
				color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "error: %v\n", err)
				return err
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "portfolio file (.xlsx or .csv)")
	f.StringVar(&opts.sheet, "sheet", "", "worksheet name (default: first sheet)")
	f.StringVarP(&opts.configPath, "config", "c", "", "config file (default: config/<ENV>.yaml)")
	f.IntVar(&opts.batchSize, "batch-size", 0, "chunks per embedding request (overrides config)")
	f.IntVar(&opts.concurrency, "concurrency", 0, "parallel batches (overrides config)")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "disable the progress bar")
	f.StringVar(&opts.reset, "reset", string(indexer.ResetPrune),
		"earlier documents: prune (delete after a run without failures), all (clear before indexing) or none")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load(config.GetEnv())
}

func run(ctx context.Context, opts options) error {
	reset, err := indexer.ParseResetMode(opts.reset)
	if err != nil {
		return err //nolint:wrapcheck // flag validation message
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(config.GetEnv(), "portfolio-indexer", cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	rows, err := indexer.ReadFile(opts.file, opts.sheet)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.file, err)
	}
	logger.Info("Source loaded", zap.String("file", opts.file), zap.Int("rows", len(rows)))

	store, err := dbOpenSearch.NewStore(dbOpenSearch.Config{
		Addresses:          cfg.Search.Addrs,
		Username:           cfg.Search.Username,
		Password:           cfg.Search.Password,
		InsecureSkipVerify: cfg.Search.InsecureSkipVerify,
		Timeout:            time.Duration(cfg.Search.TimeoutSec) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("create search store: %w", err)
	}
	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("search store unreachable: %w", err)
	}

	// Retries only, no breaker for the batch job.
	r := cfg.Resilience
	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    r.RetryMaxAttempts,
		RetryInitialBackoff: time.Duration(r.RetryInitialBackoffMs) * time.Millisecond,
		RetryMaxBackoff:     time.Duration(r.RetryMaxBackoffMs) * time.Millisecond,
		RetryMultiplier:     r.RetryMultiplier,
	}, logger)

	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		User:       cfg.Embedding.User,
		Provider:   cfg.Embedding.Provider,
		Executor:   exec,
		Logger:     logger,
	})
	embedder := embeddinguc.NewInstrumentedEmbedder(
		base, cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Embedding.Dimensions, logger,
	)

	batchSize, concurrency := cfg.Indexer.BatchSize, cfg.Indexer.Concurrency
	if opts.batchSize > 0 {
		batchSize = opts.batchSize
	}
	if opts.concurrency > 0 {
		concurrency = opts.concurrency
	}

	icfg := indexer.Config{
		Index:       cfg.Search.Index,
		Dimensions:  cfg.Embedding.Dimensions,
		BatchSize:   batchSize,
		Concurrency: concurrency,
		Chunker: indexer.Chunker{
			Max: cfg.Indexer.MaxChunkChars,
			Min: cfg.Indexer.MinChunkChars,
		},
		Reset:   reset,
		Cleaner: store,
		Metrics: metrics.NewIndexer(prometheus.NewRegistry()),
		Logger:  logger,
	}
	if !opts.quiet {
		icfg.Progress = os.Stderr
	}

	svc, err := indexer.New(embedder, store, icfg)
	if err != nil {
		return fmt.Errorf("create indexer: %w", err)
	}

	sum, runErr := svc.Run(ctx, rows)
	printSummary(sum)
	if runErr != nil {
		return runErr //nolint:wrapcheck // already wrapped by the service
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d chunks failed", sum.Failed, sum.Chunks)
	}
	return nil
}

func printSummary(sum indexer.Summary) {
	bold := color.New(color.Bold)
	ok := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)
	bad := color.New(color.FgRed)

	_, _ = bold.Printf("Run %s finished in %s\n", sum.RunID, sum.Duration.Round(time.Millisecond))
	fmt.Printf("  rows:    %d (skipped %d)\n", sum.Rows, sum.SkippedRows)
	fmt.Printf("  chunks:  %d\n", sum.Chunks)
	_, _ = ok.Printf("  indexed: %d\n", sum.Indexed)
	if sum.Cleared > 0 {
		fmt.Printf("  cleared: %d\n", sum.Cleared)
	}
	if sum.Pruned > 0 {
		fmt.Printf("  pruned:  %d\n", sum.Pruned)
	}

	if sum.Failed == 0 {
		return
	}
	_, _ = bad.Printf("  failed:  %d\n", sum.Failed)
	for _, r := range sum.FirstErrors(reportErrors) {
		_, _ = warn.Printf("    %s: %v\n", r.ID(), r.Err())
	}
	if sum.Failed > reportErrors {
		_, _ = warn.Printf("    ... and %d more\n", sum.Failed-reportErrors)
	}
}
