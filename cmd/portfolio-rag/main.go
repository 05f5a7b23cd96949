package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/portfolio-rag/internal/config"
	dbOpenSearch "github.com/kailas-cloud/portfolio-rag/internal/db/opensearch"
	dbRedis "github.com/kailas-cloud/portfolio-rag/internal/db/redis"
	"github.com/kailas-cloud/portfolio-rag/internal/domain"
	domanswer "github.com/kailas-cloud/portfolio-rag/internal/domain/answer"
	logpkg "github.com/kailas-cloud/portfolio-rag/internal/logger"
	"github.com/kailas-cloud/portfolio-rag/internal/metrics"
	"github.com/kailas-cloud/portfolio-rag/internal/repository/embcache"
	searchrepo "github.com/kailas-cloud/portfolio-rag/internal/repository/search"
	"github.com/kailas-cloud/portfolio-rag/internal/resilience"
	chiTransport "github.com/kailas-cloud/portfolio-rag/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/portfolio-rag/internal/transport/openai"
	answeruc "github.com/kailas-cloud/portfolio-rag/internal/usecase/answer"
	embeddinguc "github.com/kailas-cloud/portfolio-rag/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/portfolio-rag/internal/usecase/health"
	queryuc "github.com/kailas-cloud/portfolio-rag/internal/usecase/query"
	"github.com/kailas-cloud/portfolio-rag/internal/version"
	"github.com/kailas-cloud/portfolio-rag/internal/vocabulary"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, "portfolio-rag", cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting portfolio-rag API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("search_addrs", cfg.Search.Addrs),
		zap.String("index", cfg.Search.Index),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

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

	// Pass nil interface (not typed nil pointer!) if the cache is not configured.
	var cachePinger healthuc.Pinger
	var cache *dbRedis.Store
	if cfg.Cache.Enabled() {
		cache, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			return fmt.Errorf("create cache store: %w", err)
		}
		defer cache.Close()

		if err := cache.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			return fmt.Errorf("cache not ready: %w", err)
		}
		cachePinger = cache
		logger.Info("Connected to embedding cache")
	}

	exec := resilience.NewExecutor(resiliencePolicy(cfg.Resilience), logger)

	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		User:       cfg.Embedding.User,
		Provider:   cfg.Embedding.Provider,
		Executor:   exec,
		Logger:     logger,
	})
	generator := openaiTransport.NewGenerator(&openaiTransport.Config{
		APIKey:   cfg.Generation.APIKey,
		BaseURL:  cfg.Generation.BaseURL,
		Model:    cfg.Generation.Model,
		User:     cfg.Embedding.User,
		Provider: cfg.Generation.Provider,
		Executor: exec,
		Logger:   logger,
	})

	queryEmbedder := buildEmbedder(cfg, baseEmbedder, cache, logger)
	logger.Info("Providers created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("generation_model", cfg.Generation.Model),
	)

	searchRepo, err := searchrepo.New(store, searchOptions(cfg), exec)
	if err != nil {
		return fmt.Errorf("create search repository: %w", err)
	}

	synth := answeruc.New(generator, domanswer.DefaultSchema(), answeruc.Config{
		MaxTokens:                 cfg.Generation.MaxTokens,
		Temperature:               *cfg.Generation.Temperature,
		ConversationalMaxTokens:   cfg.Generation.ConversationalMaxTokens,
		ConversationalTemperature: *cfg.Generation.ConversationalTemperature,
		JSONMode:                  *cfg.Generation.JSONMode,
	})

	vocab, err := vocabulary.Load(cfg.Vocabulary.Path)
	if err != nil {
		return fmt.Errorf("load vocabulary: %w", err)
	}
	querySvc := queryuc.New(queryEmbedder, searchRepo, synth, vocab).
		WithMaxQuestionLength(cfg.Retrieval.MaxQuestionLength)

	if cfg.Vocabulary.Watch && cfg.Vocabulary.Path != "" {
		watcher, err := vocabulary.NewWatcher(cfg.Vocabulary.Path, vocabulary.DefaultDebounce, querySvc.Reload, logger)
		if err != nil {
			return fmt.Errorf("watch vocabulary: %w", err)
		}
		go watcher.Run(ctx)
		logger.Info("Watching vocabulary", zap.String("path", cfg.Vocabulary.Path))
	}

	healthSvc := healthuc.New(store, cachePinger, baseEmbedder, generator)

	server := chiTransport.NewServer(querySvc, healthSvc, chiTransport.Limits{
		DefaultTopK: cfg.Retrieval.TopK,
		MaxTopK:     cfg.Retrieval.MaxTopK,
	}, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:     cfg.Auth.APIKeys,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		RateRPS:     cfg.HTTP.RateRPS,
		RateBurst:   cfg.HTTP.RateBurst,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction
func buildEmbedder(
	cfg config.Config,
	base domain.Embedder,
	cache *dbRedis.Store,
	logger *zap.Logger,
) domain.Embedder {
	embedder := base
	if cache != nil {
		embedder = embcache.New(base, cache, embcache.Config{
			Model:      cfg.Embedding.Model,
			TTL:        time.Duration(cfg.Cache.TTLSec) * time.Second,
			CacheTotal: metrics.EmbeddingCacheTotal,
			Logger:     logger,
		})
	}

	// Instrumented (dimension check + metrics)
	embedder = embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Embedding.Dimensions, logger,
	)

	// Instruction prefix goes outermost, so cache keys include it.
	if cfg.Embedding.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.Embedding.QueryInstruction)
	}
	return embedder
}

func searchOptions(cfg config.Config) searchrepo.Options {
	opts := searchrepo.DefaultOptions()
	opts.Index = cfg.Search.Index

	f := cfg.Search.Fields
	for _, o := range []struct {
		dst *string
		src string
	}{
		{&opts.Fields.Name, f.Name},
		{&opts.Fields.Content, f.Content},
		{&opts.Fields.Owner, f.Owner},
		{&opts.Fields.Vector, f.Vector},
		{&opts.Fields.AppID, f.AppID},
		{&opts.Fields.Country, f.Country},
	} {
		if o.src != "" {
			*o.dst = o.src
		}
	}

	b := cfg.Retrieval.Boosts
	opts.Boosts = searchrepo.Boosts{
		ExactName:  b.ExactName,
		Name:       b.Name,
		Phrase:     b.Phrase,
		Content:    b.Content,
		MultiMatch: b.MultiMatch,
	}
	opts.Overfetch = cfg.Retrieval.Overfetch
	opts.CountScope = searchrepo.CountScope(cfg.Retrieval.CountScope)
	return opts
}

func resiliencePolicy(r config.ResilienceConfig) resilience.Config {
	return resilience.Config{
		RetryMaxAttempts:        r.RetryMaxAttempts,
		RetryInitialBackoff:     time.Duration(r.RetryInitialBackoffMs) * time.Millisecond,
		RetryMaxBackoff:         time.Duration(r.RetryMaxBackoffMs) * time.Millisecond,
		RetryMultiplier:         r.RetryMultiplier,
		BreakerEnabled:          *r.BreakerEnabled,
		BreakerMinRequests:      r.BreakerMinRequests,
		BreakerFailureRatio:     r.BreakerFailureRatio,
		BreakerOpenTimeout:      time.Duration(r.BreakerOpenTimeoutSec) * time.Second,
		BreakerHalfOpenMaxCalls: r.BreakerHalfOpenCalls,
	}
}
