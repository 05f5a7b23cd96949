package portfoliorag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbOpenSearch "github.com/kailas-cloud/portfolio-rag/internal/db/opensearch"
	"github.com/kailas-cloud/portfolio-rag/internal/domain"
	domanswer "github.com/kailas-cloud/portfolio-rag/internal/domain/answer"
	"github.com/kailas-cloud/portfolio-rag/internal/domain/search/request"
	searchrepo "github.com/kailas-cloud/portfolio-rag/internal/repository/search"
	"github.com/kailas-cloud/portfolio-rag/internal/resilience"
	openaiTransport "github.com/kailas-cloud/portfolio-rag/internal/transport/openai"
	answeruc "github.com/kailas-cloud/portfolio-rag/internal/usecase/answer"
	embeddinguc "github.com/kailas-cloud/portfolio-rag/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/portfolio-rag/internal/usecase/health"
	queryuc "github.com/kailas-cloud/portfolio-rag/internal/usecase/query"
	"github.com/kailas-cloud/portfolio-rag/internal/vocabulary"
)

const defaultTimeout = 10 * time.Second

// Внутренние интерфейсы для подмены в тестах.
type queryUseCase interface {
	Query(ctx context.Context, req request.Request) (queryuc.Response, error)
	Failure(err error) domanswer.Answer
}

// Client is the portfoliorag SDK entry point. It is safe for concurrent use.
type Client struct {
	querySvc    queryUseCase
	healthSvc   healthUseCase
	defaultTopK int
	maxTopK     int
	obs         *observer
}

// New wires the pipeline and checks that the search cluster is reachable.
// The provided context is used for the initial ping.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{index: searchrepo.DefaultOptions().Index}
	for _, o := range opts {
		o.apply(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	store, err := dbOpenSearch.NewStore(dbOpenSearch.Config{
		Addresses:          cfg.addrs,
		Username:           cfg.username,
		Password:           cfg.password,
		InsecureSkipVerify: cfg.insecure,
		Timeout:            defaultTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("portfoliorag: create search store: %w", err)
	}
	if err := store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("portfoliorag: search store not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	exec := resilience.NewExecutor(resilience.DefaultConfig(), nil)
	embedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.apiKey,
		BaseURL:    cfg.baseURL,
		Model:      cfg.embeddingModel,
		Dimensions: cfg.dimensions,
		Provider:   "openai",
		Executor:   exec,
	})
	generator := openaiTransport.NewGenerator(&openaiTransport.Config{
		APIKey:   cfg.apiKey,
		BaseURL:  cfg.baseURL,
		Model:    cfg.generationModel,
		Provider: "openai",
		Executor: exec,
	})

	var queryEmbedder domain.Embedder = embeddinguc.NewInstrumentedEmbedder(
		embedder, "openai", cfg.embeddingModel, cfg.dimensions, zap.NewNop(),
	)
	if cfg.queryInstruction != "" {
		queryEmbedder = domain.NewInstructionEmbedder(queryEmbedder, cfg.queryInstruction)
	}

	searchOpts := searchrepo.DefaultOptions()
	searchOpts.Index = cfg.index
	search, err := searchrepo.New(store, searchOpts, exec)
	if err != nil {
		return nil, fmt.Errorf("portfoliorag: %w", err)
	}

	vocab, err := vocabulary.Load(cfg.vocabularyPath)
	if err != nil {
		return nil, fmt.Errorf("portfoliorag: %w", err)
	}

	synth := answeruc.New(generator, domanswer.DefaultSchema(), answeruc.DefaultConfig())

	return &Client{
		querySvc:    queryuc.New(queryEmbedder, search, synth, vocab),
		healthSvc:   healthuc.New(store, nil, embedder, generator),
		defaultTopK: cfg.defaultTopK,
		maxTopK:     cfg.maxTopK,
		obs:         obs,
	}, nil
}

func (c *clientConfig) validate() error {
	switch {
	case len(c.addrs) == 0:
		return errors.New("portfoliorag: search address required (use WithOpenSearch)")
	case c.embeddingModel == "" || c.generationModel == "":
		return errors.New("portfoliorag: models required (use WithModels)")
	case c.dimensions <= 0:
		return errors.New("portfoliorag: embedding dimensions must be positive")
	case c.maxTopK > 0 && c.defaultTopK > c.maxTopK:
		return fmt.Errorf("portfoliorag: default top k %d exceeds max %d", c.defaultTopK, c.maxTopK)
	}
	return nil
}

// Query answers one question. The returned Result always carries a renderable
// Answer; when err is non-nil it is the caller-safe error envelope.
func (c *Client) Query(ctx context.Context, question string, opts ...QueryOption) (res Result, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe("query", start, err)
		c.obs.answer(string(res.Answer.Kind))
	}()

	var qc queryConfig
	for _, o := range opts {
		o(&qc)
	}

	req, err := request.New(question, qc.topK, c.defaultTopK, c.maxTopK, qc.sources)
	if err != nil {
		return Result{Answer: c.querySvc.Failure(err)}, fmt.Errorf("query: %w", err)
	}

	resp, err := c.querySvc.Query(ctx, req)
	if err != nil {
		return Result{Answer: c.querySvc.Failure(err), Intent: string(resp.Intent)}, fmt.Errorf("query: %w", err)
	}

	res = Result{Answer: resp.Answer, Intent: string(resp.Intent)}
	if qc.sources {
		res.Sources = resp.Sources
	}
	return res, nil
}
