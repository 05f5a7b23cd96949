package portfoliorag

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	username string
	password string
	insecure bool
	index    string

	apiKey           string
	baseURL          string
	embeddingModel   string
	generationModel  string
	dimensions       int
	queryInstruction string

	vocabularyPath string
	defaultTopK    int
	maxTopK        int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithOpenSearch sets the search cluster addresses and credentials.
func WithOpenSearch(addrs []string, username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = addrs
		c.username = username
		c.password = password
	})
}

// WithInsecureTLS skips certificate verification. Local clusters only.
func WithInsecureTLS() Option {
	return optionFunc(func(c *clientConfig) {
		c.insecure = true
	})
}

// WithIndex overrides the index name. Default: "portfolio-apps".
func WithIndex(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.index = name
	})
}

// WithOpenAI sets the OpenAI-compatible endpoint. An empty baseURL uses api.openai.com.
func WithOpenAI(apiKey, baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = apiKey
		c.baseURL = baseURL
	})
}

// WithModels sets the embedding and chat models. dimensions must match the index mapping.
func WithModels(embedding, generation string, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.embeddingModel = embedding
		c.generationModel = generation
		c.dimensions = dimensions
	})
}

// WithQueryInstruction prefixes every embedded question (e.g. "query: ").
func WithQueryInstruction(instruction string) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryInstruction = instruction
	})
}

// WithVocabularyFile loads keyword tables from a YAML override.
func WithVocabularyFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.vocabularyPath = path
	})
}

// WithTopK sets the default and maximum number of retrieved chunks. Defaults: 5 and 50.
func WithTopK(defaultTopK, maxTopK int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultTopK = defaultTopK
		c.maxTopK = maxTopK
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// QueryOption tunes a single Query call.
type QueryOption func(*queryConfig)

type queryConfig struct {
	topK    int
	sources bool
}

// WithK sets how many chunks to retrieve. Values above the maximum are clamped.
func WithK(k int) QueryOption {
	return func(q *queryConfig) { q.topK = k }
}

// WithSources returns the retrieved chunks alongside the answer.
func WithSources() QueryOption {
	return func(q *queryConfig) { q.sources = true }
}
