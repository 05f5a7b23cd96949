package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the portfolio-rag configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Search     SearchConfig     `yaml:"search"`
	Cache      CacheConfig      `yaml:"cache"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
	Resilience ResilienceConfig `yaml:"resilience"`
	Indexer    IndexerConfig    `yaml:"indexer"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	CORSOrigins     []string `yaml:"cors_origins"`
	RateRPS         float64  `yaml:"rate_rps"` // 0 = unlimited
	RateBurst       int      `yaml:"rate_burst"`
}

// SearchConfig holds OpenSearch connection and index settings.
type SearchConfig struct {
	Addrs              []string     `yaml:"addrs"`
	Username           string       `yaml:"username"`
	Password           string       `yaml:"password"`
	InsecureSkipVerify bool         `yaml:"insecure_skip_verify"`
	TimeoutSec         int          `yaml:"timeout_sec"`
	Index              string       `yaml:"index"`
	Fields             SearchFields `yaml:"fields"`
}

// SearchFields overrides index field paths. Empty values keep the defaults.
type SearchFields struct {
	Name    string `yaml:"name"`
	Content string `yaml:"content"`
	Owner   string `yaml:"owner"`
	Vector  string `yaml:"vector"`
	AppID   string `yaml:"app_id"`
	Country string `yaml:"country"`
}

// CacheConfig holds the optional embedding cache. Empty addrs disables it.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	TTLSec           int      `yaml:"ttl_sec"` // 0 = no expiry
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a cache is configured.
func (c CacheConfig) Enabled() bool { return len(c.Addrs) > 0 }

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"`
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	User             string `yaml:"user"`
}

// GenerationConfig holds chat completion settings.
type GenerationConfig struct {
	Provider  string `yaml:"provider"`
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	// Temperatures are pointers so an explicit 0 (deterministic) survives defaults.
	Temperature               *float32 `yaml:"temperature"`
	ConversationalMaxTokens   int      `yaml:"conversational_max_tokens"`
	ConversationalTemperature *float32 `yaml:"conversational_temperature"`
	// JSONMode asks the provider for a JSON object response. Disable for
	// endpoints that reject response_format.
	JSONMode *bool `yaml:"json_mode"`
}

// RetrievalConfig tunes hybrid search.
type RetrievalConfig struct {
	TopK              int          `yaml:"top_k"`
	MaxTopK           int          `yaml:"max_top_k"`
	Overfetch         int          `yaml:"overfetch"`
	CountScope        string       `yaml:"count_scope"` // matched | filtered
	MaxQuestionLength int          `yaml:"max_question_length"`
	Boosts            BoostsConfig `yaml:"boosts"`
}

// BoostsConfig holds sub-query weights.
type BoostsConfig struct {
	ExactName  float64 `yaml:"exact_name"`
	Name       float64 `yaml:"name"`
	Phrase     float64 `yaml:"phrase"`
	Content    float64 `yaml:"content"`
	MultiMatch float64 `yaml:"multi_match"`
}

// VocabularyConfig points at an optional keyword table override.
type VocabularyConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// ResilienceConfig holds retry and circuit breaker knobs.
type ResilienceConfig struct {
	RetryMaxAttempts      int     `yaml:"retry_max_attempts"`
	RetryInitialBackoffMs int     `yaml:"retry_initial_backoff_ms"`
	RetryMaxBackoffMs     int     `yaml:"retry_max_backoff_ms"`
	RetryMultiplier       float64 `yaml:"retry_multiplier"`
	BreakerEnabled        *bool   `yaml:"breaker_enabled"`
	BreakerMinRequests    uint32  `yaml:"breaker_min_requests"`
	BreakerFailureRatio   float64 `yaml:"breaker_failure_ratio"`
	BreakerOpenTimeoutSec int     `yaml:"breaker_open_timeout_sec"`
	BreakerHalfOpenCalls  uint32  `yaml:"breaker_half_open_calls"`
}

// IndexerConfig tunes the offline ingestion job.
type IndexerConfig struct {
	BatchSize     int `yaml:"batch_size"`
	Concurrency   int `yaml:"concurrency"`
	MaxChunkChars int `yaml:"max_chunk_chars"`
	MinChunkChars int `yaml:"min_chunk_chars"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	// Local .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables, decodes, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60 // generation dominates latency
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Search.TimeoutSec <= 0 {
		c.Search.TimeoutSec = 10
	}
	if c.Search.Index == "" {
		c.Search.Index = "portfolio-apps"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1024
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = c.Embedding.Provider
	}
	if c.Generation.BaseURL == "" {
		c.Generation.BaseURL = c.Embedding.BaseURL
	}
	if c.Generation.APIKey == "" {
		c.Generation.APIKey = c.Embedding.APIKey
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = 2000
	}
	if c.Generation.Temperature == nil {
		t := float32(0.3)
		c.Generation.Temperature = &t
	}
	if c.Generation.ConversationalMaxTokens <= 0 {
		c.Generation.ConversationalMaxTokens = 500
	}
	if c.Generation.ConversationalTemperature == nil {
		t := float32(0.7)
		c.Generation.ConversationalTemperature = &t
	}
	if c.Generation.JSONMode == nil {
		on := true
		c.Generation.JSONMode = &on
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 5
	}
	if c.Retrieval.MaxTopK <= 0 {
		c.Retrieval.MaxTopK = 50
	}
	if c.Retrieval.Overfetch <= 0 {
		c.Retrieval.Overfetch = 3
	}
	if c.Retrieval.CountScope == "" {
		c.Retrieval.CountScope = "matched"
	}
	if c.Retrieval.MaxQuestionLength <= 0 {
		c.Retrieval.MaxQuestionLength = 1000
	}
	b := &c.Retrieval.Boosts
	if b.ExactName <= 0 {
		b.ExactName = 10
	}
	if b.Name <= 0 {
		b.Name = 5
	}
	if b.Phrase <= 0 {
		b.Phrase = 3
	}
	if b.Content <= 0 {
		b.Content = 2
	}
	if b.MultiMatch <= 0 {
		b.MultiMatch = 1.5
	}
	r := &c.Resilience
	if r.RetryMaxAttempts <= 0 {
		r.RetryMaxAttempts = 1
	}
	if r.RetryInitialBackoffMs <= 0 {
		r.RetryInitialBackoffMs = 100
	}
	if r.RetryMaxBackoffMs <= 0 {
		r.RetryMaxBackoffMs = 400
	}
	if r.RetryMultiplier <= 0 {
		r.RetryMultiplier = 2
	}
	if r.BreakerEnabled == nil {
		on := true
		r.BreakerEnabled = &on
	}
	if r.BreakerMinRequests == 0 {
		r.BreakerMinRequests = 10
	}
	if r.BreakerFailureRatio <= 0 {
		r.BreakerFailureRatio = 0.5
	}
	if r.BreakerOpenTimeoutSec <= 0 {
		r.BreakerOpenTimeoutSec = 30
	}
	if r.BreakerHalfOpenCalls == 0 {
		r.BreakerHalfOpenCalls = 2
	}
	if c.Indexer.BatchSize <= 0 {
		c.Indexer.BatchSize = 10
	}
	if c.Indexer.Concurrency <= 0 {
		c.Indexer.Concurrency = 4
	}
	if c.Indexer.MaxChunkChars <= 0 {
		c.Indexer.MaxChunkChars = 500
	}
	if c.Indexer.MinChunkChars <= 0 {
		c.Indexer.MinChunkChars = 50
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.RateRPS < 0 {
		return fmt.Errorf("http.rate_rps must be >= 0, got %v", c.HTTP.RateRPS)
	}
	if len(c.Search.Addrs) == 0 {
		return fmt.Errorf("search.addrs is required")
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Generation.Model == "" {
		return fmt.Errorf("generation.model is required")
	}
	if c.Retrieval.TopK > c.Retrieval.MaxTopK {
		return fmt.Errorf("retrieval.top_k (%d) must not exceed retrieval.max_top_k (%d)",
			c.Retrieval.TopK, c.Retrieval.MaxTopK)
	}
	switch c.Retrieval.CountScope {
	case "matched", "filtered":
		// ok
	default:
		return fmt.Errorf(
			"retrieval.count_scope must be \"matched\" or \"filtered\", got %q", c.Retrieval.CountScope,
		)
	}
	if c.Resilience.BreakerFailureRatio > 1 {
		return fmt.Errorf("resilience.breaker_failure_ratio must be in (0, 1], got %v",
			c.Resilience.BreakerFailureRatio)
	}
	if c.Indexer.MinChunkChars >= c.Indexer.MaxChunkChars {
		return fmt.Errorf("indexer.min_chunk_chars (%d) must be below indexer.max_chunk_chars (%d)",
			c.Indexer.MinChunkChars, c.Indexer.MaxChunkChars)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
