package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP      HTTPConfig
	Graph     GraphConfig
	Vector    VectorConfig
	Embedding EmbeddingConfig
	LLM       LLMConfig
	Retriever RetrieverConfig
	Logging   LoggingConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MetricsEnabled    bool
	AllowedOriginsCSV string
}

// GraphConfig describes connectivity to the graph database (Neptune/Neo4j).
type GraphConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// VectorConfig describes connectivity to the pgvector document index.
type VectorConfig struct {
	PostgresURL string
	Table       string
}

// EmbeddingConfig controls the embedding service client and its cache.
type EmbeddingConfig struct {
	BaseURL   string
	Model     string
	Dimension int
	RedisAddr string
	CacheTTL  time.Duration
}

// LLMConfig controls the generation model client.
type LLMConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// RetrieverConfig carries the hybrid retriever tunables. Values are validated
// at load time; an invalid value fails startup rather than degrading a query.
type RetrieverConfig struct {
	FuzzyThreshold       float64
	MaxDepth             int
	MaxFacts             int
	DepthDecay           float64
	MaxMatchesPerMention int
	MaxSeeds             int
	TopK                 int
	MaxContextItems      int
	MaxContextChars      int
	GraphTimeout         time.Duration
	VectorTimeout        time.Duration
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	Colored       bool
	IncludeCaller bool
}

const (
	defaultHost             = "0.0.0.0"
	defaultPort             = 8080
	defaultReadTimeout      = 10 * time.Second
	defaultWriteTimeout     = 15 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "text"
	defaultGraphMaxSessions = 10

	defaultVectorTable     = "document_chunks"
	defaultEmbeddingURL    = "http://localhost:11434"
	defaultEmbeddingModel  = "nomic-embed-text"
	defaultEmbeddingDim    = 768
	defaultEmbeddingTTL    = 24 * time.Hour
	defaultLLMURL          = "http://localhost:11434"
	defaultLLMModel        = "llama3.1"
	defaultLLMTimeout      = 60 * time.Second
	defaultFuzzyThreshold  = 0.75
	defaultMaxDepth        = 2
	defaultMaxFacts        = 30
	defaultDepthDecay      = 0.5
	defaultMatchesPerMent  = 2
	defaultMaxSeeds        = 5
	defaultTopK            = 5
	defaultMaxContextItems = 20
	defaultMaxContextChars = 6000
	defaultPathTimeout     = 5 * time.Second
)

// Load reads configuration from environment variables, applying defaults.
// Retriever tunables are validated here so that a setup defect surfaces before
// the first query is processed.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Host:            valueOrDefault("SERVER_HOST", defaultHost),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			Colored:       parseBoolWithDefault("LOG_COLOR", false),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Graph: GraphConfig{
			URI:            os.Getenv("GRAPH_URI"),
			Database:       valueOrDefault("GRAPH_DATABASE", ""),
			Username:       os.Getenv("GRAPH_USERNAME"),
			Password:       os.Getenv("GRAPH_PASSWORD"),
			MaxConnections: parseIntWithDefault("GRAPH_MAX_CONNECTIONS", defaultGraphMaxSessions),
		},
		Vector: VectorConfig{
			PostgresURL: os.Getenv("VECTOR_POSTGRES_URL"),
			Table:       valueOrDefault("VECTOR_TABLE", defaultVectorTable),
		},
		Embedding: EmbeddingConfig{
			BaseURL:   valueOrDefault("EMBEDDING_URL", defaultEmbeddingURL),
			Model:     valueOrDefault("EMBEDDING_MODEL", defaultEmbeddingModel),
			Dimension: parseIntWithDefault("EMBEDDING_DIMENSION", defaultEmbeddingDim),
			RedisAddr: os.Getenv("EMBEDDING_CACHE_REDIS_ADDR"),
			CacheTTL:  defaultEmbeddingTTL,
		},
		LLM: LLMConfig{
			BaseURL: valueOrDefault("LLM_URL", defaultLLMURL),
			Model:   valueOrDefault("LLM_MODEL", defaultLLMModel),
			Timeout: defaultLLMTimeout,
		},
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	for _, item := range []struct {
		key    string
		target *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
		{"EMBEDDING_CACHE_TTL", &cfg.Embedding.CacheTTL},
		{"LLM_TIMEOUT", &cfg.LLM.Timeout},
	} {
		if v := os.Getenv(item.key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", item.key, err)
			}
			*item.target = d
		}
	}

	cfg.HTTP.MetricsEnabled = parseBoolWithDefault("SERVER_METRICS_ENABLED", false)
	cfg.HTTP.AllowedOriginsCSV = os.Getenv("SERVER_ALLOWED_ORIGINS")

	retriever, err := loadRetrieverConfig()
	if err != nil {
		return Config{}, err
	}
	cfg.Retriever = retriever

	if cfg.Embedding.Dimension <= 0 {
		return Config{}, fmt.Errorf("EMBEDDING_DIMENSION must be positive, got %d", cfg.Embedding.Dimension)
	}

	return cfg, nil
}

func loadRetrieverConfig() (RetrieverConfig, error) {
	cfg := RetrieverConfig{
		FuzzyThreshold:       defaultFuzzyThreshold,
		MaxDepth:             defaultMaxDepth,
		MaxFacts:             defaultMaxFacts,
		DepthDecay:           defaultDepthDecay,
		MaxMatchesPerMention: defaultMatchesPerMent,
		MaxSeeds:             defaultMaxSeeds,
		TopK:                 defaultTopK,
		MaxContextItems:      defaultMaxContextItems,
		MaxContextChars:      defaultMaxContextChars,
		GraphTimeout:         defaultPathTimeout,
		VectorTimeout:        defaultPathTimeout,
	}

	var err error
	if cfg.FuzzyThreshold, err = parseFloatWithDefault("RETRIEVER_FUZZY_THRESHOLD", cfg.FuzzyThreshold); err != nil {
		return RetrieverConfig{}, err
	}
	if cfg.DepthDecay, err = parseFloatWithDefault("RETRIEVER_DEPTH_DECAY", cfg.DepthDecay); err != nil {
		return RetrieverConfig{}, err
	}
	cfg.MaxDepth = parseIntWithDefault("RETRIEVER_MAX_DEPTH", cfg.MaxDepth)
	cfg.MaxFacts = parseIntWithDefault("RETRIEVER_MAX_FACTS", cfg.MaxFacts)
	cfg.MaxMatchesPerMention = parseIntWithDefault("RETRIEVER_MAX_MATCHES_PER_MENTION", cfg.MaxMatchesPerMention)
	cfg.MaxSeeds = parseIntWithDefault("RETRIEVER_MAX_SEEDS", cfg.MaxSeeds)
	cfg.TopK = parseIntWithDefault("RETRIEVER_TOP_K", cfg.TopK)
	cfg.MaxContextItems = parseIntWithDefault("RETRIEVER_MAX_CONTEXT_ITEMS", cfg.MaxContextItems)
	cfg.MaxContextChars = parseIntWithDefault("RETRIEVER_MAX_CONTEXT_CHARS", cfg.MaxContextChars)

	for _, item := range []struct {
		key    string
		target *time.Duration
	}{
		{"RETRIEVER_GRAPH_TIMEOUT", &cfg.GraphTimeout},
		{"RETRIEVER_VECTOR_TIMEOUT", &cfg.VectorTimeout},
	} {
		if v := os.Getenv(item.key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return RetrieverConfig{}, fmt.Errorf("invalid %s: %w", item.key, err)
			}
			*item.target = d
		}
	}

	if err := cfg.Validate(); err != nil {
		return RetrieverConfig{}, err
	}
	return cfg, nil
}

// Validate checks retriever tunables for configuration errors.
func (c RetrieverConfig) Validate() error {
	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 1 {
		return fmt.Errorf("fuzzy threshold must be within [0,1], got %g", c.FuzzyThreshold)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth must be >= 0, got %d", c.MaxDepth)
	}
	if c.DepthDecay <= 0 || c.DepthDecay > 1 {
		return fmt.Errorf("depth decay must be within (0,1], got %g", c.DepthDecay)
	}
	if c.MaxFacts <= 0 {
		return fmt.Errorf("max facts must be positive, got %d", c.MaxFacts)
	}
	if c.MaxMatchesPerMention <= 0 {
		return fmt.Errorf("max matches per mention must be positive, got %d", c.MaxMatchesPerMention)
	}
	if c.MaxSeeds <= 0 {
		return fmt.Errorf("max seeds must be positive, got %d", c.MaxSeeds)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top-k must be positive, got %d", c.TopK)
	}
	if c.MaxContextItems <= 0 {
		return fmt.Errorf("max context items must be positive, got %d", c.MaxContextItems)
	}
	if c.MaxContextChars <= 0 {
		return fmt.Errorf("max context chars must be positive, got %d", c.MaxContextChars)
	}
	return nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseFloatWithDefault(key string, fallback float64) (float64, error) {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		return val, nil
	}
	return fallback, nil
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
