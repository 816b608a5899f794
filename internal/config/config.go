package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries every tunable of the pipeline. The zero value is not usable;
// construct via FromEnv or Default.
type Config struct {
	DatasetPath string
	OutputPath  string
	CacheDir    string

	// Generative-text gateway (OpenAI-compatible chat completions).
	LLMGatewayURL string
	LLMAPIKey     string
	LLMModel      string

	// Embedding gateway.
	EmbedGatewayURL string
	EmbedModel      string

	// MockLLM short-circuits both providers with deterministic local output.
	MockLLM bool

	BatchSize         int           // fans per profiling request
	EmbedBatchSize    int           // texts per embedding request
	MaxRetries        int           // bounded retries per fan / per batch
	RequestsPerMinute int           // outbound rate ceiling, shared by providers
	Concurrency       int           // concurrent in-flight batches
	RequestTimeout    time.Duration // per provider call

	InactivityThreshold time.Duration // gap that closes the monetization stage

	Clusters      int   // k for the partition step
	ClusterSeed   int64 // explicit seed, never ambient randomness
	HybridEnabled bool  // build method-B embeddings
}

// Default returns the tuned defaults from the reference report.
func Default() Config {
	return Config{
		DatasetPath:         "data/fan_chat_logs.xlsx",
		OutputPath:          "outputs/fan_insights.xlsx",
		CacheDir:            "cache/llm_cache",
		LLMModel:            "gpt-4o",
		EmbedModel:          "text-embedding-3-small",
		BatchSize:           20,
		EmbedBatchSize:      20,
		MaxRetries:          3,
		RequestsPerMinute:   60,
		Concurrency:         4,
		RequestTimeout:      25 * time.Second,
		InactivityThreshold: 72 * time.Hour,
		Clusters:            5,
		ClusterSeed:         42,
		HybridEnabled:       true,
	}
}

// FromEnv overlays environment variables on the defaults.
func FromEnv() Config {
	cfg := Default()

	cfg.DatasetPath = envOr("DATASET_PATH", cfg.DatasetPath)
	cfg.OutputPath = envOr("OUTPUT_PATH", cfg.OutputPath)
	cfg.CacheDir = envOr("CACHE_DIR", cfg.CacheDir)

	cfg.LLMGatewayURL = os.Getenv("LLM_GATEWAY_URL")
	cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	cfg.LLMModel = envOr("LLM_MODEL", cfg.LLMModel)

	cfg.EmbedGatewayURL = envOr("EMBED_GATEWAY_URL", cfg.LLMGatewayURL)
	cfg.EmbedModel = envOr("EMBED_MODEL", cfg.EmbedModel)

	cfg.MockLLM = strings.EqualFold(os.Getenv("USE_MOCK_LLM"), "true")

	cfg.BatchSize = envIntOr("PROFILE_BATCH_SIZE", cfg.BatchSize)
	cfg.EmbedBatchSize = envIntOr("EMBED_BATCH_SIZE", cfg.EmbedBatchSize)
	cfg.MaxRetries = envIntOr("MAX_RETRIES", cfg.MaxRetries)
	cfg.RequestsPerMinute = envIntOr("REQUESTS_PER_MINUTE", cfg.RequestsPerMinute)
	cfg.Concurrency = envIntOr("CONCURRENCY", cfg.Concurrency)
	cfg.RequestTimeout = envDurationOr("REQUEST_TIMEOUT", cfg.RequestTimeout)

	cfg.InactivityThreshold = envDurationOr("INACTIVITY_THRESHOLD", cfg.InactivityThreshold)

	cfg.Clusters = envIntOr("CLUSTERS", cfg.Clusters)
	if v := os.Getenv("CLUSTER_SEED"); v != "" {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			cfg.ClusterSeed = parsed
		}
	}
	if v := os.Getenv("HYBRID_ENABLED"); v != "" {
		cfg.HybridEnabled = strings.EqualFold(v, "true")
	}

	// concurrency above batch size buys nothing: a batch is one request
	if cfg.Concurrency > cfg.BatchSize {
		cfg.Concurrency = cfg.BatchSize
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	return cfg
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envIntOr(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}

func envDurationOr(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if parsed, err := time.ParseDuration(strings.TrimSpace(v)); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}
