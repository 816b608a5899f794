package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.BatchSize != 20 || cfg.MaxRetries != 3 {
		t.Fatalf("profiling defaults: got %+v", cfg)
	}
	if cfg.InactivityThreshold != 72*time.Hour {
		t.Fatalf("inactivity threshold: want=72h got=%v", cfg.InactivityThreshold)
	}
	if cfg.Clusters != 5 || cfg.ClusterSeed != 42 {
		t.Fatalf("clustering defaults: got %+v", cfg)
	}
	if !cfg.HybridEnabled {
		t.Fatalf("hybrid embeddings must default on")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PROFILE_BATCH_SIZE", "8")
	t.Setenv("INACTIVITY_THRESHOLD", "48h")
	t.Setenv("CLUSTERS", "3")
	t.Setenv("CLUSTER_SEED", "-7")
	t.Setenv("USE_MOCK_LLM", "TRUE")
	t.Setenv("HYBRID_ENABLED", "false")

	cfg := FromEnv()
	if cfg.BatchSize != 8 {
		t.Fatalf("batch size: want=8 got=%d", cfg.BatchSize)
	}
	if cfg.InactivityThreshold != 48*time.Hour {
		t.Fatalf("inactivity threshold: want=48h got=%v", cfg.InactivityThreshold)
	}
	if cfg.Clusters != 3 || cfg.ClusterSeed != -7 {
		t.Fatalf("clustering overrides: got %+v", cfg)
	}
	if !cfg.MockLLM {
		t.Fatalf("USE_MOCK_LLM=TRUE must enable the mock provider")
	}
	if cfg.HybridEnabled {
		t.Fatalf("HYBRID_ENABLED=false must disable method B")
	}
}

func TestFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("MAX_RETRIES", "lots")
	t.Setenv("REQUEST_TIMEOUT", "-5s")

	cfg := FromEnv()
	if cfg.MaxRetries != 3 {
		t.Fatalf("bad int must keep default: got %d", cfg.MaxRetries)
	}
	if cfg.RequestTimeout != 25*time.Second {
		t.Fatalf("negative duration must keep default: got %v", cfg.RequestTimeout)
	}
}

func TestConcurrencyCappedToBatchSize(t *testing.T) {
	t.Setenv("PROFILE_BATCH_SIZE", "2")
	t.Setenv("CONCURRENCY", "16")

	cfg := FromEnv()
	if cfg.Concurrency != 2 {
		t.Fatalf("concurrency cap: want=2 got=%d", cfg.Concurrency)
	}
}
