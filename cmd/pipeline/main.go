package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fan-insights-go/internal/config"
	"fan-insights-go/internal/logger"
	"fan-insights-go/internal/pipeline"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "fan-insights-go").Info("starting run")

	cfg := config.FromEnv()
	log.WithField("dataset_path", cfg.DatasetPath).
		WithField("output_path", cfg.OutputPath).
		WithField("batch_size", cfg.BatchSize).
		WithField("clusters", cfg.Clusters).
		Info("configuration loaded")

	// interruption between batches is safe: the cache is the only record of
	// completed provider work, re-running resumes where this run stopped
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.NewFromConfig(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("pipeline setup failed")
	}

	summary, err := p.Run(ctx)
	if err != nil {
		log.WithError(err).Fatal("run failed")
	}

	log.WithField("run_id", summary.RunID).
		WithField("profiled", summary.Profiled).
		WithField("served_from_cache", summary.FromCache).
		WithField("profiling_failed", summary.ProfilingFailed).
		WithField("conversation_malformed_skipped", summary.MalformedSkipped).
		Info("done")
}
