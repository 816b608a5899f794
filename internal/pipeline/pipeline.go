// Package pipeline wires the full run: load chat logs, segment into stages,
// extract features, profile fans through the cached orchestrator, build both
// embedding spaces, cluster, and write the handoff workbook. The cache is the
// only authoritative record of completed provider work, so an interrupted run
// is resumed by simply running again.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fan-insights-go/internal/cache"
	"fan-insights-go/internal/cluster"
	"fan-insights-go/internal/config"
	"fan-insights-go/internal/dataset"
	"fan-insights-go/internal/embed"
	"fan-insights-go/internal/features"
	"fan-insights-go/internal/llm"
	"fan-insights-go/internal/logger"
	"fan-insights-go/internal/profiler"
	"fan-insights-go/internal/segment"
	"fan-insights-go/internal/types"
)

type Pipeline struct {
	cfg   config.Config
	log   *logger.Logger
	chat  llm.ChatClient
	embed llm.EmbedClient
	store cache.Store
}

// New assembles a pipeline from explicit collaborators; tests inject fakes.
func New(cfg config.Config, log *logger.Logger, chat llm.ChatClient, embedClient llm.EmbedClient, store cache.Store) *Pipeline {
	return &Pipeline{cfg: cfg, log: log, chat: chat, embed: embedClient, store: store}
}

// NewFromConfig wires the real collaborators: the gateway clients (or the
// deterministic mock when USE_MOCK_LLM=true) and the file-backed cache.
func NewFromConfig(cfg config.Config, log *logger.Logger) (*Pipeline, error) {
	store, err := cache.NewFileStore(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	if cfg.MockLLM {
		log.WithComponent("pipeline").Info("mock LLM mode ON - no provider calls will be made")
		mock := llm.NewMockClient()
		return New(cfg, log, mock, mock, store), nil
	}
	client, err := llm.NewClient(cfg, log)
	if err != nil {
		return nil, err
	}
	return New(cfg, log, client, client, store), nil
}

// Run executes the whole pipeline once and reports coverage counts. Per-fan
// and per-conversation failures never abort the run; cache corruption does.
func (p *Pipeline) Run(ctx context.Context) (types.RunSummary, error) {
	runID := uuid.NewString()
	log := p.log.WithComponent("pipeline").WithField("run_id", runID)
	summary := types.RunSummary{RunID: runID}

	conversations, err := dataset.Load(p.cfg.DatasetPath)
	if err != nil {
		return summary, fmt.Errorf("load dataset: %w", err)
	}
	log.WithField("conversations", len(conversations)).Info("dataset loaded")

	// malformed conversations are skipped and counted, never repaired
	valid := conversations[:0]
	for _, conv := range conversations {
		if err := segment.Validate(conv); err != nil {
			var malformed *segment.MalformedConversationError
			if errors.As(err, &malformed) {
				log.WithError(err).Warn("skipping malformed conversation")
				summary.MalformedSkipped++
				continue
			}
			return summary, err
		}
		valid = append(valid, conv)
	}
	summary.Conversations = len(valid)

	var featureTable []types.FeatureVector
	var embedItems []embed.Item
	for _, conv := range valid {
		for stage := range segment.Stages(conv, p.cfg.InactivityThreshold) {
			featureTable = append(featureTable, features.Extract(stage))
			embedItems = append(embedItems, embed.Item{
				FanCreatorID: stage.FanCreatorID,
				Stage:        stage.Index,
				Text:         stage.FanText(),
			})
		}
	}
	log.WithField("stages", len(featureTable)).Info("stages segmented")

	inputs := make([]profiler.Input, 0, len(valid))
	for _, conv := range valid {
		inputs = append(inputs, profiler.Input{
			FanCreatorID: conv.FanCreatorID(),
			Text:         conv.FanText(),
		})
	}
	orch := profiler.New(p.chat, p.store, p.cfg, p.log)
	profiles, stats, err := orch.ProfileFans(ctx, inputs)
	if err != nil {
		return summary, err
	}
	summary.Profiled = stats.Profiled
	summary.FromCache = stats.FromCache
	summary.ProfilingFailed = stats.Failed

	builder := embed.New(p.embed, p.store, p.cfg, p.log)
	methodA, err := builder.TextEmbeddings(ctx, embedItems)
	if err != nil {
		return summary, err
	}
	embeddings := methodA
	if p.cfg.HybridEnabled {
		methodB, err := builder.Hybrid(methodA, featureTable, profiles)
		if err != nil {
			return summary, err
		}
		embeddings = append(embeddings, methodB...)
	}
	summary.Embedded = len(embeddings)

	engine := cluster.New(p.cfg, p.log)
	assignments, err := engine.Assign(embeddings)
	if err != nil {
		return summary, err
	}
	summary.Assignments = len(assignments)

	if err := dataset.WriteWorkbook(p.cfg.OutputPath, featureTable, embeddings, assignments); err != nil {
		return summary, err
	}

	// the coverage report operators check before trusting cluster output
	log.WithField("profiled", summary.Profiled).
		WithField("served_from_cache", summary.FromCache).
		WithField("profiling_failed", summary.ProfilingFailed).
		WithField("conversation_malformed_skipped", summary.MalformedSkipped).
		WithField("embedded", summary.Embedded).
		WithField("cluster_assignments", summary.Assignments).
		Info("run complete")

	return summary, nil
}
