// Package profiler produces one structured FanProfile per fan at minimum
// provider cost: cache-first fingerprinting, fixed-size batched requests,
// bounded retries with per-fan fallback, and durable cache writes before any
// profile is handed downstream.
package profiler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"fan-insights-go/internal/cache"
	"fan-insights-go/internal/config"
	"fan-insights-go/internal/llm"
	"fan-insights-go/internal/logger"
	"fan-insights-go/internal/types"
)

// Input is one fan's profiled text window.
type Input struct {
	FanCreatorID string
	Text         string
}

// Stats feeds the run summary so operators can judge coverage.
type Stats struct {
	Profiled  int // fresh provider extractions
	FromCache int // served from the fingerprint store
	Failed    int // profiling_failed after exhausting retries
}

type Orchestrator struct {
	chat        llm.ChatClient
	store       cache.Store
	log         *logger.Logger
	batchSize   int
	maxRetries  int
	concurrency int

	// injected backoff policy; tests swap in a zero-wait one
	newBackOff func() backoff.BackOff
}

func New(chat llm.ChatClient, store cache.Store, cfg config.Config, log *logger.Logger) *Orchestrator {
	o := &Orchestrator{
		chat:        chat,
		store:       store,
		log:         log,
		batchSize:   cfg.BatchSize,
		maxRetries:  cfg.MaxRetries,
		concurrency: cfg.Concurrency,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxElapsedTime = 0
			return b
		},
	}
	if o.batchSize < 1 {
		o.batchSize = 1
	}
	if o.maxRetries < 1 {
		o.maxRetries = 1
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	return o
}

// attempt outcome classes; retries are driven by these values, never by
// exception-style propagation
type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeRetryable
	outcomeFatal
)

// ProfileFans returns one profile per input, in input order. Per-fan failures
// never abort the run; only cache-integrity failures (and context
// cancellation) do.
func (o *Orchestrator) ProfileFans(ctx context.Context, inputs []Input) ([]types.FanProfile, Stats, error) {
	log := o.log.WithComponent("profiler")

	var (
		mu      sync.Mutex
		stats   Stats
		results = make(map[string]types.FanProfile, len(inputs))
	)

	// cache pass: fans whose fingerprint is already committed never reach a
	// batch, which is what makes re-runs idempotent
	var pending []Input
	for _, in := range inputs {
		key := Fingerprint(in.FanCreatorID, in.Text)
		data, ok, err := o.store.Get(key)
		if err != nil {
			var corrupt *cache.CorruptionError
			if errors.As(err, &corrupt) {
				return nil, stats, fmt.Errorf("profiling aborted: %w", err)
			}
			return nil, stats, fmt.Errorf("cache lookup: %w", err)
		}
		if ok {
			var profile types.FanProfile
			if err := json.Unmarshal(data, &profile); err != nil {
				return nil, stats, fmt.Errorf("profiling aborted: %w", &cache.CorruptionError{Key: key})
			}
			profile.FanCreatorID = in.FanCreatorID
			profile.Fingerprint = key
			results[in.FanCreatorID] = profile
			stats.FromCache++
			continue
		}
		pending = append(pending, in)
	}

	log.WithField("total", len(inputs)).
		WithField("cached", stats.FromCache).
		WithField("pending", len(pending)).
		Info("profiling pass")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for start := 0; start < len(pending); start += o.batchSize {
		batch := pending[start:min(start+o.batchSize, len(pending))]
		g.Go(func() error {
			profiles, batchStats, err := o.processBatch(gctx, batch)
			if err != nil {
				return err
			}
			mu.Lock()
			for _, p := range profiles {
				results[p.FanCreatorID] = p
			}
			stats.Profiled += batchStats.Profiled
			stats.Failed += batchStats.Failed
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	out := make([]types.FanProfile, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, results[in.FanCreatorID])
	}
	return out, stats, nil
}

// processBatch issues one provider request for the whole batch, re-queues it
// on transient failure up to the retry bound, then falls back to single-fan
// requests so one bad request cannot take down every fan in it.
func (o *Orchestrator) processBatch(ctx context.Context, batch []Input) ([]types.FanProfile, Stats, error) {
	log := o.log.WithComponent("profiler").WithField("batch_size", len(batch))

	var profiles []types.FanProfile
	var stats Stats

	singles := batch
	bo := o.newBackOff()
	for attempt := 1; attempt <= o.maxRetries; attempt++ {
		paired, out, reason := o.attemptBatch(ctx, batch)
		if out == outcomeSuccess {
			var missing []Input
			for _, in := range batch {
				profile, ok := paired[in.FanCreatorID]
				if !ok {
					missing = append(missing, in)
					continue
				}
				committed, err := o.commit(in, profile)
				if err != nil {
					return nil, stats, err
				}
				profiles = append(profiles, committed)
				stats.Profiled++
			}
			singles = missing
			break
		}
		if out == outcomeFatal {
			log.WithError(reason).Warn("batch request rejected, splitting into single-fan requests")
			break
		}
		log.WithError(reason).WithField("attempt", attempt).Warn("batch request failed")
		if attempt < o.maxRetries {
			if err := sleepCtx(ctx, bo.NextBackOff()); err != nil {
				return nil, stats, err
			}
		}
	}

	for _, in := range singles {
		profile, err := o.profileSingle(ctx, in)
		if err != nil {
			return nil, stats, err
		}
		profiles = append(profiles, profile)
		if profile.Failed {
			stats.Failed++
		} else {
			stats.Profiled++
		}
	}
	return profiles, stats, nil
}

func (o *Orchestrator) attemptBatch(ctx context.Context, batch []Input) (map[string]types.FanProfile, outcome, error) {
	content, err := o.chat.Chat(ctx, systemPrompt, BuildBatchPrompt(batch))
	if err != nil {
		if ctx.Err() != nil {
			return nil, outcomeFatal, ctx.Err()
		}
		if llm.IsUnavailable(err) {
			return nil, outcomeRetryable, err
		}
		return nil, outcomeFatal, err
	}
	paired, err := ParseBatchResponse(content, batch)
	if err != nil {
		// garbage for the whole array is a batch-level failure
		return nil, outcomeRetryable, err
	}
	return paired, outcomeSuccess, nil
}

// profileSingle retries one fan up to the bound, then marks it
// profiling_failed instead of erroring: the fan still gets a text-only
// embedding downstream. Failed profiles are not cached, so a later run
// tries again.
func (o *Orchestrator) profileSingle(ctx context.Context, in Input) (types.FanProfile, error) {
	log := o.log.WithComponent("profiler").WithField("fan", in.FanCreatorID)

	bo := o.newBackOff()
	var lastErr error
	for attempt := 1; attempt <= o.maxRetries; attempt++ {
		profile, out, reason := o.attemptSingle(ctx, in)
		if out == outcomeSuccess {
			return o.commit(in, profile)
		}
		if ctx.Err() != nil {
			return types.FanProfile{}, ctx.Err()
		}
		lastErr = reason
		log.WithError(reason).WithField("attempt", attempt).Warn("single-fan profiling attempt failed")
		if out == outcomeFatal {
			break
		}
		if attempt < o.maxRetries {
			if err := sleepCtx(ctx, bo.NextBackOff()); err != nil {
				return types.FanProfile{}, err
			}
		}
	}

	log.WithError(lastErr).Warn("profiling failed, marking fan")
	return types.FanProfile{
		FanCreatorID: in.FanCreatorID,
		Fingerprint:  Fingerprint(in.FanCreatorID, in.Text),
		Failed:       true,
	}, nil
}

func (o *Orchestrator) attemptSingle(ctx context.Context, in Input) (types.FanProfile, outcome, error) {
	content, err := o.chat.Chat(ctx, systemPrompt, BuildBatchPrompt([]Input{in}))
	if err != nil {
		if ctx.Err() != nil {
			return types.FanProfile{}, outcomeFatal, ctx.Err()
		}
		if llm.IsUnavailable(err) {
			return types.FanProfile{}, outcomeRetryable, err
		}
		return types.FanProfile{}, outcomeFatal, err
	}
	profile, err := ParseSingleResponse(content, in)
	if err != nil {
		var schemaErr *SchemaValidationError
		if errors.As(err, &schemaErr) {
			return types.FanProfile{}, outcomeRetryable, err
		}
		return types.FanProfile{}, outcomeFatal, err
	}
	return profile, outcomeSuccess, nil
}

// commit makes the cache entry durable before the profile is returned, so a
// crash after a successful provider call never re-issues the request.
func (o *Orchestrator) commit(in Input, profile types.FanProfile) (types.FanProfile, error) {
	profile.FanCreatorID = in.FanCreatorID
	profile.Fingerprint = Fingerprint(in.FanCreatorID, in.Text)

	data, err := json.Marshal(profile)
	if err != nil {
		return types.FanProfile{}, fmt.Errorf("marshal profile: %w", err)
	}
	if err := o.store.Put(profile.Fingerprint, data); err != nil {
		return types.FanProfile{}, fmt.Errorf("cache write for %s: %w", in.FanCreatorID, err)
	}
	return profile, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
