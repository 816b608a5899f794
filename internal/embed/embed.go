// Package embed builds the per-stage vector spaces. Method A is the text-only
// embedding from the provider, memoized through the fingerprint store with the
// same at-most-once discipline as profiling. Method B concatenates the
// z-scored text embedding with a z-scored numeric profile-feature block.
package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"fan-insights-go/internal/cache"
	"fan-insights-go/internal/config"
	"fan-insights-go/internal/llm"
	"fan-insights-go/internal/logger"
	"fan-insights-go/internal/types"
)

// Item is one (fan, stage) text window to embed.
type Item struct {
	FanCreatorID string
	Stage        types.StageIndex
	Text         string
}

type Builder struct {
	client    llm.EmbedClient
	store     cache.Store
	log       *logger.Logger
	batchSize int
	namespace string // embed model participates in the fingerprint
}

func New(client llm.EmbedClient, store cache.Store, cfg config.Config, log *logger.Logger) *Builder {
	batch := cfg.EmbedBatchSize
	if batch < 1 {
		batch = 1
	}
	return &Builder{
		client:    client,
		store:     store,
		log:       log,
		batchSize: batch,
		namespace: "embed-v1:" + cfg.EmbedModel,
	}
}

// fingerprint keys the memoized embedding of one exact text.
func (b *Builder) fingerprint(text string) string {
	h := sha256.New()
	h.Write([]byte(b.namespace))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// TextEmbeddings returns one method-A vector per item, in item order. Each
// unique non-empty text hits the provider at most once ever; empty texts get
// a zero vector of the corpus dimensionality without a provider call.
func (b *Builder) TextEmbeddings(ctx context.Context, items []Item) ([]types.EmbeddingVector, error) {
	log := b.log.WithComponent("embedder")

	vecByKey := make(map[string][]float64)
	var missKeys []string
	var missTexts []string
	cached := 0

	for _, item := range items {
		if item.Text == "" {
			continue
		}
		key := b.fingerprint(item.Text)
		if _, seen := vecByKey[key]; seen {
			continue
		}
		data, ok, err := b.store.Get(key)
		if err != nil {
			var corrupt *cache.CorruptionError
			if errors.As(err, &corrupt) {
				return nil, fmt.Errorf("embedding aborted: %w", err)
			}
			return nil, fmt.Errorf("embedding cache lookup: %w", err)
		}
		if ok {
			var vec []float64
			if err := json.Unmarshal(data, &vec); err != nil {
				return nil, fmt.Errorf("embedding aborted: %w", &cache.CorruptionError{Key: key})
			}
			vecByKey[key] = vec
			cached++
			continue
		}
		vecByKey[key] = nil // placeholder marks the miss as claimed
		missKeys = append(missKeys, key)
		missTexts = append(missTexts, item.Text)
	}

	log.WithField("items", len(items)).
		WithField("cached", cached).
		WithField("pending", len(missKeys)).
		Info("embedding pass")

	for start := 0; start < len(missTexts); start += b.batchSize {
		end := min(start+b.batchSize, len(missTexts))
		vecs, err := b.client.Embed(ctx, missTexts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch: %w", err)
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("embed batch returned %d vectors for %d texts", len(vecs), end-start)
		}
		for i, vec := range vecs {
			key := missKeys[start+i]
			data, err := json.Marshal(vec)
			if err != nil {
				return nil, fmt.Errorf("marshal embedding: %w", err)
			}
			// committed before use, same rule as profiles
			if err := b.store.Put(key, data); err != nil {
				return nil, fmt.Errorf("embedding cache write: %w", err)
			}
			vecByKey[key] = vec
		}
	}

	dim := 0
	for _, vec := range vecByKey {
		if len(vec) > 0 {
			if dim == 0 {
				dim = len(vec)
			} else if len(vec) != dim {
				return nil, fmt.Errorf("embedding dimensionality mismatch: %d vs %d", len(vec), dim)
			}
		}
	}

	out := make([]types.EmbeddingVector, 0, len(items))
	for _, item := range items {
		vec := make([]float64, dim)
		if item.Text != "" {
			copy(vec, vecByKey[b.fingerprint(item.Text)])
		}
		out = append(out, types.EmbeddingVector{
			FanCreatorID: item.FanCreatorID,
			Stage:        item.Stage,
			Method:       types.MethodText,
			Vector:       vec,
		})
	}
	return out, nil
}
