// Package cluster partitions the embedding space per stage and per method:
// seeded k-means over the full-dimensional vectors, plus 2D/3D
// neighborhood-preserving projections for the assignment table. The seed is
// an explicit configuration value; nothing here touches ambient randomness.
package cluster

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"fan-insights-go/internal/config"
	"fan-insights-go/internal/logger"
	"fan-insights-go/internal/types"
)

type Engine struct {
	k    int
	seed int64
	log  *logger.Logger
}

func New(cfg config.Config, log *logger.Logger) *Engine {
	k := cfg.Clusters
	if k < 1 {
		k = 1
	}
	return &Engine{k: k, seed: cfg.ClusterSeed, log: log}
}

type groupKey struct {
	stage  types.StageIndex
	method types.Method
}

// Assign clusters every (stage, method) group independently and returns one
// assignment per input vector. Re-running with the same vectors and seed
// reproduces labels exactly; label values themselves carry no meaning.
func (e *Engine) Assign(embeddings []types.EmbeddingVector) ([]types.ClusterAssignment, error) {
	groups := make(map[groupKey][]types.EmbeddingVector)
	var order []groupKey
	for _, emb := range embeddings {
		key := groupKey{emb.Stage, emb.Method}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], emb)
	}
	sort.Slice(order, func(a, b int) bool {
		if order[a].stage != order[b].stage {
			return order[a].stage < order[b].stage
		}
		return order[a].method < order[b].method
	})

	var out []types.ClusterAssignment
	for _, key := range order {
		assignments, err := e.assignGroup(key, groups[key])
		if err != nil {
			return nil, err
		}
		out = append(out, assignments...)
	}
	return out, nil
}

func (e *Engine) assignGroup(key groupKey, embs []types.EmbeddingVector) ([]types.ClusterAssignment, error) {
	log := e.log.WithComponent("cluster").
		WithField("stage", int(key.stage)).
		WithField("method", string(key.method))

	n := len(embs)
	dim := len(embs[0].Vector)
	for _, emb := range embs {
		if len(emb.Vector) != dim {
			return nil, fmt.Errorf("stage %d method %s: mixed dimensionality %d vs %d",
				key.stage, key.method, len(emb.Vector), dim)
		}
	}
	if dim == 0 {
		// nothing to partition on; degenerate single cluster
		out := make([]types.ClusterAssignment, n)
		for i, emb := range embs {
			out[i] = types.ClusterAssignment{FanCreatorID: emb.FanCreatorID, Stage: emb.Stage, Method: emb.Method}
		}
		return out, nil
	}

	data := mat.NewDense(n, dim, nil)
	for i, emb := range embs {
		data.SetRow(i, emb.Vector)
	}

	labels := kMeans(data, e.k, rand.New(rand.NewSource(e.seed)))

	// diagnostics only: logged for the operator, never auto-applied
	if n > 2 {
		log.WithField("silhouette", silhouette(data, labels)).
			WithField("wcss_by_k", fmt.Sprintf("%v", elbowCurve(data, 8, e.seed))).
			Info("clustering diagnostics")
	}

	coords2 := project(data, 2, rand.New(rand.NewSource(e.seed)))
	coords3 := project(data, 3, rand.New(rand.NewSource(e.seed)))

	out := make([]types.ClusterAssignment, n)
	for i, emb := range embs {
		out[i] = types.ClusterAssignment{
			FanCreatorID: emb.FanCreatorID,
			Stage:        emb.Stage,
			Method:       emb.Method,
			Label:        labels[i],
			X:            coords2.At(i, 0),
			Y:            coords2.At(i, 1),
			Z:            coords3.At(i, 2),
		}
	}
	log.WithField("vectors", n).WithField("clusters", e.k).Info("group clustered")
	return out, nil
}
