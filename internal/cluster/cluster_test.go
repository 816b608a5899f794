package cluster

import (
	"math/rand"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"

	"fan-insights-go/internal/config"
	"fan-insights-go/internal/logger"
	"fan-insights-go/internal/types"
)

// twoBlobVectors builds two well-separated groups of points around (0,0) and
// (100,100) with small deterministic jitter.
func twoBlobVectors(perBlob int) []types.EmbeddingVector {
	rng := rand.New(rand.NewSource(7))
	out := make([]types.EmbeddingVector, 0, 2*perBlob)
	for blob := 0; blob < 2; blob++ {
		center := float64(blob) * 100
		for i := 0; i < perBlob; i++ {
			out = append(out, types.EmbeddingVector{
				FanCreatorID: string(rune('a'+blob)) + "_c" + string(rune('0'+i)),
				Stage:        types.StageAcquisition,
				Method:       types.MethodText,
				Vector:       []float64{center + rng.Float64(), center + rng.Float64()},
			})
		}
	}
	return out
}

func newTestEngine(k int) *Engine {
	cfg := config.Default()
	cfg.Clusters = k
	cfg.ClusterSeed = 42
	return New(cfg, logger.New())
}

func TestAssignSeparatesObviousBlobs(t *testing.T) {
	embs := twoBlobVectors(5)
	assignments, err := newTestEngine(2).Assign(embs)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if len(assignments) != 10 {
		t.Fatalf("assignments: want=10 got=%d", len(assignments))
	}

	// all of blob one share a label and differ from all of blob two
	first := assignments[0].Label
	for i, a := range assignments {
		want := first
		if i >= 5 {
			want = 1 - first
		}
		if a.Label != want {
			t.Fatalf("row %d label: want=%d got=%d", i, want, a.Label)
		}
	}
}

func TestAssignDeterministicAcrossRuns(t *testing.T) {
	embs := twoBlobVectors(4)
	a1, err := newTestEngine(2).Assign(embs)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	a2, err := newTestEngine(2).Assign(embs)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(a1, a2) {
		t.Fatalf("same vectors and seed must reproduce assignments exactly")
	}
}

func TestAssignGroupsByStageAndMethod(t *testing.T) {
	embs := []types.EmbeddingVector{
		{FanCreatorID: "a_c1", Stage: types.StageMonetization, Method: types.MethodHybrid, Vector: []float64{1, 1}},
		{FanCreatorID: "b_c1", Stage: types.StageAcquisition, Method: types.MethodText, Vector: []float64{2, 2}},
		{FanCreatorID: "c_c1", Stage: types.StageAcquisition, Method: types.MethodText, Vector: []float64{3, 3}},
	}
	assignments, err := newTestEngine(2).Assign(embs)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	// groups come back in (stage, method) order
	if assignments[0].Stage != types.StageAcquisition || assignments[2].Stage != types.StageMonetization {
		t.Fatalf("group ordering: got %+v", assignments)
	}
}

func TestAssignZeroDimensionVectors(t *testing.T) {
	embs := []types.EmbeddingVector{
		{FanCreatorID: "a_c1", Stage: types.StageAcquisition, Method: types.MethodText, Vector: nil},
		{FanCreatorID: "b_c1", Stage: types.StageAcquisition, Method: types.MethodText, Vector: nil},
	}
	assignments, err := newTestEngine(5).Assign(embs)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	for _, a := range assignments {
		if a.Label != 0 {
			t.Fatalf("degenerate input must collapse to one cluster, got label %d", a.Label)
		}
	}
}

func TestKMeansMoreClustersThanPoints(t *testing.T) {
	data := mat.NewDense(2, 2, []float64{0, 0, 10, 10})
	labels := kMeans(data, 5, rand.New(rand.NewSource(1)))
	if len(labels) != 2 {
		t.Fatalf("labels: want=2 got=%d", len(labels))
	}
	if labels[0] == labels[1] {
		t.Fatalf("distinct points with k>=n must land in distinct clusters")
	}
}

func TestProjectDimensions(t *testing.T) {
	data := mat.NewDense(6, 4, []float64{
		0, 0, 0, 0,
		1, 0, 0, 0,
		0, 1, 0, 0,
		9, 9, 9, 9,
		9, 8, 9, 9,
		8, 9, 9, 9,
	})
	p2 := project(data, 2, rand.New(rand.NewSource(42)))
	r, c := p2.Dims()
	if r != 6 || c != 2 {
		t.Fatalf("2D projection dims: want=6x2 got=%dx%d", r, c)
	}
	p3 := project(data, 3, rand.New(rand.NewSource(42)))
	if _, c = p3.Dims(); c != 3 {
		t.Fatalf("3D projection dims: want 3 cols got=%d", c)
	}

	again := project(data, 2, rand.New(rand.NewSource(42)))
	if !mat.EqualApprox(p2, again, 0) {
		t.Fatalf("projection must be deterministic under a fixed seed")
	}
}

func TestSilhouetteRange(t *testing.T) {
	data := mat.NewDense(4, 1, []float64{0, 1, 100, 101})
	s := silhouette(data, []int{0, 0, 1, 1})
	if s < 0.9 || s > 1 {
		t.Fatalf("silhouette for clean separation: want near 1 got=%v", s)
	}
}
