package embed

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"fan-insights-go/internal/types"
)

// Normalization for method B is z-score, column-wise across the whole corpus,
// applied independently to the text block and the profile-feature block
// before concatenation. This is the single place that decision lives.

// profileFeatureColumns extends the per-stage numeric record with numeric
// encodings of the extracted profile.
func profileFeatureColumns() int {
	return len(types.FeatureColumns()) + 4
}

func profileFeatureValues(fv types.FeatureVector, p types.FanProfile) []float64 {
	vals := fv.Values()
	return append(vals,
		float64(len(p.PersonalityTraits)),
		float64(len(p.EmotionalNeeds)),
		float64(len(p.PurchaseMotivations)),
		float64(len(p.LifeEvents)),
	)
}

// Hybrid builds method-B vectors from the method-A vectors. Fans whose
// profiling failed (or whose features are absent) get the normalized text
// block zero-padded to the hybrid dimensionality and a profile_missing
// marker, so every fan survives into clustering with identical
// dimensionality.
func (b *Builder) Hybrid(textVecs []types.EmbeddingVector, feats []types.FeatureVector, profiles []types.FanProfile) ([]types.EmbeddingVector, error) {
	if len(textVecs) == 0 {
		return nil, nil
	}

	textDim := len(textVecs[0].Vector)
	for _, tv := range textVecs {
		if len(tv.Vector) != textDim {
			return nil, fmt.Errorf("method-A dimensionality mismatch: %d vs %d", len(tv.Vector), textDim)
		}
	}

	featByKey := make(map[string]types.FeatureVector, len(feats))
	for _, fv := range feats {
		featByKey[stageKey(fv.FanCreatorID, fv.Stage)] = fv
	}
	profByFan := make(map[string]types.FanProfile, len(profiles))
	for _, p := range profiles {
		if !p.Failed {
			profByFan[p.FanCreatorID] = p
		}
	}

	featDim := profileFeatureColumns()

	// assemble both blocks row-aligned with textVecs
	textBlock := make([][]float64, len(textVecs))
	featBlock := make([][]float64, len(textVecs))
	missing := make([]bool, len(textVecs))
	for i, tv := range textVecs {
		textBlock[i] = tv.Vector
		fv, haveFeat := featByKey[stageKey(tv.FanCreatorID, tv.Stage)]
		profile, haveProf := profByFan[tv.FanCreatorID]
		if !haveFeat || !haveProf {
			missing[i] = true
			featBlock[i] = nil
			continue
		}
		featBlock[i] = profileFeatureValues(fv, profile)
	}

	normText := zscoreColumns(textBlock, textDim, nil)
	normFeat := zscoreColumns(featBlock, featDim, missing)

	out := make([]types.EmbeddingVector, 0, len(textVecs))
	for i, tv := range textVecs {
		vec := make([]float64, 0, textDim+featDim)
		vec = append(vec, normText[i]...)
		if missing[i] {
			vec = append(vec, make([]float64, featDim)...)
		} else {
			vec = append(vec, normFeat[i]...)
		}
		out = append(out, types.EmbeddingVector{
			FanCreatorID:   tv.FanCreatorID,
			Stage:          tv.Stage,
			Method:         types.MethodHybrid,
			Vector:         vec,
			ProfileMissing: missing[i],
		})
	}
	return out, nil
}

func stageKey(fan string, stage types.StageIndex) string {
	return fmt.Sprintf("%s|%d", fan, stage)
}

// zscoreColumns normalizes each column over the rows present (skip marks
// excluded rows). Zero-variance columns come out as zeros rather than NaN.
func zscoreColumns(rows [][]float64, dim int, skip []bool) [][]float64 {
	col := make([]float64, 0, len(rows))
	means := make([]float64, dim)
	stds := make([]float64, dim)

	for j := 0; j < dim; j++ {
		col = col[:0]
		for i, row := range rows {
			if row == nil || (skip != nil && skip[i]) {
				continue
			}
			col = append(col, row[j])
		}
		if len(col) == 0 {
			means[j], stds[j] = 0, 0
			continue
		}
		means[j], stds[j] = stat.MeanStdDev(col, nil)
		if math.IsNaN(stds[j]) {
			stds[j] = 0
		}
	}

	out := make([][]float64, len(rows))
	for i, row := range rows {
		if row == nil || (skip != nil && skip[i]) {
			continue
		}
		norm := make([]float64, dim)
		for j := 0; j < dim; j++ {
			if stds[j] > 0 {
				norm[j] = (row[j] - means[j]) / stds[j]
			}
		}
		out[i] = norm
	}
	return out
}
