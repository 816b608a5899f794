package cluster

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Elbow/silhouette numbers are computed once per run and logged for the
// operator; they never feed back into the chosen k automatically.

// wcss is the within-cluster sum of squares for one partitioning.
func wcss(data *mat.Dense, assignments []int, k int) float64 {
	n, d := data.Dims()
	centroids := updateCentroids(data, assignments, k, d)
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += squaredDistance(data.RawRowView(i), centroids.RawRowView(assignments[i]))
	}
	return sum
}

// elbowCurve runs k-means for each candidate k and reports WCSS per k.
func elbowCurve(data *mat.Dense, maxK int, seed int64) map[int]float64 {
	n, _ := data.Dims()
	out := make(map[int]float64)
	for k := 2; k <= maxK && k <= n; k++ {
		rng := rand.New(rand.NewSource(seed))
		assignments := kMeans(data, k, rng)
		out[k] = wcss(data, assignments, k)
	}
	return out
}

// silhouette is the mean silhouette coefficient over all rows: (b-a)/max(a,b)
// with a = mean intra-cluster distance, b = mean distance to the nearest
// other cluster.
func silhouette(data *mat.Dense, assignments []int) float64 {
	n, _ := data.Dims()
	if n < 2 {
		return 0
	}

	k := 0
	for _, c := range assignments {
		if c+1 > k {
			k = c + 1
		}
	}
	if k < 2 {
		return 0
	}

	counts := make([]int, k)
	for _, c := range assignments {
		counts[c]++
	}

	total := 0.0
	scored := 0
	sums := make([]float64, k)
	for i := 0; i < n; i++ {
		own := assignments[i]
		if counts[own] < 2 {
			continue
		}
		for c := range sums {
			sums[c] = 0
		}
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			sums[assignments[j]] += math.Sqrt(squaredDistance(data.RawRowView(i), data.RawRowView(j)))
		}

		a := sums[own] / float64(counts[own]-1)
		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == own || counts[c] == 0 {
				continue
			}
			if mean := sums[c] / float64(counts[c]); mean < b {
				b = mean
			}
		}
		if math.IsInf(b, 1) {
			continue
		}
		if denom := math.Max(a, b); denom > 0 {
			total += (b - a) / denom
			scored++
		}
	}
	if scored == 0 {
		return 0
	}
	return total / float64(scored)
}
