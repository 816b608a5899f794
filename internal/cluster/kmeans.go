package cluster

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

const (
	maxIterations = 100
	tolerance     = 1e-6
)

// kMeans partitions the rows of data into k clusters. Everything random flows
// from the explicit source, so a fixed seed reproduces labels exactly.
func kMeans(data *mat.Dense, k int, rng *rand.Rand) []int {
	n, d := data.Dims()
	if n == 0 {
		return nil
	}
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}

	centroids := initCentroidsPlusPlus(data, k, rng)
	assignments := assignRows(data, centroids)

	for iter := 0; iter < maxIterations; iter++ {
		newCentroids := updateCentroids(data, assignments, k, d)

		change := 0.0
		for i := 0; i < k; i++ {
			change += squaredDistance(centroids.RawRowView(i), newCentroids.RawRowView(i))
		}
		centroids = newCentroids

		newAssignments := assignRows(data, centroids)
		converged := true
		for i := range assignments {
			if assignments[i] != newAssignments[i] {
				converged = false
				break
			}
		}
		assignments = newAssignments

		if converged || change < tolerance {
			break
		}
	}
	return assignments
}

// initCentroidsPlusPlus seeds centroids k-means++ style: first pick uniform,
// following picks weighted by squared distance to the nearest chosen one.
func initCentroidsPlusPlus(data *mat.Dense, k int, rng *rand.Rand) *mat.Dense {
	n, d := data.Dims()
	centroids := mat.NewDense(k, d, nil)

	first := rng.Intn(n)
	centroids.SetRow(0, data.RawRowView(first))

	dists := make([]float64, n)
	for chosen := 1; chosen < k; chosen++ {
		total := 0.0
		for i := 0; i < n; i++ {
			best := math.Inf(1)
			for c := 0; c < chosen; c++ {
				if dist := squaredDistance(data.RawRowView(i), centroids.RawRowView(c)); dist < best {
					best = dist
				}
			}
			dists[i] = best
			total += best
		}
		if total == 0 {
			// all remaining points coincide with a centroid
			centroids.SetRow(chosen, data.RawRowView(rng.Intn(n)))
			continue
		}
		target := rng.Float64() * total
		cum := 0.0
		pick := n - 1
		for i := 0; i < n; i++ {
			cum += dists[i]
			if cum >= target {
				pick = i
				break
			}
		}
		centroids.SetRow(chosen, data.RawRowView(pick))
	}
	return centroids
}

func assignRows(data, centroids *mat.Dense) []int {
	n, _ := data.Dims()
	k, _ := centroids.Dims()
	out := make([]int, n)
	for i := 0; i < n; i++ {
		best := math.Inf(1)
		for c := 0; c < k; c++ {
			if dist := squaredDistance(data.RawRowView(i), centroids.RawRowView(c)); dist < best {
				best = dist
				out[i] = c
			}
		}
	}
	return out
}

func updateCentroids(data *mat.Dense, assignments []int, k, d int) *mat.Dense {
	centroids := mat.NewDense(k, d, nil)
	counts := make([]int, k)
	for i, c := range assignments {
		counts[c]++
		row := data.RawRowView(i)
		for j := 0; j < d; j++ {
			centroids.Set(c, j, centroids.At(c, j)+row[j])
		}
	}
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			continue
		}
		for j := 0; j < d; j++ {
			centroids.Set(c, j, centroids.At(c, j)/float64(counts[c]))
		}
	}
	return centroids
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}
