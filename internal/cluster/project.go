package cluster

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

const (
	projectNeighbors  = 10
	projectIterations = 60
)

// project maps rows of data into outDim coordinates for plotting: PCA gives
// the initial layout, then a seeded attraction/repulsion pass pulls each
// point toward its nearest neighbors from the ORIGINAL space, so local
// neighborhoods survive the projection. Deterministic for a fixed seed.
func project(data *mat.Dense, outDim int, rng *rand.Rand) *mat.Dense {
	n, d := data.Dims()
	coords := pcaInit(data, outDim)
	if n <= projectNeighbors+1 || d == 0 {
		return coords
	}

	neighbors := nearestNeighbors(data, projectNeighbors)

	rate := 0.1
	for iter := 0; iter < projectIterations; iter++ {
		for i := 0; i < n; i++ {
			yi := coords.RawRowView(i)

			// attraction toward the high-dimensional neighborhood
			for _, j := range neighbors[i] {
				yj := coords.RawRowView(j)
				for t := 0; t < outDim; t++ {
					yi[t] += rate * (yj[t] - yi[t]) / float64(len(neighbors[i]))
				}
			}

			// repulsion from one sampled far point keeps clusters apart
			j := rng.Intn(n)
			if j != i && !contains(neighbors[i], j) {
				yj := coords.RawRowView(j)
				dist := math.Sqrt(squaredDistance(yi, yj)) + 1e-9
				for t := 0; t < outDim; t++ {
					yi[t] += rate * (yi[t] - yj[t]) / dist * 0.1
				}
			}
		}
		rate *= 0.97
	}
	return coords
}

// pcaInit centers the data and projects onto the top outDim right-singular
// vectors. Narrow inputs are zero-padded to outDim.
func pcaInit(data *mat.Dense, outDim int) *mat.Dense {
	n, d := data.Dims()
	out := mat.NewDense(n, outDim, nil)
	if n == 0 || d == 0 {
		return out
	}

	centered := mat.NewDense(n, d, nil)
	means := make([]float64, d)
	for j := 0; j < d; j++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += data.At(i, j)
		}
		means[j] = sum / float64(n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			centered.Set(i, j, data.At(i, j)-means[j])
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(centered, mat.SVDThin); !ok {
		return out
	}
	var v mat.Dense
	svd.VTo(&v)

	// thin V has min(n, d) columns
	_, vc := v.Dims()
	keep := min(outDim, vc)
	for i := 0; i < n; i++ {
		for t := 0; t < keep; t++ {
			sum := 0.0
			for j := 0; j < d; j++ {
				sum += centered.At(i, j) * v.At(j, t)
			}
			out.Set(i, t, sum)
		}
	}
	return out
}

// nearestNeighbors returns the k nearest row indexes per row, euclidean.
func nearestNeighbors(data *mat.Dense, k int) [][]int {
	n, _ := data.Dims()
	if k >= n {
		k = n - 1
	}
	out := make([][]int, n)
	type pair struct {
		idx  int
		dist float64
	}
	dists := make([]pair, 0, n)
	for i := 0; i < n; i++ {
		dists = dists[:0]
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			dists = append(dists, pair{j, squaredDistance(data.RawRowView(i), data.RawRowView(j))})
		}
		sort.Slice(dists, func(a, b int) bool {
			if dists[a].dist != dists[b].dist {
				return dists[a].dist < dists[b].dist
			}
			return dists[a].idx < dists[b].idx
		})
		nn := make([]int, k)
		for t := 0; t < k; t++ {
			nn[t] = dists[t].idx
		}
		out[i] = nn
	}
	return out
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
