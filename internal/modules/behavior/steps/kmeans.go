package steps

import (
	"math"
	"math/rand"
)

// clusterSeed fixes every stochastic choice in training (k-means init,
// representative sampling) so identical inputs reproduce identical runs.
const clusterSeed = 42

const kmeansMaxIterations = 100

// runKMeans is deterministic k-means++: the seeded rng picks the first
// centroid, the remaining ones are sampled proportionally to squared
// distance, then Lloyd iterations run to convergence or the cap. Inertia is
// the summed squared distance of every point to its centroid.
func runKMeans(data [][]float64, k int, seed int64) (labels []int, centroids [][]float64, inertia float64) {
	n := len(data)
	if n == 0 {
		return nil, nil, 0
	}
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}

	rng := rand.New(rand.NewSource(seed))

	centroids = make([][]float64, 0, k)
	first := rng.Intn(n)
	centroids = append(centroids, append([]float64(nil), data[first]...))
	dists := make([]float64, n)
	for len(centroids) < k {
		var total float64
		for i := range data {
			best := math.Inf(1)
			for _, c := range centroids {
				if d := squaredDistance(data[i], c); d < best {
					best = d
				}
			}
			dists[i] = best
			total += best
		}
		idx := 0
		if total > 0 {
			r := rng.Float64() * total
			var acc float64
			for i, d := range dists {
				acc += d
				if acc >= r {
					idx = i
					break
				}
			}
		} else {
			idx = rng.Intn(n)
		}
		centroids = append(centroids, append([]float64(nil), data[idx]...))
	}

	labels = make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < kmeansMaxIterations; iter++ {
		changed := false
		for i := range data {
			best := 0
			bestDist := math.Inf(1)
			for c := range centroids {
				if d := squaredDistance(data[i], centroids[c]); d < bestDist {
					bestDist = d
					best = c
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}

		members := make([][][]float64, k)
		for i, l := range data {
			members[labels[i]] = append(members[labels[i]], l)
		}
		for c := range centroids {
			if len(members[c]) == 0 {
				continue
			}
			centroids[c] = meanRow(members[c])
		}

		if !changed {
			break
		}
	}

	for i := range data {
		inertia += squaredDistance(data[i], centroids[labels[i]])
	}
	return labels, centroids, inertia
}

type kmeansClusterer struct {
	k int
}

func (c *kmeansClusterer) Name() string { return AlgorithmKMeans }

func (c *kmeansClusterer) Cluster(m *FeatureMatrix) ([]int, *float64, error) {
	k := c.k
	n := m.Rows()
	// Too few samples never fails outright; the cluster count shrinks.
	if n < k {
		k = n / 2
		if k < 2 {
			k = 2
		}
	}
	labels, _, _ := runKMeans(m.Data, k, clusterSeed)
	score := silhouetteScore(m.Data, labels, false)
	return labels, score, nil
}
