package steps

import "math"

type hierarchicalClusterer struct {
	k int
}

func (c *hierarchicalClusterer) Name() string { return AlgorithmHierarchical }

func (c *hierarchicalClusterer) Cluster(m *FeatureMatrix) ([]int, *float64, error) {
	k := c.k
	n := m.Rows()
	if n < k {
		k = n / 2
		if k < 2 {
			k = 2
		}
	}
	labels := runAgglomerative(m.Data, k)
	score := silhouetteScore(m.Data, labels, false)
	return labels, score, nil
}

// runAgglomerative is average-linkage agglomerative clustering: every point
// starts as its own cluster and the closest pair merges until k remain.
func runAgglomerative(data [][]float64, k int) []int {
	n := len(data)
	if n == 0 {
		return nil
	}
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}

	clusters := make([][]int, n)
	for i := range clusters {
		clusters[i] = []int{i}
	}

	// Pairwise distances, computed once.
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := range dist[i] {
			dist[i][j] = euclideanDistance(data[i], data[j])
		}
	}

	avgLinkage := func(a, b []int) float64 {
		var sum float64
		for _, i := range a {
			for _, j := range b {
				sum += dist[i][j]
			}
		}
		return sum / float64(len(a)*len(b))
	}

	for len(clusters) > k {
		bestI, bestJ := 0, 1
		best := math.Inf(1)
		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				if d := avgLinkage(clusters[i], clusters[j]); d < best {
					best = d
					bestI, bestJ = i, j
				}
			}
		}
		clusters[bestI] = append(clusters[bestI], clusters[bestJ]...)
		clusters = append(clusters[:bestJ], clusters[bestJ+1:]...)
	}

	labels := make([]int, n)
	for c, members := range clusters {
		for _, i := range members {
			labels[i] = c
		}
	}
	return labels
}
