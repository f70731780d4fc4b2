package steps

// NoiseLabel marks points DBSCAN could not assign to any density cluster.
const NoiseLabel = -1

const (
	defaultDBSCANEps        = 0.5
	defaultDBSCANMinSamples = 5
)

type dbscanClusterer struct {
	eps        float64
	minSamples int
}

func (c *dbscanClusterer) Name() string { return AlgorithmDBSCAN }

func (c *dbscanClusterer) Cluster(m *FeatureMatrix) ([]int, *float64, error) {
	eps := c.eps
	if eps <= 0 {
		eps = defaultDBSCANEps
	}
	minSamples := c.minSamples
	if minSamples <= 0 {
		minSamples = defaultDBSCANMinSamples
	}
	n := m.Rows()
	if n < minSamples*2 {
		minSamples = minSamples / 2
		if minSamples < 2 {
			minSamples = 2
		}
	}

	labels := runDBSCAN(m.Data, eps, minSamples)
	score := silhouetteScore(m.Data, labels, true)
	return labels, score, nil
}

func runDBSCAN(data [][]float64, eps float64, minSamples int) []int {
	n := len(data)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = NoiseLabel
	}
	visited := make([]bool, n)

	cluster := 0
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true
		neighbors := regionQuery(data, i, eps)
		if len(neighbors) < minSamples {
			continue
		}
		labels[i] = cluster
		// Expand by scanning the growing neighborhood in place.
		for cursor := 0; cursor < len(neighbors); cursor++ {
			j := neighbors[cursor]
			if !visited[j] {
				visited[j] = true
				jNeighbors := regionQuery(data, j, eps)
				if len(jNeighbors) >= minSamples {
					neighbors = append(neighbors, jNeighbors...)
				}
			}
			if labels[j] == NoiseLabel {
				labels[j] = cluster
			}
		}
		cluster++
	}
	return labels
}

func regionQuery(data [][]float64, idx int, eps float64) []int {
	var out []int
	for j := range data {
		if euclideanDistance(data[idx], data[j]) <= eps {
			out = append(out, j)
		}
	}
	return out
}
