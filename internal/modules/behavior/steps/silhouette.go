package steps

// silhouetteScore computes the mean silhouette coefficient over the
// labeled points. It returns nil when the score is undefined: fewer than
// two distinct clusters, or as many clusters as samples. With excludeNoise
// set (DBSCAN), noise-labeled points are dropped first and the score is
// computed over the real clusters only.
func silhouetteScore(data [][]float64, labels []int, excludeNoise bool) *float64 {
	idx := make([]int, 0, len(labels))
	for i, l := range labels {
		if excludeNoise && l == NoiseLabel {
			continue
		}
		idx = append(idx, i)
	}

	members := map[int][]int{}
	for _, i := range idx {
		members[labels[i]] = append(members[labels[i]], i)
	}
	if len(members) < 2 || len(members) >= len(idx) {
		return nil
	}

	var total float64
	for _, i := range idx {
		own := labels[i]

		// a(i): mean distance to the rest of the own cluster.
		var a float64
		if len(members[own]) > 1 {
			var sum float64
			for _, j := range members[own] {
				if j == i {
					continue
				}
				sum += euclideanDistance(data[i], data[j])
			}
			a = sum / float64(len(members[own])-1)
		}

		// b(i): smallest mean distance to any other cluster.
		b := -1.0
		for l, ms := range members {
			if l == own {
				continue
			}
			var sum float64
			for _, j := range ms {
				sum += euclideanDistance(data[i], data[j])
			}
			d := sum / float64(len(ms))
			if b < 0 || d < b {
				b = d
			}
		}

		max := a
		if b > max {
			max = b
		}
		if max > 0 {
			total += (b - a) / max
		}
	}

	score := total / float64(len(idx))
	return &score
}
