package steps

// OptimizeClusterCount searches [minK, maxK] for the best k, scoring each
// fixed-seed k-means run by inertia and silhouette. maxK is clipped to
// sampleCount-1. When the clipped range is empty (too few samples) the
// fallback min(5, sampleCount/2) is returned without searching.
//
// The silhouette pick wins when its score clears 0.1; otherwise the elbow
// pick (maximum normalized rate of inertia decrease) is used.
func OptimizeClusterCount(m *FeatureMatrix, minK, maxK int) int {
	n := m.Rows()
	if minK < 2 {
		minK = 2
	}
	if maxK > n-1 {
		maxK = n - 1
	}
	if maxK < minK {
		fallback := n / 2
		if fallback > 5 {
			fallback = 5
		}
		return fallback
	}

	ks := make([]int, 0, maxK-minK+1)
	inertias := make([]float64, 0, maxK-minK+1)
	silhouettes := make([]float64, 0, maxK-minK+1)
	for k := minK; k <= maxK; k++ {
		labels, _, inertia := runKMeans(m.Data, k, clusterSeed)
		ks = append(ks, k)
		inertias = append(inertias, inertia)
		if s := silhouetteScore(m.Data, labels, false); s != nil {
			silhouettes = append(silhouettes, *s)
		} else {
			// Degenerate run, one effective cluster.
			silhouettes = append(silhouettes, -1)
		}
	}

	elbowK := ks[elbowIndex(inertias)]

	bestSil := silhouettes[0]
	silK := ks[0]
	for i, s := range silhouettes {
		if s > bestSil {
			bestSil = s
			silK = ks[i]
		}
	}

	if bestSil > 0.1 {
		return silK
	}
	return elbowK
}

// elbowIndex returns the index maximizing the normalized first difference
// of the inertia curve. The last difference is duplicated so the rate array
// stays aligned with the inputs.
func elbowIndex(inertias []float64) int {
	if len(inertias) < 2 {
		return 0
	}
	rates := make([]float64, len(inertias))
	for i := 0; i < len(inertias)-1; i++ {
		if inertias[i] > 0 {
			rates[i] = (inertias[i] - inertias[i+1]) / inertias[i]
		}
	}
	rates[len(rates)-1] = rates[len(rates)-2]

	best := 0
	for i := range rates {
		if rates[i] > rates[best] {
			best = i
		}
	}
	return best
}
