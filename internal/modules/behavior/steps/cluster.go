package steps

import (
	"fmt"

	"github.com/workpulse/workpulse-backend/internal/logger"
)

const (
	AlgorithmKMeans       = "kmeans"
	AlgorithmDBSCAN       = "dbscan"
	AlgorithmHierarchical = "hierarchical"
)

// ClusterParams carries the per-algorithm knobs. K applies to kmeans and
// hierarchical; Eps and MinSamples to dbscan.
type ClusterParams struct {
	K          int
	Eps        float64
	MinSamples int
}

// Clusterer is the single contract every algorithm variant sits behind:
// one label per input row, plus a silhouette score when it is defined.
type Clusterer interface {
	Name() string
	Cluster(m *FeatureMatrix) ([]int, *float64, error)
}

func NewClusterer(algorithm string, params ClusterParams) (Clusterer, error) {
	switch algorithm {
	case AlgorithmKMeans:
		return &kmeansClusterer{k: params.K}, nil
	case AlgorithmDBSCAN:
		return &dbscanClusterer{eps: params.Eps, minSamples: params.MinSamples}, nil
	case AlgorithmHierarchical:
		return &hierarchicalClusterer{k: params.K}, nil
	default:
		return nil, fmt.Errorf("unknown clustering algorithm %q", algorithm)
	}
}

// ClusterAtBoundary runs the clusterer and converts any internal failure,
// error or panic, into (nil, nil). The failure is materialized as an
// AlgorithmError and logged before being swallowed, keeping the observed
// sentinel contract while leaving a trace of what actually went wrong.
func ClusterAtBoundary(log *logger.Logger, c Clusterer, m *FeatureMatrix) (labels []int, score *float64) {
	defer func() {
		if r := recover(); r != nil {
			aerr := &AlgorithmError{Algorithm: c.Name(), Err: fmt.Errorf("panic: %v", r)}
			if log != nil {
				log.Warn("Clustering failed, returning no result", "error", aerr)
			}
			labels, score = nil, nil
		}
	}()

	labels, score, err := c.Cluster(m)
	if err != nil {
		aerr := &AlgorithmError{Algorithm: c.Name(), Err: err}
		if log != nil {
			log.Warn("Clustering failed, returning no result", "error", aerr)
		}
		return nil, nil
	}
	return labels, score
}
