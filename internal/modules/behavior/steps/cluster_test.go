package steps

import (
	"errors"
	"testing"
)

type panickyClusterer struct{}

func (panickyClusterer) Name() string { return "panicky" }
func (panickyClusterer) Cluster(*FeatureMatrix) ([]int, *float64, error) {
	panic("singular matrix")
}

type failingClusterer struct{}

func (failingClusterer) Name() string { return "failing" }
func (failingClusterer) Cluster(*FeatureMatrix) ([]int, *float64, error) {
	return nil, nil, errors.New("did not converge")
}

func distinctLabels(labels []int) map[int]int {
	out := map[int]int{}
	for _, l := range labels {
		out[l]++
	}
	return out
}

func TestNewClusterer_UnknownAlgorithm(t *testing.T) {
	if _, err := NewClusterer("spectral", ClusterParams{}); err == nil {
		t.Fatalf("expected an error for an unknown algorithm")
	}
}

func TestKMeansClusterer_LabelsEveryRow(t *testing.T) {
	m := twoBlobMatrix(10)
	c, err := NewClusterer(AlgorithmKMeans, ClusterParams{K: 2})
	if err != nil {
		t.Fatalf("new clusterer: %v", err)
	}
	labels, score, err := c.Cluster(m)
	if err != nil {
		t.Fatalf("cluster: %v", err)
	}
	if len(labels) != m.Rows() {
		t.Fatalf("expected %d labels, got %d", m.Rows(), len(labels))
	}
	if got := distinctLabels(labels); len(got) != 2 {
		t.Fatalf("expected 2 clusters, got %v", got)
	}
	if score == nil || *score < 0.9 {
		t.Fatalf("well-separated blobs must score near 1, got %v", score)
	}
}

func TestKMeansClusterer_ShrinksClusterCount(t *testing.T) {
	m := &FeatureMatrix{Data: [][]float64{{0}, {5}, {10}}, Columns: []string{"x"}}
	c, _ := NewClusterer(AlgorithmKMeans, ClusterParams{K: 10})
	labels, _, err := c.Cluster(m)
	if err != nil {
		t.Fatalf("cluster: %v", err)
	}
	if len(labels) != 3 {
		t.Fatalf("expected 3 labels, got %d", len(labels))
	}
	if got := distinctLabels(labels); len(got) > 2 {
		t.Fatalf("cluster count must shrink below sample count, got %v", got)
	}
}

func TestDBSCANClusterer_NoiseAndAdaptiveMinSamples(t *testing.T) {
	// Six tightly packed points and one far outlier. With seven samples the
	// default minSamples halves to 2, so the blob is dense enough.
	data := [][]float64{
		{0, 0}, {0.1, 0}, {0, 0.1}, {0.1, 0.1}, {0.05, 0}, {0, 0.05},
		{100, 100},
	}
	m := &FeatureMatrix{Data: data, Columns: []string{"x", "y"}}
	c, _ := NewClusterer(AlgorithmDBSCAN, ClusterParams{})
	labels, _, err := c.Cluster(m)
	if err != nil {
		t.Fatalf("cluster: %v", err)
	}
	if labels[6] != NoiseLabel {
		t.Fatalf("outlier must be noise, got %d", labels[6])
	}
	for i := 0; i < 6; i++ {
		if labels[i] != 0 {
			t.Fatalf("blob point %d must join cluster 0, got %d", i, labels[i])
		}
	}
}

func TestHierarchicalClusterer_MergesToK(t *testing.T) {
	m := twoBlobMatrix(4)
	c, _ := NewClusterer(AlgorithmHierarchical, ClusterParams{K: 2})
	labels, score, err := c.Cluster(m)
	if err != nil {
		t.Fatalf("cluster: %v", err)
	}
	if len(labels) != 8 {
		t.Fatalf("expected 8 labels, got %d", len(labels))
	}
	if got := distinctLabels(labels); len(got) != 2 {
		t.Fatalf("expected 2 clusters, got %v", got)
	}
	// Blob membership survives the merges: even rows are one blob, odd rows
	// the other.
	for i := 2; i < 8; i += 2 {
		if labels[i] != labels[0] || labels[i+1] != labels[1] {
			t.Fatalf("blobs split across clusters: %v", labels)
		}
	}
	if score == nil || *score < 0.9 {
		t.Fatalf("well-separated blobs must score near 1, got %v", score)
	}
}

func TestClusterAtBoundary_SwallowsFailures(t *testing.T) {
	log := testLogger()
	m := twoBlobMatrix(3)

	labels, score := ClusterAtBoundary(log, panickyClusterer{}, m)
	if labels != nil || score != nil {
		t.Fatalf("panic must yield (nil, nil), got (%v, %v)", labels, score)
	}
	labels, score = ClusterAtBoundary(log, failingClusterer{}, m)
	if labels != nil || score != nil {
		t.Fatalf("error must yield (nil, nil), got (%v, %v)", labels, score)
	}

	c, _ := NewClusterer(AlgorithmKMeans, ClusterParams{K: 2})
	labels, _ = ClusterAtBoundary(log, c, m)
	if len(labels) != m.Rows() {
		t.Fatalf("success must pass labels through, got %v", labels)
	}
}
