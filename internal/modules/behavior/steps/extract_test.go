package steps

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/workpulse/workpulse-backend/internal/repos"
	"github.com/workpulse/workpulse-backend/internal/repos/testutil"
	"github.com/workpulse/workpulse-backend/internal/types"
)

func TestExtractPatterns_Summaries(t *testing.T) {
	rows := []TrainingRow{
		{ActivityID: uuid.New(), ActivityType: "email", AppCategory: "Communication", Hour: 9, Weekday: 0},
		{ActivityID: uuid.New(), ActivityType: "email", AppCategory: "Communication", Hour: 9, Weekday: 0, IsContextSwitch: true},
		{ActivityID: uuid.New(), ActivityType: "chat", AppCategory: "Communication", Hour: 10, Weekday: 1, IsContextSwitch: true},
		{ActivityID: uuid.New(), ActivityType: "email", AppCategory: "Communication", Hour: 9, Weekday: 0},
		{ActivityID: uuid.New(), ActivityType: "coding", AppCategory: "Development", Hour: 14, Weekday: 2},
		{ActivityID: uuid.New(), ActivityType: "coding", AppCategory: "Development", Hour: 15, Weekday: 2},
		{ActivityID: uuid.New(), ActivityType: "misc", AppCategory: MissingCategory, Hour: 3, Weekday: 6},
	}
	m := &FeatureMatrix{
		Data: [][]float64{
			{0, 0}, {0, 0}, {0, 0}, {0, 0},
			{1, 1}, {3, 3},
			{9, 9},
		},
		Columns: []string{"x", "y"},
	}
	labels := []int{0, 0, 0, 0, 1, 1, -1}

	out := ExtractPatterns(rows, m, labels)
	if len(out) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(out))
	}
	if out[0].Label != -1 || out[1].Label != 0 || out[2].Label != 1 {
		t.Fatalf("labels must come back sorted: %v, %v, %v", out[0].Label, out[1].Label, out[2].Label)
	}

	big := out[1]
	if big.Size != 4 {
		t.Fatalf("cluster 0 size = %d, want 4", big.Size)
	}
	if big.HourHistogram[9] != 3 || big.HourHistogram[10] != 1 {
		t.Fatalf("unexpected hour histogram: %v", big.HourHistogram)
	}
	if big.DayHistogram[0] != 3 || big.DayHistogram[1] != 1 {
		t.Fatalf("unexpected day histogram: %v", big.DayHistogram)
	}
	if big.ActivityCounts["email"] != 3 || big.ActivityCounts["chat"] != 1 {
		t.Fatalf("unexpected activity counts: %v", big.ActivityCounts)
	}
	if big.CategoryCounts["app_category"]["Communication"] != 4 {
		t.Fatalf("unexpected category counts: %v", big.CategoryCounts)
	}
	if big.ContextSwitchRate != 0.5 {
		t.Fatalf("switch rate = %v, want 0.5", big.ContextSwitchRate)
	}
	if len(big.RepresentativeActivities) != 4 {
		t.Fatalf("small clusters keep every member, got %d", len(big.RepresentativeActivities))
	}

	dev := out[2]
	if !reflect.DeepEqual(dev.Centroid, []float64{2, 2}) {
		t.Fatalf("centroid = %v, want [2 2]", dev.Centroid)
	}

	noise := out[0]
	if noise.Size != 1 || noise.ActivityCounts["misc"] != 1 {
		t.Fatalf("noise must become its own summary: %#v", noise)
	}
}

func TestExtractPatterns_RepresentativeSamplingDeterministic(t *testing.T) {
	rows := make([]TrainingRow, 8)
	labels := make([]int, 8)
	for i := range rows {
		rows[i] = TrainingRow{ActivityID: uuid.New(), ActivityType: "coding", Hour: 10}
	}

	first := ExtractPatterns(rows, nil, labels)
	if len(first) != 1 {
		t.Fatalf("expected one summary, got %d", len(first))
	}
	got := first[0].RepresentativeActivities
	if len(got) != maxRepresentativeActivities {
		t.Fatalf("expected %d representatives, got %d", maxRepresentativeActivities, len(got))
	}
	member := map[uuid.UUID]bool{}
	for _, r := range rows {
		member[r.ActivityID] = true
	}
	seen := map[uuid.UUID]bool{}
	for _, id := range got {
		if !member[id] {
			t.Fatalf("representative %s is not a cluster member", id)
		}
		if seen[id] {
			t.Fatalf("representative %s sampled twice", id)
		}
		seen[id] = true
	}

	second := ExtractPatterns(rows, nil, labels)
	if !reflect.DeepEqual(got, second[0].RepresentativeActivities) {
		t.Fatalf("sampling must be reproducible across runs")
	}

	// No matrix means no centroid, never a failure.
	if first[0].Centroid != nil {
		t.Fatalf("expected nil centroid without a matrix, got %v", first[0].Centroid)
	}
}

func TestPersistTrainingRun_AtomicWrite(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testLogger()
	ctx := context.Background()
	userID := uuid.New()

	modelRepo := repos.NewBehavioralModelRepo(tx, log)
	patternRepo := repos.NewBehavioralPatternRepo(tx, log)
	deps := TrainDeps{DB: tx, Log: log, Models: modelRepo, Patterns: patternRepo}

	score := 0.8
	summaries := []PatternSummary{
		{Label: 0, Size: 4, Centroid: []float64{0, 0}, Category: CategoryCommunication, PatternName: "Morning Weekday Communication"},
		{Label: 1, Size: 2, Centroid: []float64{2, 2}, Category: CategoryDevelopment, PatternName: "Afternoon Weekday Development"},
	}
	parameters := map[string]any{"n_clusters": 2}

	model, patterns, err := PersistTrainingRun(ctx, deps, userID, AlgorithmKMeans, parameters, &score, summaries)
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	if model.ID == uuid.Nil {
		t.Fatalf("model must come back with its id")
	}
	if model.NumClusters != 2 || model.Algorithm != AlgorithmKMeans {
		t.Fatalf("unexpected model row: %#v", model)
	}
	if len(patterns) != 2 {
		t.Fatalf("expected 2 patterns, got %d", len(patterns))
	}

	latest, err := modelRepo.GetLatestByUserID(ctx, nil, userID)
	if err != nil || latest == nil || latest.ID != model.ID {
		t.Fatalf("latest model lookup: %v, %#v", err, latest)
	}
	stored, err := patternRepo.GetByModelID(ctx, nil, model.ID)
	if err != nil || len(stored) != 2 {
		t.Fatalf("stored patterns: %v (%d rows)", err, len(stored))
	}
	for _, p := range stored {
		if p.ModelID != model.ID {
			t.Fatalf("pattern %s points at model %s", p.ID, p.ModelID)
		}
	}

	// Duplicate pattern labels violate the unique index and roll the whole
	// run back, model row included.
	dup := []PatternSummary{{Label: 0, Size: 1}, {Label: 0, Size: 1}}
	_, _, err = PersistTrainingRun(ctx, deps, userID, AlgorithmKMeans, parameters, nil, dup)
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	var count int64
	if err := tx.Model(&types.BehavioralModel{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		t.Fatalf("count models: %v", err)
	}
	if count != 1 {
		t.Fatalf("rolled-back run must leave no model row, got %d", count)
	}
}
