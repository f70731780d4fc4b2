package steps

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/workpulse/workpulse-backend/internal/repos"
	"github.com/workpulse/workpulse-backend/internal/repos/testutil"
	"github.com/workpulse/workpulse-backend/internal/types"
)

func anomalyDeps(tx *gorm.DB) AnomalyDeps {
	log := testLogger()
	return AnomalyDeps{
		DB:         tx,
		Log:        log,
		Activities: repos.NewActivityRepo(tx, log),
		Features:   repos.NewEnrichedFeatureRepo(tx, log),
		Anomalies:  repos.NewDetectedAnomalyRepo(tx, log),
	}
}

// seedMondayHistory inserts counts[i] Development-categorized activities on
// the i-th consecutive Monday starting 2025-03-03, all inside hour 10.
func seedMondayHistory(t *testing.T, ctx context.Context, tx *gorm.DB, userID uuid.UUID, counts []int) {
	t.Helper()
	base := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	for week, count := range counts {
		day := base.AddDate(0, 0, 7*week)
		for i := 0; i < count; i++ {
			act := testutil.SeedActivity(t, ctx, tx, userID, "coding", day.Add(time.Duration(i)*time.Minute), map[string]any{"app_name": "vscode"})
			testutil.SeedEnrichedFeature(t, ctx, tx, act, "Development", "", false)
		}
	}
}

func TestDetectAnomalies_HighActivity(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	userID := uuid.New()
	deps := anomalyDeps(tx)

	// Baseline: counts 12, 8, 12, 8, 10 over five Mondays at hour 10 give
	// mean 10 and sample std 2.
	seedMondayHistory(t, ctx, tx, userID, []int{12, 8, 12, 8, 10})

	// A burst of 20 events in the detection window on the following Monday.
	now := time.Date(2025, 4, 7, 10, 59, 0, 0, time.UTC)
	windowStart := time.Date(2025, 4, 7, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		act := testutil.SeedActivity(t, ctx, tx, userID, "coding", windowStart.Add(time.Duration(i)*2*time.Minute), map[string]any{"app_name": "vscode"})
		testutil.SeedEnrichedFeature(t, ctx, tx, act, "Development", "", false)
	}

	got, err := DetectAnomalies(ctx, deps, userID, now, 2.0, 60)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly one anomaly, got %d: %#v", len(got), got)
	}
	a := got[0]
	if a.AnomalyType != types.AnomalyTypeHighActivity {
		t.Fatalf("type = %q, want high", a.AnomalyType)
	}
	if a.CategoryType != CategoryTypeApp || a.CategoryValue != "Development" {
		t.Fatalf("pair = (%q, %q), want (app_category, Development)", a.CategoryType, a.CategoryValue)
	}
	// |20-10| / 2 = 5 sigma against threshold 2 clamps to 1.
	if a.SeverityScore != 1.0 {
		t.Fatalf("severity = %v, want 1.0", a.SeverityScore)
	}
	if a.Status != types.AnomalyStatusNew {
		t.Fatalf("status = %q, want new", a.Status)
	}
	if !strings.Contains(a.Description, "high") {
		t.Fatalf("description must name the direction: %q", a.Description)
	}
	var related []uuid.UUID
	if err := json.Unmarshal(a.RelatedActivityIDs, &related); err != nil || len(related) != 20 {
		t.Fatalf("related ids: %v (%d)", err, len(related))
	}

	stored, err := deps.Anomalies.GetByUserID(ctx, nil, userID)
	if err != nil || len(stored) != 1 {
		t.Fatalf("anomaly must persist: %v (%d rows)", err, len(stored))
	}
}

func TestDetectAnomalies_LowActivity(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	userID := uuid.New()
	deps := anomalyDeps(tx)

	// Constant baseline of 10 per Monday hour: std 0 floors to 0.5, so the
	// expected band is [9, 11].
	seedMondayHistory(t, ctx, tx, userID, []int{10, 10, 10, 10, 10})

	now := time.Date(2025, 4, 7, 10, 59, 0, 0, time.UTC)
	act := testutil.SeedActivity(t, ctx, tx, userID, "coding", now.Add(-10*time.Minute), map[string]any{"app_name": "vscode"})
	testutil.SeedEnrichedFeature(t, ctx, tx, act, "Development", "", false)

	got, err := DetectAnomalies(ctx, deps, userID, now, 2.0, 60)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly one anomaly, got %d", len(got))
	}
	if got[0].AnomalyType != types.AnomalyTypeLowActivity {
		t.Fatalf("type = %q, want low", got[0].AnomalyType)
	}
	if got[0].SeverityScore != 1.0 {
		t.Fatalf("severity = %v, want clamped 1.0", got[0].SeverityScore)
	}
	if !strings.Contains(got[0].Description, "low") {
		t.Fatalf("description must name the direction: %q", got[0].Description)
	}
}

func TestDetectAnomalies_QuietCases(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	userID := uuid.New()
	deps := anomalyDeps(tx)

	seedMondayHistory(t, ctx, tx, userID, []int{10, 10, 10, 10, 10})
	now := time.Date(2025, 4, 7, 10, 59, 0, 0, time.UTC)

	// No activity in the window at all.
	got, err := DetectAnomalies(ctx, deps, userID, now, 2.0, 60)
	if err != nil || got != nil {
		t.Fatalf("empty window must yield (nil, nil), got (%v, %v)", got, err)
	}

	// Ten events sit inside the expected band [9, 11]: nothing flags.
	windowStart := time.Date(2025, 4, 7, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		act := testutil.SeedActivity(t, ctx, tx, userID, "coding", windowStart.Add(time.Duration(i)*2*time.Minute), map[string]any{"app_name": "vscode"})
		testutil.SeedEnrichedFeature(t, ctx, tx, act, "Development", "", false)
	}
	got, err = DetectAnomalies(ctx, deps, userID, now, 2.0, 60)
	if err != nil || got != nil {
		t.Fatalf("in-band activity must yield (nil, nil), got (%v, %v)", got, err)
	}
	stored, err := deps.Anomalies.GetByUserID(ctx, nil, userID)
	if err != nil || len(stored) != 0 {
		t.Fatalf("quiet runs must persist nothing: %v (%d rows)", err, len(stored))
	}
}

func TestDetectAnomalies_UnknownPairSkipped(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	userID := uuid.New()
	deps := anomalyDeps(tx)

	// No history at all: a pair seen only in the window has no baseline to
	// deviate from.
	now := time.Date(2025, 4, 7, 10, 59, 0, 0, time.UTC)
	act := testutil.SeedActivity(t, ctx, tx, userID, "chat", now.Add(-5*time.Minute), map[string]any{"app_name": "slack"})
	testutil.SeedEnrichedFeature(t, ctx, tx, act, "Communication", "", false)

	got, err := DetectAnomalies(ctx, deps, userID, now, 2.0, 60)
	if err != nil || got != nil {
		t.Fatalf("unknown pair must be skipped, got (%v, %v)", got, err)
	}
}
