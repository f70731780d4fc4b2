package steps

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/workpulse/workpulse-backend/internal/logger"
	"github.com/workpulse/workpulse-backend/internal/repos"
	"github.com/workpulse/workpulse-backend/internal/repos/testutil"
	"github.com/workpulse/workpulse-backend/internal/types"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func TestDeriveFeature_CategoriesAndSwitch(t *testing.T) {
	rules := DefaultRuleSet()
	userID := uuid.New()
	ts := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	mk := func(activityType, appName string) *types.Activity {
		ts = ts.Add(5 * time.Minute)
		return &types.Activity{
			ID:           uuid.New(),
			UserID:       userID,
			ActivityType: activityType,
			Timestamp:    ts,
			Details:      datatypes.JSON([]byte(`{"app_name":"` + appName + `"}`)),
		}
	}

	f1 := DeriveFeature(rules, nil, mk("email", "Outlook"))
	if f1.AppCategory == nil || *f1.AppCategory != "Communication" {
		t.Fatalf("unexpected app category: %#v", f1.AppCategory)
	}
	if f1.IsContextSwitch {
		t.Fatalf("first activity must not be a switch")
	}

	f2 := DeriveFeature(rules, f1, mk("coding", "Visual Studio Code"))
	if f2.AppCategory == nil || *f2.AppCategory != "Development" {
		t.Fatalf("unexpected app category: %#v", f2.AppCategory)
	}
	if !f2.IsContextSwitch {
		t.Fatalf("category change must flag a switch")
	}

	f3 := DeriveFeature(rules, f2, mk("coding", "Visual Studio Code"))
	if f3.IsContextSwitch {
		t.Fatalf("same category must not flag a switch")
	}

	// An uncategorizable neighbor never flags a switch in either direction.
	f4 := DeriveFeature(rules, f3, mk("misc", "UnheardOfApp"))
	if f4.AppCategory != nil {
		t.Fatalf("unknown app must stay uncategorized, got %#v", f4.AppCategory)
	}
	if f4.IsContextSwitch {
		t.Fatalf("switch must not fire against an empty category")
	}
	f5 := DeriveFeature(rules, f4, mk("email", "Outlook"))
	if f5.IsContextSwitch {
		t.Fatalf("switch must not fire from an empty category")
	}
}

func TestDeriveFeature_TolerantDetails(t *testing.T) {
	rules := DefaultRuleSet()
	base := &types.Activity{ID: uuid.New(), UserID: uuid.New(), ActivityType: "misc"}

	for name, raw := range map[string]string{
		"not json":   `"dangling`,
		"array":      `[1,2,3]`,
		"scalar":     `42`,
		"empty":      ``,
		"wrong type": `{"app_name": 7}`,
	} {
		act := *base
		act.Details = datatypes.JSON([]byte(raw))
		f := DeriveFeature(rules, nil, &act)
		if f.AppCategory != nil || f.WebsiteCategory != nil || f.ProjectContext != nil {
			t.Fatalf("%s details must yield no categories, got %#v", name, f)
		}
	}

	// Alias keys resolve in order.
	act := *base
	act.Details = datatypes.JSON([]byte(`{"process_name":"slack","website_url":"https://zoom.us/j/1","title":"notes - tracker - PyCharm"}`))
	f := DeriveFeature(rules, nil, &act)
	if f.AppCategory == nil || *f.AppCategory != "Communication" {
		t.Fatalf("process_name alias must map, got %#v", f.AppCategory)
	}
	if f.WebsiteCategory == nil || *f.WebsiteCategory != "Meetings" {
		t.Fatalf("website_url alias must map, got %#v", f.WebsiteCategory)
	}
	if f.ProjectContext == nil || *f.ProjectContext != "tracker" {
		t.Fatalf("title alias must map, got %#v", f.ProjectContext)
	}
}

func TestRunEnrichment_FoldAndIdempotence(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testLogger()
	ctx := context.Background()
	userID := uuid.New()

	activityRepo := repos.NewActivityRepo(tx, log)
	featureRepo := repos.NewEnrichedFeatureRepo(tx, log)
	deps := EnrichDeps{DB: tx, Log: log, Rules: DefaultRuleSet(), Activities: activityRepo, Features: featureRepo}

	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	apps := []struct{ activityType, app string }{
		{"email", "Outlook"},
		{"coding", "Visual Studio Code"},
		{"email", "Outlook"},
		{"coding", "Visual Studio Code"},
	}
	acts := make([]*types.Activity, 0, len(apps))
	for i, a := range apps {
		ts := start.Add(time.Duration(i) * 5 * time.Minute)
		acts = append(acts, testutil.SeedActivity(t, ctx, tx, userID, a.activityType, ts, map[string]any{"app_name": a.app}))
	}

	created, updated, err := RunEnrichment(ctx, deps, userID)
	if err != nil {
		t.Fatalf("enrichment: %v", err)
	}
	if created != 4 || updated != 0 {
		t.Fatalf("expected (4, 0), got (%d, %d)", created, updated)
	}

	features, err := featureRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		t.Fatalf("load features: %v", err)
	}
	byActivity := map[uuid.UUID]*types.EnrichedFeature{}
	for _, f := range features {
		byActivity[f.ActivityID] = f
	}
	wantSwitch := []bool{false, true, true, true}
	for i, act := range acts {
		f := byActivity[act.ID]
		if f == nil {
			t.Fatalf("no feature for activity %d", i)
		}
		if f.IsContextSwitch != wantSwitch[i] {
			t.Fatalf("activity %d: switch = %v, want %v", i, f.IsContextSwitch, wantSwitch[i])
		}
	}

	// Nothing pending on a repeat run.
	created, updated, err = RunEnrichment(ctx, deps, userID)
	if err != nil || created != 0 || updated != 0 {
		t.Fatalf("repeat run must be a no-op, got (%d, %d, %v)", created, updated, err)
	}

	// A later batch folds from the last committed feature, not from scratch.
	extra := testutil.SeedActivity(t, ctx, tx, userID, "email", start.Add(30*time.Minute), map[string]any{"app_name": "Outlook"})
	created, _, err = RunEnrichment(ctx, deps, userID)
	if err != nil || created != 1 {
		t.Fatalf("expected one new feature, got (%d, %v)", created, err)
	}
	got, err := featureRepo.GetByActivityIDs(ctx, nil, []uuid.UUID{extra.ID})
	if err != nil || len(got) != 1 {
		t.Fatalf("load extra feature: %v (%d rows)", err, len(got))
	}
	if !got[0].IsContextSwitch {
		t.Fatalf("cross-batch boundary must still detect the switch")
	}
}
