package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/workpulse/workpulse-backend/internal/types"
)

func SeedActivity(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, activityType string, ts time.Time, details map[string]any) *types.Activity {
	tb.Helper()
	raw, err := json.Marshal(details)
	if err != nil {
		tb.Fatalf("marshal details: %v", err)
	}
	a := &types.Activity{
		ID:           uuid.New(),
		UserID:       userID,
		ActivityType: activityType,
		Timestamp:    ts,
		Details:      datatypes.JSON(raw),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed activity: %v", err)
	}
	return a
}

// SeedEnrichedFeature writes a feature row directly, bypassing the rule
// engine. Empty category strings become NULL columns.
func SeedEnrichedFeature(tb testing.TB, ctx context.Context, tx *gorm.DB, act *types.Activity, appCategory, websiteCategory string, isSwitch bool) *types.EnrichedFeature {
	tb.Helper()
	f := &types.EnrichedFeature{
		ID:              uuid.New(),
		ActivityID:      act.ID,
		UserID:          act.UserID,
		IsContextSwitch: isSwitch,
	}
	if appCategory != "" {
		f.AppCategory = &appCategory
	}
	if websiteCategory != "" {
		f.WebsiteCategory = &websiteCategory
	}
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed enriched feature: %v", err)
	}
	return f
}
