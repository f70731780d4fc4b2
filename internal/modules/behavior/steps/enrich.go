package steps

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/workpulse/workpulse-backend/internal/logger"
	"github.com/workpulse/workpulse-backend/internal/repos"
	"github.com/workpulse/workpulse-backend/internal/types"
)

type EnrichDeps struct {
	DB         *gorm.DB
	Log        *logger.Logger
	Rules      *RuleSet
	Activities repos.ActivityRepo
	Features   repos.EnrichedFeatureRepo
}

// DeriveFeature computes the contextual attributes for one activity given
// the feature of the immediately preceding activity in the user's timeline
// (nil when none exists). The context-switch flag compares primary
// categories across that boundary, so callers must feed activities in
// ascending timestamp order.
func DeriveFeature(rules *RuleSet, prev *types.EnrichedFeature, act *types.Activity) *types.EnrichedFeature {
	details := parseDetails(act.Details)

	feature := &types.EnrichedFeature{
		ActivityID: act.ID,
		UserID:     act.UserID,
	}
	if cat, ok := rules.AppCategory(details.AppName); ok {
		feature.AppCategory = &cat
	}
	if cat, ok := rules.WebsiteCategory(details.URL); ok {
		feature.WebsiteCategory = &cat
	}
	if proj, ok := rules.ProjectContext(details.WindowTitle, details.FilePath); ok {
		feature.ProjectContext = &proj
	}

	if prev != nil {
		prevPrimary := prev.PrimaryCategory()
		curPrimary := feature.PrimaryCategory()
		feature.IsContextSwitch = prevPrimary != "" && curPrimary != "" && prevPrimary != curPrimary
	}
	return feature
}

// RunEnrichment derives and persists features for every activity of the
// user that lacks one. The last committed feature is loaded once and
// threaded through a sequential fold over the new activities, never
// recomputed per row. All rows are written in one transaction; any write
// failure rolls the whole batch back.
//
// The pass is idempotent: only unenriched activities are selected, so a
// repeat invocation with no new data creates zero rows. Existing features
// are never updated, so the second counter is always zero.
func RunEnrichment(ctx context.Context, deps EnrichDeps, userID uuid.UUID) (int, int, error) {
	log := deps.Log.With("step", "RunEnrichment", "user_id", userID)

	pending, err := deps.Activities.GetUnenriched(ctx, nil, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("loading unenriched activities: %w", err)
	}
	if len(pending) == 0 {
		log.Debug("No unenriched activities")
		return 0, 0, nil
	}

	last, err := deps.Features.GetLatestByUserID(ctx, nil, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("loading last committed feature: %w", err)
	}

	features := make([]*types.EnrichedFeature, 0, len(pending))
	prev := last
	for _, act := range pending {
		feature := DeriveFeature(deps.Rules, prev, act)
		features = append(features, feature)
		prev = feature
	}

	err = deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := deps.Features.Create(ctx, tx, features)
		return err
	})
	if err != nil {
		log.Error("Enrichment batch rolled back", "count", len(features), "error", err)
		return 0, 0, &PersistenceError{Op: "enrichment", Err: err}
	}

	log.Info("Enrichment batch committed", "created", len(features))
	return len(features), 0, nil
}
