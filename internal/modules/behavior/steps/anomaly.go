package steps

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/workpulse/workpulse-backend/internal/logger"
	"github.com/workpulse/workpulse-backend/internal/repos"
	"github.com/workpulse/workpulse-backend/internal/types"
)

const (
	DefaultAnomalyThreshold     = 2.0
	DefaultAnomalyWindowMinutes = 60

	// Floor on the baseline std so near-constant baselines do not flag
	// every fluctuation.
	minimumEffectiveStd = 0.5
)

type AnomalyDeps struct {
	DB         *gorm.DB
	Log        *logger.Logger
	Activities repos.ActivityRepo
	Features   repos.EnrichedFeatureRepo
	Anomalies  repos.DetectedAnomalyRepo
}

// DetectAnomalies compares activity counts in the trailing window ending
// at now against the user's learned baselines for the current day-of-week
// and hour. Every (category type, category value) pair present in the
// window is checked; pairs without a baseline entry are skipped. All flags
// from one run persist in a single transaction.
func DetectAnomalies(ctx context.Context, deps AnomalyDeps, userID uuid.UUID, now time.Time, threshold float64, windowMinutes int) ([]*types.DetectedAnomaly, error) {
	log := deps.Log.With("step", "DetectAnomalies", "user_id", userID)

	if threshold <= 0 {
		threshold = DefaultAnomalyThreshold
	}
	if windowMinutes <= 0 {
		windowMinutes = DefaultAnomalyWindowMinutes
	}
	windowStart := now.Add(-time.Duration(windowMinutes) * time.Minute)

	activities, err := deps.Activities.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("loading activities: %w", err)
	}
	features, err := deps.Features.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("loading enriched features: %w", err)
	}

	// Baselines come from history strictly before the window, so the
	// window under inspection cannot dilute its own reference.
	var historical []*types.Activity
	var window []*types.Activity
	for _, act := range activities {
		switch {
		case act.Timestamp.Before(windowStart):
			historical = append(historical, act)
		case !act.Timestamp.After(now):
			window = append(window, act)
		}
	}
	if len(window) == 0 {
		log.Debug("No activity in detection window")
		return nil, nil
	}

	baselines := ComputeBaselines(historical, features)

	byActivity := make(map[uuid.UUID]*types.EnrichedFeature, len(features))
	for _, f := range features {
		byActivity[f.ActivityID] = f
	}

	type pairKey struct {
		categoryType string
		value        string
	}
	windowIDs := map[pairKey][]uuid.UUID{}
	for _, act := range window {
		f, ok := byActivity[act.ID]
		if !ok {
			continue
		}
		for _, categoryType := range []string{CategoryTypeApp, CategoryTypeWebsite} {
			value := featureCategoryValue(f, categoryType)
			// Only real category values are checked; the sentinel group
			// exists in baselines but carries no signal worth flagging.
			if value == MissingCategory {
				continue
			}
			windowIDs[pairKey{categoryType, value}] = append(windowIDs[pairKey{categoryType, value}], act.ID)
		}
	}

	pairs := make([]pairKey, 0, len(windowIDs))
	for key := range windowIDs {
		pairs = append(pairs, key)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].categoryType != pairs[j].categoryType {
			return pairs[i].categoryType < pairs[j].categoryType
		}
		return pairs[i].value < pairs[j].value
	})

	weekday := weekdayMondayZero(now)
	hour := now.Hour()

	var anomalies []*types.DetectedAnomaly
	for _, key := range pairs {
		stats, ok := baselines.Lookup(key.categoryType, key.value, weekday, hour)
		if !ok {
			continue
		}
		effectiveStd := math.Max(stats.Std, minimumEffectiveStd)
		actual := float64(len(windowIDs[key]))
		upper := stats.Mean + threshold*effectiveStd
		lower := stats.Mean - threshold*effectiveStd

		var anomalyType string
		switch {
		case actual > upper:
			anomalyType = types.AnomalyTypeHighActivity
		case actual < lower && lower > 0:
			// A baseline already expecting nothing cannot flag "too low".
			anomalyType = types.AnomalyTypeLowActivity
		default:
			continue
		}

		severity := clamp01(math.Abs(actual-stats.Mean) / effectiveStd / threshold)
		direction := "high"
		if anomalyType == types.AnomalyTypeLowActivity {
			direction = "low"
		}
		description := fmt.Sprintf(
			"Unusually %s %s activity for %q: observed %d events in the last %d minutes, expected between %.1f and %.1f",
			direction, key.categoryType, key.value, int(actual), windowMinutes, lower, upper,
		)

		anomalies = append(anomalies, &types.DetectedAnomaly{
			UserID:             userID,
			Timestamp:          now,
			AnomalyType:        anomalyType,
			CategoryType:       key.categoryType,
			CategoryValue:      key.value,
			Description:        description,
			SeverityScore:      severity,
			RelatedActivityIDs: datatypes.JSON(toJSON(windowIDs[key])),
			Status:             types.AnomalyStatusNew,
		})
	}

	if len(anomalies) == 0 {
		log.Debug("No anomalies detected", "window_pairs", len(pairs))
		return nil, nil
	}

	err = deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := deps.Anomalies.Create(ctx, tx, anomalies)
		return err
	})
	if err != nil {
		log.Error("Anomaly sweep rolled back", "count", len(anomalies), "error", err)
		return nil, &PersistenceError{Op: "anomaly sweep", Err: err}
	}

	log.Info("Anomaly sweep committed", "count", len(anomalies))
	return anomalies, nil
}
