package steps

import (
	"time"

	"github.com/google/uuid"

	"github.com/workpulse/workpulse-backend/internal/types"
)

// MissingCategory is the sentinel used wherever a categorical value is
// absent: unenriched rows during training and null category values in
// baselines.
const MissingCategory = "missing"

// TrainingRow is one activity flattened for preprocessing: the raw type,
// the enriched categoricals (sentinel-imputed when enrichment is missing)
// and the calendar features.
type TrainingRow struct {
	ActivityID      uuid.UUID
	ActivityType    string
	AppCategory     string
	WebsiteCategory string
	ProjectContext  string
	IsContextSwitch bool
	Hour            int
	Weekday         int
}

// weekdayMondayZero maps time.Weekday (Sunday=0) onto 0=Monday..6=Sunday.
func weekdayMondayZero(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// BuildDataset left-joins activities with their enriched features. Missing
// enrichment imputes the sentinel for categoricals and false for the switch
// flag. When includeEnriched is false the enriched columns are left at the
// sentinel for every row, so training runs on raw type plus calendar
// features alone.
func BuildDataset(activities []*types.Activity, features []*types.EnrichedFeature, includeEnriched bool) []TrainingRow {
	byActivity := make(map[uuid.UUID]*types.EnrichedFeature, len(features))
	for _, f := range features {
		byActivity[f.ActivityID] = f
	}

	rows := make([]TrainingRow, 0, len(activities))
	for _, act := range activities {
		row := TrainingRow{
			ActivityID:      act.ID,
			ActivityType:    act.ActivityType,
			AppCategory:     MissingCategory,
			WebsiteCategory: MissingCategory,
			ProjectContext:  MissingCategory,
			Hour:            act.Timestamp.Hour(),
			Weekday:         weekdayMondayZero(act.Timestamp),
		}
		if includeEnriched {
			if f, ok := byActivity[act.ID]; ok {
				if f.AppCategory != nil && *f.AppCategory != "" {
					row.AppCategory = *f.AppCategory
				}
				if f.WebsiteCategory != nil && *f.WebsiteCategory != "" {
					row.WebsiteCategory = *f.WebsiteCategory
				}
				if f.ProjectContext != nil && *f.ProjectContext != "" {
					row.ProjectContext = *f.ProjectContext
				}
				row.IsContextSwitch = f.IsContextSwitch
			}
		}
		rows = append(rows, row)
	}
	return rows
}
