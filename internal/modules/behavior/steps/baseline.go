package steps

import (
	"github.com/google/uuid"

	"github.com/workpulse/workpulse-backend/internal/types"
)

const (
	CategoryTypeApp     = "app_category"
	CategoryTypeWebsite = "website_category"
)

type BaselineStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// BaselineMap is categoryType → categoryValue → dayOfWeek → hour → stats,
// with day 0 = Monday.
type BaselineMap map[string]map[string]map[int]map[int]BaselineStats

func (b BaselineMap) Lookup(categoryType, value string, weekday, hour int) (BaselineStats, bool) {
	byValue, ok := b[categoryType]
	if !ok {
		return BaselineStats{}, false
	}
	byDay, ok := byValue[value]
	if !ok {
		return BaselineStats{}, false
	}
	byHour, ok := byDay[weekday]
	if !ok {
		return BaselineStats{}, false
	}
	stats, ok := byHour[hour]
	return stats, ok
}

func (b BaselineMap) insert(categoryType, value string, weekday, hour int, stats BaselineStats) {
	if b[categoryType] == nil {
		b[categoryType] = map[string]map[int]map[int]BaselineStats{}
	}
	if b[categoryType][value] == nil {
		b[categoryType][value] = map[int]map[int]BaselineStats{}
	}
	if b[categoryType][value][weekday] == nil {
		b[categoryType][value][weekday] = map[int]BaselineStats{}
	}
	b[categoryType][value][weekday][hour] = stats
}

// featureCategoryValue reads the category of one type off a feature, with
// nulls grouped under the sentinel rather than dropped.
func featureCategoryValue(f *types.EnrichedFeature, categoryType string) string {
	if f == nil {
		return MissingCategory
	}
	var v *string
	switch categoryType {
	case CategoryTypeApp:
		v = f.AppCategory
	case CategoryTypeWebsite:
		v = f.WebsiteCategory
	}
	if v == nil || *v == "" {
		return MissingCategory
	}
	return *v
}

// ComputeBaselines aggregates historical per-hour activity counts into
// mean/std statistics per (category type, category value, day-of-week,
// hour). Counting happens per calendar date first, so each observed
// (value, weekday, hour, date) contributes exactly one count; hours a
// category never appeared in have no baseline entry. Std is 0 when only
// one date was observed.
func ComputeBaselines(activities []*types.Activity, features []*types.EnrichedFeature) BaselineMap {
	byActivity := make(map[uuid.UUID]*types.EnrichedFeature, len(features))
	for _, f := range features {
		byActivity[f.ActivityID] = f
	}

	type instanceKey struct {
		categoryType string
		value        string
		weekday      int
		hour         int
		date         string
	}
	instanceCounts := map[instanceKey]int{}

	for _, act := range activities {
		f, ok := byActivity[act.ID]
		if !ok {
			continue
		}
		weekday := weekdayMondayZero(act.Timestamp)
		hour := act.Timestamp.Hour()
		date := act.Timestamp.Format("2006-01-02")
		for _, categoryType := range []string{CategoryTypeApp, CategoryTypeWebsite} {
			key := instanceKey{
				categoryType: categoryType,
				value:        featureCategoryValue(f, categoryType),
				weekday:      weekday,
				hour:         hour,
				date:         date,
			}
			instanceCounts[key]++
		}
	}

	type aggregateKey struct {
		categoryType string
		value        string
		weekday      int
		hour         int
	}
	samples := map[aggregateKey][]float64{}
	for key, count := range instanceCounts {
		agg := aggregateKey{key.categoryType, key.value, key.weekday, key.hour}
		samples[agg] = append(samples[agg], float64(count))
	}

	baselines := BaselineMap{}
	for key, counts := range samples {
		baselines.insert(key.categoryType, key.value, key.weekday, key.hour, BaselineStats{
			Mean: mean(counts),
			Std:  stddev(counts),
		})
	}
	return baselines
}
