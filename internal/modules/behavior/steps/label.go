package steps

import (
	"strings"
)

const (
	CategoryProductivity     = "productivity"
	CategoryCommunication    = "communication"
	CategoryResearch         = "research"
	CategoryDevelopment      = "development"
	CategoryMeetings         = "meetings"
	CategoryBreaks           = "breaks"
	CategoryContextSwitching = "context_switching"
	CategoryOther            = "other"
)

// categoryOrder fixes tie resolution: when scores tie, the earlier entry
// wins.
var categoryOrder = []string{
	CategoryProductivity,
	CategoryCommunication,
	CategoryResearch,
	CategoryDevelopment,
	CategoryMeetings,
	CategoryBreaks,
	CategoryContextSwitching,
	CategoryOther,
}

type keywordRule struct {
	substring string
	category  string
}

// Ordered: the first substring hit classifies the activity type.
var categoryKeywords = []keywordRule{
	{"email", CategoryCommunication},
	{"chat", CategoryCommunication},
	{"message", CategoryCommunication},
	{"slack", CategoryCommunication},
	{"code", CategoryDevelopment},
	{"coding", CategoryDevelopment},
	{"ide", CategoryDevelopment},
	{"git", CategoryDevelopment},
	{"debug", CategoryDevelopment},
	{"meeting", CategoryMeetings},
	{"call", CategoryMeetings},
	{"conference", CategoryMeetings},
	{"document", CategoryProductivity},
	{"spreadsheet", CategoryProductivity},
	{"presentation", CategoryProductivity},
	{"writing", CategoryProductivity},
	{"research", CategoryResearch},
	{"search", CategoryResearch},
	{"reading", CategoryResearch},
	{"browse", CategoryResearch},
	{"break", CategoryBreaks},
	{"idle", CategoryBreaks},
	{"lunch", CategoryBreaks},
}

// contextSwitchBonus is added to the context_switching score when the
// pattern's switch rate exceeds the threshold.
const (
	contextSwitchRateThreshold = 0.3
	contextSwitchBonus         = 5.0
)

// CategorizePattern scores the fixed category set against the pattern's
// activity-type distribution, each keyword hit weighted by the type's
// occurrence count. Unmatched types score toward "other". Deterministic
// for identical distributions.
func CategorizePattern(p PatternSummary) string {
	scores := map[string]float64{}
	for activityType, count := range p.ActivityCounts {
		lower := strings.ToLower(activityType)
		matched := false
		for _, rule := range categoryKeywords {
			if strings.Contains(lower, rule.substring) {
				scores[rule.category] += float64(count)
				matched = true
				break
			}
		}
		if !matched {
			scores[CategoryOther] += float64(count)
		}
	}

	if p.ContextSwitchRate > contextSwitchRateThreshold {
		scores[CategoryContextSwitching] += contextSwitchBonus
	}

	best := CategoryOther
	bestScore := 0.0
	for _, cat := range categoryOrder {
		if scores[cat] > bestScore {
			best = cat
			bestScore = scores[cat]
		}
	}
	return best
}

type timeBucket struct {
	name     string
	from, to int
}

// Dominance ties resolve to the earlier bucket.
var timeBuckets = []timeBucket{
	{"Morning", 5, 11},
	{"Afternoon", 12, 16},
	{"Evening", 17, 23},
	{"Night", 0, 4},
}

// GenerateLabel combines the dominant time bucket, the dominant day type
// and the category into a human-readable label, e.g.
// "Morning Weekday Development". Pure and deterministic given identical
// pattern data.
func GenerateLabel(p PatternSummary, category string) string {
	bucket := dominantTimeBucket(p.HourHistogram)
	dayType := dominantDayType(p.DayHistogram)
	return bucket + " " + dayType + " " + categoryTitle(category)
}

func dominantTimeBucket(hours map[int]int) string {
	best := timeBuckets[0].name
	bestCount := -1
	for _, b := range timeBuckets {
		count := 0
		for h := b.from; h <= b.to; h++ {
			count += hours[h]
		}
		if count > bestCount {
			best = b.name
			bestCount = count
		}
	}
	return best
}

func dominantDayType(days map[int]int) string {
	weekday := 0
	for d := 0; d <= 4; d++ {
		weekday += days[d]
	}
	weekend := days[5] + days[6]
	if weekend > weekday {
		return "Weekend"
	}
	return "Weekday"
}

func categoryTitle(category string) string {
	parts := strings.Split(category, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
