package steps

import (
	"context"
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/workpulse/workpulse-backend/internal/logger"
	"github.com/workpulse/workpulse-backend/internal/repos"
	"github.com/workpulse/workpulse-backend/internal/types"
)

const maxRepresentativeActivities = 5

// PatternSummary is the in-memory cluster summary the labeler and the
// persistence step both consume.
type PatternSummary struct {
	Label                    int
	Size                     int
	Centroid                 []float64
	RepresentativeActivities []uuid.UUID
	HourHistogram            map[int]int
	DayHistogram             map[int]int
	ActivityCounts           map[string]int
	CategoryCounts           map[string]map[string]int
	ContextSwitchRate        float64
	Category                 string
	PatternName              string
}

// ExtractPatterns summarizes every distinct cluster label, DBSCAN noise
// included as its own -1 pattern. The centroid is the mean of processed
// matrix columns when the matrix is available.
func ExtractPatterns(rows []TrainingRow, m *FeatureMatrix, labels []int) []PatternSummary {
	byLabel := map[int][]int{}
	for i, l := range labels {
		if i >= len(rows) {
			break
		}
		byLabel[l] = append(byLabel[l], i)
	}

	distinct := make([]int, 0, len(byLabel))
	for l := range byLabel {
		distinct = append(distinct, l)
	}
	sort.Ints(distinct)

	rng := rand.New(rand.NewSource(clusterSeed))

	out := make([]PatternSummary, 0, len(distinct))
	for _, l := range distinct {
		members := byLabel[l]
		summary := PatternSummary{
			Label:          l,
			Size:           len(members),
			HourHistogram:  map[int]int{},
			DayHistogram:   map[int]int{},
			ActivityCounts: map[string]int{},
			CategoryCounts: map[string]map[string]int{
				"app_category":     {},
				"website_category": {},
				"project_context":  {},
			},
		}

		if m != nil {
			memberRows := make([][]float64, 0, len(members))
			for _, i := range members {
				if i < len(m.Data) {
					memberRows = append(memberRows, m.Data[i])
				}
			}
			summary.Centroid = meanRow(memberRows)
		}

		var switches int
		for _, i := range members {
			row := rows[i]
			summary.HourHistogram[row.Hour]++
			summary.DayHistogram[row.Weekday]++
			summary.ActivityCounts[row.ActivityType]++
			summary.CategoryCounts["app_category"][row.AppCategory]++
			summary.CategoryCounts["website_category"][row.WebsiteCategory]++
			summary.CategoryCounts["project_context"][row.ProjectContext]++
			if row.IsContextSwitch {
				switches++
			}
		}
		if len(members) > 0 {
			summary.ContextSwitchRate = float64(switches) / float64(len(members))
		}

		summary.RepresentativeActivities = sampleActivityIDs(rng, rows, members, maxRepresentativeActivities)
		out = append(out, summary)
	}
	return out
}

// sampleActivityIDs draws up to n member activity ids uniformly without
// replacement.
func sampleActivityIDs(rng *rand.Rand, rows []TrainingRow, members []int, n int) []uuid.UUID {
	picked := members
	if len(members) > n {
		shuffled := append([]int(nil), members...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		picked = shuffled[:n]
	}
	ids := make([]uuid.UUID, 0, len(picked))
	for _, i := range picked {
		ids = append(ids, rows[i].ActivityID)
	}
	return ids
}

type TrainDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Models   repos.BehavioralModelRepo
	Patterns repos.BehavioralPatternRepo
}

// PersistTrainingRun writes the model row and one pattern row per summary
// in a single transaction. Any failure rolls the whole run back and
// surfaces as a PersistenceError; earlier models for the user are left in
// place so later runs supersede rather than overwrite.
func PersistTrainingRun(ctx context.Context, deps TrainDeps, userID uuid.UUID, algorithm string, parameters map[string]any, silhouette *float64, summaries []PatternSummary) (*types.BehavioralModel, []*types.BehavioralPattern, error) {
	log := deps.Log.With("step", "PersistTrainingRun", "user_id", userID)

	centroids := make(map[int][]float64, len(summaries))
	for _, s := range summaries {
		centroids[s.Label] = s.Centroid
	}

	model := &types.BehavioralModel{
		UserID:          userID,
		Algorithm:       algorithm,
		Parameters:      datatypes.JSON(toJSON(parameters)),
		SilhouetteScore: silhouette,
		NumClusters:     len(summaries),
		ModelBlob:       toJSON(centroids),
	}

	var patterns []*types.BehavioralPattern
	err := deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := deps.Models.Create(ctx, tx, model)
		if err != nil {
			return err
		}

		patterns = make([]*types.BehavioralPattern, 0, len(summaries))
		for _, s := range summaries {
			patterns = append(patterns, &types.BehavioralPattern{
				ModelID:                  created.ID,
				PatternLabel:             s.Label,
				Size:                     s.Size,
				Centroid:                 datatypes.JSON(toJSON(s.Centroid)),
				RepresentativeActivities: datatypes.JSON(toJSON(s.RepresentativeActivities)),
				TemporalDistribution: datatypes.JSON(toJSON(map[string]any{
					"hours": s.HourHistogram,
					"days":  s.DayHistogram,
				})),
				ActivityDistribution: datatypes.JSON(toJSON(s.ActivityCounts)),
				ContextSummary: datatypes.JSON(toJSON(map[string]any{
					"categories":          s.CategoryCounts,
					"context_switch_rate": s.ContextSwitchRate,
				})),
				Category: s.Category,
				Label:    s.PatternName,
			})
		}
		_, err = deps.Patterns.Create(ctx, tx, patterns)
		return err
	})
	if err != nil {
		log.Error("Training run rolled back", "algorithm", algorithm, "patterns", len(summaries), "error", err)
		return nil, nil, &PersistenceError{Op: "training run", Err: err}
	}

	log.Info("Training run committed", "model_id", model.ID, "algorithm", algorithm, "patterns", len(patterns))
	return model, patterns, nil
}
