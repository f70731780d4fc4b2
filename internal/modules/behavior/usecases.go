package behavior

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/workpulse/workpulse-backend/internal/logger"
	"github.com/workpulse/workpulse-backend/internal/modules/behavior/steps"
	"github.com/workpulse/workpulse-backend/internal/repos"
	"github.com/workpulse/workpulse-backend/internal/types"
)

type UsecasesDeps struct {
	DB  *gorm.DB
	Log *logger.Logger

	Rules *steps.RuleSet

	Activities repos.ActivityRepo
	Features   repos.EnrichedFeatureRepo
	Models     repos.BehavioralModelRepo
	Patterns   repos.BehavioralPatternRepo
	Anomalies  repos.DetectedAnomalyRepo

	OptimizerMinK int
	OptimizerMaxK int

	// Defaults applied when a detection call leaves threshold or window
	// unset.
	AnomalyThreshold     float64
	AnomalyWindowMinutes int
}

// Usecases is the engine facade. Every operation is per-user, batch and
// synchronous; all state is either ephemeral or persisted rows.
type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases {
	if deps.Rules == nil {
		deps.Rules = steps.DefaultRuleSet()
	}
	if deps.OptimizerMinK < 2 {
		deps.OptimizerMinK = 2
	}
	if deps.OptimizerMaxK < deps.OptimizerMinK {
		deps.OptimizerMaxK = 10
	}
	if deps.AnomalyThreshold <= 0 {
		deps.AnomalyThreshold = steps.DefaultAnomalyThreshold
	}
	if deps.AnomalyWindowMinutes <= 0 {
		deps.AnomalyWindowMinutes = steps.DefaultAnomalyWindowMinutes
	}
	return Usecases{deps: deps}
}

func (u Usecases) WithLog(log *logger.Logger) Usecases {
	u.deps.Log = log
	return u
}

// Enrich derives contextual features for every activity of the user that
// lacks one. Returns (created, updated); updated is always zero since
// features are write-once.
func (u Usecases) Enrich(ctx context.Context, userID uuid.UUID) (int, int, error) {
	return steps.RunEnrichment(ctx, steps.EnrichDeps{
		DB:         u.deps.DB,
		Log:        u.deps.Log,
		Rules:      u.deps.Rules,
		Activities: u.deps.Activities,
		Features:   u.deps.Features,
	}, userID)
}

type TrainInput struct {
	Algorithm string
	// NumClusters overrides the optimizer when positive.
	NumClusters             int
	AutoOptimize            bool
	IncludeEnrichedFeatures bool
	Eps                     float64
	MinSamples              int
}

type TrainOutput struct {
	Model    *types.BehavioralModel
	Patterns []*types.BehavioralPattern
}

const defaultNumClusters = 5

// Train runs the full pattern-mining pipeline for a user: dataset assembly,
// preprocessing, optional cluster-count optimization, clustering, pattern
// extraction and labeling, then one atomic model+patterns write. Data and
// algorithm failures come back as typed errors without touching the store;
// only persistence failures indicate a rolled-back write.
func (u Usecases) Train(ctx context.Context, userID uuid.UUID, in TrainInput) (TrainOutput, error) {
	log := u.deps.Log.With("usecase", "Train", "user_id", userID, "algorithm", in.Algorithm)

	if in.Algorithm == "" {
		in.Algorithm = steps.AlgorithmKMeans
	}

	activities, err := u.deps.Activities.GetByUserID(ctx, nil, userID)
	if err != nil {
		return TrainOutput{}, fmt.Errorf("loading activities: %w", err)
	}
	if len(activities) == 0 {
		return TrainOutput{}, steps.ErrDataInsufficient
	}

	var features []*types.EnrichedFeature
	if in.IncludeEnrichedFeatures {
		features, err = u.deps.Features.GetByUserID(ctx, nil, userID)
		if err != nil {
			return TrainOutput{}, fmt.Errorf("loading enriched features: %w", err)
		}
	}

	rows := steps.BuildDataset(activities, features, in.IncludeEnrichedFeatures)
	matrix, _, err := steps.BuildMatrix(rows)
	if err != nil {
		log.Warn("Preprocessing did not produce a usable matrix", "rows", len(rows), "error", err)
		return TrainOutput{}, err
	}

	params := steps.ClusterParams{K: in.NumClusters, Eps: in.Eps, MinSamples: in.MinSamples}
	if in.Algorithm != steps.AlgorithmDBSCAN && params.K <= 0 {
		if in.AutoOptimize {
			params.K = steps.OptimizeClusterCount(matrix, u.deps.OptimizerMinK, u.deps.OptimizerMaxK)
			if params.K < 2 {
				log.Warn("Too few samples to optimize a cluster count", "rows", matrix.Rows(), "k", params.K)
				return TrainOutput{}, steps.ErrDataInsufficient
			}
			log.Debug("Optimizer selected cluster count", "k", params.K)
		} else {
			params.K = defaultNumClusters
		}
	}

	clusterer, err := steps.NewClusterer(in.Algorithm, params)
	if err != nil {
		return TrainOutput{}, err
	}
	labels, silhouette := steps.ClusterAtBoundary(log, clusterer, matrix)
	if labels == nil {
		return TrainOutput{}, &steps.AlgorithmError{Algorithm: in.Algorithm, Err: fmt.Errorf("no clustering result")}
	}

	summaries := steps.ExtractPatterns(rows, matrix, labels)
	for i := range summaries {
		summaries[i].Category = steps.CategorizePattern(summaries[i])
		summaries[i].PatternName = steps.GenerateLabel(summaries[i], summaries[i].Category)
	}

	parameters := map[string]any{
		"algorithm":                 in.Algorithm,
		"auto_optimize":             in.AutoOptimize,
		"include_enriched_features": in.IncludeEnrichedFeatures,
	}
	switch in.Algorithm {
	case steps.AlgorithmDBSCAN:
		parameters["eps"] = params.Eps
		parameters["min_samples"] = params.MinSamples
	default:
		parameters["n_clusters"] = params.K
	}

	model, patterns, err := steps.PersistTrainingRun(ctx, steps.TrainDeps{
		DB:       u.deps.DB,
		Log:      u.deps.Log,
		Models:   u.deps.Models,
		Patterns: u.deps.Patterns,
	}, userID, in.Algorithm, parameters, silhouette, summaries)
	if err != nil {
		return TrainOutput{}, err
	}
	return TrainOutput{Model: model, Patterns: patterns}, nil
}

// Label assigns the category and human-readable label for one pattern
// summary. Pure and deterministic.
func (u Usecases) Label(p steps.PatternSummary) (string, string) {
	category := steps.CategorizePattern(p)
	return category, steps.GenerateLabel(p, category)
}

// DetectAnomalies flags activity-frequency deviations in the trailing
// window ending at now, against the user's historical baselines. A
// non-positive threshold or window falls back to the configured defaults.
func (u Usecases) DetectAnomalies(ctx context.Context, userID uuid.UUID, now time.Time, threshold float64, windowMinutes int) ([]*types.DetectedAnomaly, error) {
	if threshold <= 0 {
		threshold = u.deps.AnomalyThreshold
	}
	if windowMinutes <= 0 {
		windowMinutes = u.deps.AnomalyWindowMinutes
	}
	return steps.DetectAnomalies(ctx, steps.AnomalyDeps{
		DB:         u.deps.DB,
		Log:        u.deps.Log,
		Activities: u.deps.Activities,
		Features:   u.deps.Features,
		Anomalies:  u.deps.Anomalies,
	}, userID, now, threshold, windowMinutes)
}
