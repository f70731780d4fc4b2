package services

import (
  "context"
  "fmt"
  "time"
  "github.com/google/uuid"
  "golang.org/x/sync/singleflight"
  "github.com/workpulse/workpulse-backend/internal/logger"
  "github.com/workpulse/workpulse-backend/internal/modules/behavior"
  "github.com/workpulse/workpulse-backend/internal/repos"
  "github.com/workpulse/workpulse-backend/internal/types"
)

type BehaviorService interface {
  EnrichUser(ctx context.Context, userID uuid.UUID) (int, int, error)
  TrainUser(ctx context.Context, userID uuid.UUID, in behavior.TrainInput) (behavior.TrainOutput, error)
  DetectAnomalies(ctx context.Context, userID uuid.UUID, now time.Time, threshold float64, windowMinutes int) ([]*types.DetectedAnomaly, error)
  ListPatterns(ctx context.Context, userID uuid.UUID) (*types.BehavioralModel, []*types.BehavioralPattern, error)
  ListAnomalies(ctx context.Context, userID uuid.UUID, since *time.Time) ([]*types.DetectedAnomaly, error)
  UpdateAnomalyStatus(ctx context.Context, anomalyID uuid.UUID, status string) error
}

type behaviorService struct {
  log       *logger.Logger
  engine    behavior.Usecases
  models    repos.BehavioralModelRepo
  patterns  repos.BehavioralPatternRepo
  anomalies repos.DetectedAnomalyRepo
  training  singleflight.Group
}

func NewBehaviorService(log *logger.Logger, engine behavior.Usecases, models repos.BehavioralModelRepo, patterns repos.BehavioralPatternRepo, anomalies repos.DetectedAnomalyRepo) BehaviorService {
  serviceLog := log.With("service", "BehaviorService")
  return &behaviorService{
    log:       serviceLog,
    engine:    engine,
    models:    models,
    patterns:  patterns,
    anomalies: anomalies,
  }
}

func (s *behaviorService) EnrichUser(ctx context.Context, userID uuid.UUID) (int, int, error) {
  if userID == uuid.Nil {
    return 0, 0, fmt.Errorf("A user id is required to enrich activities")
  }
  return s.engine.Enrich(ctx, userID)
}

// TrainUser coalesces concurrent training requests for the same user
// through a single-flight group: the engine has no per-user lock of its
// own, so two simultaneous requests would otherwise race on model
// creation.
func (s *behaviorService) TrainUser(ctx context.Context, userID uuid.UUID, in behavior.TrainInput) (behavior.TrainOutput, error) {
  if userID == uuid.Nil {
    return behavior.TrainOutput{}, fmt.Errorf("A user id is required to train a model")
  }
  v, err, shared := s.training.Do(userID.String(), func() (interface{}, error) {
    return s.engine.Train(ctx, userID, in)
  })
  if shared {
    s.log.Debug("Training request coalesced with an in-flight run", "user_id", userID)
  }
  if err != nil {
    return behavior.TrainOutput{}, err
  }
  return v.(behavior.TrainOutput), nil
}

func (s *behaviorService) DetectAnomalies(ctx context.Context, userID uuid.UUID, now time.Time, threshold float64, windowMinutes int) ([]*types.DetectedAnomaly, error) {
  if userID == uuid.Nil {
    return nil, fmt.Errorf("A user id is required to detect anomalies")
  }
  return s.engine.DetectAnomalies(ctx, userID, now, threshold, windowMinutes)
}

func (s *behaviorService) ListPatterns(ctx context.Context, userID uuid.UUID) (*types.BehavioralModel, []*types.BehavioralPattern, error) {
  model, err := s.models.GetLatestByUserID(ctx, nil, userID)
  if err != nil {
    return nil, nil, err
  }
  if model == nil {
    return nil, nil, nil
  }
  patterns, err := s.patterns.GetByModelID(ctx, nil, model.ID)
  if err != nil {
    return nil, nil, err
  }
  return model, patterns, nil
}

func (s *behaviorService) ListAnomalies(ctx context.Context, userID uuid.UUID, since *time.Time) ([]*types.DetectedAnomaly, error) {
  if since != nil {
    return s.anomalies.GetByUserIDSince(ctx, nil, userID, *since)
  }
  return s.anomalies.GetByUserID(ctx, nil, userID)
}

func (s *behaviorService) UpdateAnomalyStatus(ctx context.Context, anomalyID uuid.UUID, status string) error {
  switch status {
  case types.AnomalyStatusNew, types.AnomalyStatusAcknowledged, types.AnomalyStatusResolved:
  default:
    return fmt.Errorf("Invalid anomaly status %q", status)
  }
  return s.anomalies.UpdateStatus(ctx, nil, anomalyID, status)
}
