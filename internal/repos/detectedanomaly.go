package repos

import (
  "context"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/workpulse/workpulse-backend/internal/logger"
  "github.com/workpulse/workpulse-backend/internal/types"
)

type DetectedAnomalyRepo interface {
  Create(ctx context.Context, tx *gorm.DB, anomalies []*types.DetectedAnomaly) ([]*types.DetectedAnomaly, error)
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.DetectedAnomaly, error)
  GetByUserIDSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*types.DetectedAnomaly, error)
  UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string) error
}

type detectedAnomalyRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewDetectedAnomalyRepo(db *gorm.DB, baseLog *logger.Logger) DetectedAnomalyRepo {
  repoLog := baseLog.With("repo", "DetectedAnomalyRepo")
  return &detectedAnomalyRepo{db: db, log: repoLog}
}

func (r *detectedAnomalyRepo) Create(ctx context.Context, tx *gorm.DB, anomalies []*types.DetectedAnomaly) ([]*types.DetectedAnomaly, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(anomalies) == 0 {
    return []*types.DetectedAnomaly{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&anomalies).Error; err != nil {
    return nil, err
  }
  return anomalies, nil
}

func (r *detectedAnomalyRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.DetectedAnomaly, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.DetectedAnomaly
  if userID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("timestamp DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *detectedAnomalyRepo) GetByUserIDSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*types.DetectedAnomaly, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.DetectedAnomaly
  if userID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND timestamp >= ?", userID, since).
    Order("timestamp DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *detectedAnomalyRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if id == uuid.Nil {
    return nil
  }

  return transaction.WithContext(ctx).
    Model(&types.DetectedAnomaly{}).
    Where("id = ?", id).
    Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()}).Error
}
