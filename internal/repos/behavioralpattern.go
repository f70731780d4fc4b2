package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/workpulse/workpulse-backend/internal/logger"
  "github.com/workpulse/workpulse-backend/internal/types"
)

type BehavioralPatternRepo interface {
  Create(ctx context.Context, tx *gorm.DB, patterns []*types.BehavioralPattern) ([]*types.BehavioralPattern, error)
  GetByModelID(ctx context.Context, tx *gorm.DB, modelID uuid.UUID) ([]*types.BehavioralPattern, error)
}

type behavioralPatternRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewBehavioralPatternRepo(db *gorm.DB, baseLog *logger.Logger) BehavioralPatternRepo {
  repoLog := baseLog.With("repo", "BehavioralPatternRepo")
  return &behavioralPatternRepo{db: db, log: repoLog}
}

func (r *behavioralPatternRepo) Create(ctx context.Context, tx *gorm.DB, patterns []*types.BehavioralPattern) ([]*types.BehavioralPattern, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(patterns) == 0 {
    return []*types.BehavioralPattern{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&patterns).Error; err != nil {
    return nil, err
  }
  return patterns, nil
}

func (r *behavioralPatternRepo) GetByModelID(ctx context.Context, tx *gorm.DB, modelID uuid.UUID) ([]*types.BehavioralPattern, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.BehavioralPattern
  if modelID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("model_id = ?", modelID).
    Order("pattern_label ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
