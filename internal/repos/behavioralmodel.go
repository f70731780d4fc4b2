package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/workpulse/workpulse-backend/internal/logger"
  "github.com/workpulse/workpulse-backend/internal/types"
)

type BehavioralModelRepo interface {
  Create(ctx context.Context, tx *gorm.DB, model *types.BehavioralModel) (*types.BehavioralModel, error)
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.BehavioralModel, error)
  GetLatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.BehavioralModel, error)
  DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type behavioralModelRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewBehavioralModelRepo(db *gorm.DB, baseLog *logger.Logger) BehavioralModelRepo {
  repoLog := baseLog.With("repo", "BehavioralModelRepo")
  return &behavioralModelRepo{db: db, log: repoLog}
}

func (r *behavioralModelRepo) Create(ctx context.Context, tx *gorm.DB, model *types.BehavioralModel) (*types.BehavioralModel, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if model == nil {
    return nil, nil
  }

  if err := transaction.WithContext(ctx).Create(model).Error; err != nil {
    return nil, err
  }
  return model, nil
}

func (r *behavioralModelRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.BehavioralModel, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if id == uuid.Nil {
    return nil, nil
  }

  var result types.BehavioralModel
  err := transaction.WithContext(ctx).
    Where("id = ?", id).
    First(&result).Error
  if err != nil {
    if err == gorm.ErrRecordNotFound {
      return nil, nil
    }
    return nil, err
  }
  return &result, nil
}

func (r *behavioralModelRepo) GetLatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.BehavioralModel, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if userID == uuid.Nil {
    return nil, nil
  }

  var result types.BehavioralModel
  err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("created_at DESC").
    First(&result).Error
  if err != nil {
    if err == gorm.ErrRecordNotFound {
      return nil, nil
    }
    return nil, err
  }
  return &result, nil
}

func (r *behavioralModelRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if id == uuid.Nil {
    return nil
  }

  // Patterns cascade through the FK.
  return transaction.WithContext(ctx).
    Where("id = ?", id).
    Delete(&types.BehavioralModel{}).Error
}
