package repos

import (
  "context"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/workpulse/workpulse-backend/internal/logger"
  "github.com/workpulse/workpulse-backend/internal/types"
)

type ActivityRepo interface {
  Create(ctx context.Context, tx *gorm.DB, activities []*types.Activity) ([]*types.Activity, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Activity, error)
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Activity, error)
  GetByUserIDInWindow(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from, to time.Time) ([]*types.Activity, error)
  GetUnenriched(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Activity, error)
  CountByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
}

type activityRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
  repoLog := baseLog.With("repo", "ActivityRepo")
  return &activityRepo{db: db, log: repoLog}
}

func (r *activityRepo) Create(ctx context.Context, tx *gorm.DB, activities []*types.Activity) ([]*types.Activity, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(activities) == 0 {
    return []*types.Activity{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&activities).Error; err != nil {
    return nil, err
  }
  return activities, nil
}

func (r *activityRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Activity, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Activity
  if len(ids) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", ids).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *activityRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Activity, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Activity
  if userID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("timestamp ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *activityRepo) GetByUserIDInWindow(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from, to time.Time) ([]*types.Activity, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Activity
  if userID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND timestamp >= ? AND timestamp <= ?", userID, from, to).
    Order("timestamp ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *activityRepo) GetUnenriched(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Activity, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Activity
  if userID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Joins("LEFT JOIN enriched_feature ON enriched_feature.activity_id = activity.id").
    Where("activity.user_id = ? AND enriched_feature.id IS NULL", userID).
    Order("activity.timestamp ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *activityRepo) CountByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.Activity{}).
    Where("user_id = ?", userID).
    Count(&count).Error; err != nil {
    return 0, err
  }
  return count, nil
}
