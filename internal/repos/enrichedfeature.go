package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/workpulse/workpulse-backend/internal/logger"
  "github.com/workpulse/workpulse-backend/internal/types"
)

type EnrichedFeatureRepo interface {
  Create(ctx context.Context, tx *gorm.DB, features []*types.EnrichedFeature) ([]*types.EnrichedFeature, error)
  GetByActivityIDs(ctx context.Context, tx *gorm.DB, activityIDs []uuid.UUID) ([]*types.EnrichedFeature, error)
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.EnrichedFeature, error)
  GetLatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.EnrichedFeature, error)
  CountByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
}

type enrichedFeatureRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewEnrichedFeatureRepo(db *gorm.DB, baseLog *logger.Logger) EnrichedFeatureRepo {
  repoLog := baseLog.With("repo", "EnrichedFeatureRepo")
  return &enrichedFeatureRepo{db: db, log: repoLog}
}

func (r *enrichedFeatureRepo) Create(ctx context.Context, tx *gorm.DB, features []*types.EnrichedFeature) ([]*types.EnrichedFeature, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(features) == 0 {
    return []*types.EnrichedFeature{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&features).Error; err != nil {
    return nil, err
  }
  return features, nil
}

func (r *enrichedFeatureRepo) GetByActivityIDs(ctx context.Context, tx *gorm.DB, activityIDs []uuid.UUID) ([]*types.EnrichedFeature, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.EnrichedFeature
  if len(activityIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("activity_id IN ?", activityIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *enrichedFeatureRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.EnrichedFeature, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.EnrichedFeature
  if userID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

// GetLatestByUserID returns the feature whose activity has the greatest
// timestamp, or nil when the user has no features yet. Enrichment seeds its
// fold with this row.
func (r *enrichedFeatureRepo) GetLatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.EnrichedFeature, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if userID == uuid.Nil {
    return nil, nil
  }

  var result types.EnrichedFeature
  err := transaction.WithContext(ctx).
    Joins("JOIN activity ON activity.id = enriched_feature.activity_id").
    Where("enriched_feature.user_id = ?", userID).
    Order("activity.timestamp DESC").
    First(&result).Error
  if err != nil {
    if err == gorm.ErrRecordNotFound {
      return nil, nil
    }
    return nil, err
  }
  return &result, nil
}

func (r *enrichedFeatureRepo) CountByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.EnrichedFeature{}).
    Where("user_id = ?", userID).
    Count(&count).Error; err != nil {
    return 0, err
  }
  return count, nil
}
