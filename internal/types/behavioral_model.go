package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BehavioralModel records one training run. Later runs supersede earlier
// ones instead of overwriting them; the latest model for a user is the one
// with the greatest created_at.
type BehavioralModel struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Algorithm       string         `gorm:"column:algorithm;not null" json:"algorithm"`
	Parameters      datatypes.JSON `gorm:"type:jsonb;column:parameters" json:"parameters"`
	SilhouetteScore *float64       `gorm:"column:silhouette_score" json:"silhouette_score,omitempty"`
	NumClusters     int            `gorm:"column:num_clusters;not null" json:"num_clusters"`
	ModelBlob       []byte         `gorm:"column:model_blob" json:"-"`
	CreatedAt       time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (BehavioralModel) TableName() string { return "behavioral_model" }

func (m *BehavioralModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
