package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BehavioralPattern summarizes one cluster of a training run. Patterns are
// children of their model and are removed with it.
type BehavioralPattern struct {
	ID                       uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ModelID                  uuid.UUID        `gorm:"type:uuid;not null;index:idx_pattern_model_label,unique" json:"model_id"`
	Model                    *BehavioralModel `gorm:"constraint:OnDelete:CASCADE;foreignKey:ModelID;references:ID" json:"model,omitempty"`
	PatternLabel             int              `gorm:"column:pattern_label;not null;index:idx_pattern_model_label,unique" json:"pattern_label"`
	Size                     int              `gorm:"column:size;not null" json:"size"`
	Centroid                 datatypes.JSON   `gorm:"type:jsonb;column:centroid" json:"centroid"`
	RepresentativeActivities datatypes.JSON   `gorm:"type:jsonb;column:representative_activities" json:"representative_activities"`
	TemporalDistribution     datatypes.JSON   `gorm:"type:jsonb;column:temporal_distribution" json:"temporal_distribution"`
	ActivityDistribution     datatypes.JSON   `gorm:"type:jsonb;column:activity_distribution" json:"activity_distribution"`
	ContextSummary           datatypes.JSON   `gorm:"type:jsonb;column:context_summary" json:"context_summary"`
	Category                 string           `gorm:"column:category" json:"category"`
	Label                    string           `gorm:"column:label" json:"label"`
	CreatedAt                time.Time        `gorm:"not null;default:now()" json:"created_at"`
}

func (BehavioralPattern) TableName() string { return "behavioral_pattern" }

func (p *BehavioralPattern) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
