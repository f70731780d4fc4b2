package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AnomalyTypeHighActivity = "high_activity"
	AnomalyTypeLowActivity  = "low_activity"

	AnomalyStatusNew          = "new"
	AnomalyStatusAcknowledged = "acknowledged"
	AnomalyStatusResolved     = "resolved"
)

// DetectedAnomaly is one flagged deviation from a learned baseline. Rows
// are created by detection runs and never auto-deleted; status moves
// through new → acknowledged → resolved by external workflow.
type DetectedAnomaly struct {
	ID                 uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID             uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Timestamp          time.Time      `gorm:"not null;index" json:"timestamp"`
	AnomalyType        string         `gorm:"column:anomaly_type;not null" json:"anomaly_type"`
	CategoryType       string         `gorm:"column:category_type;not null" json:"category_type"`
	CategoryValue      string         `gorm:"column:category_value;not null" json:"category_value"`
	Description        string         `gorm:"column:description" json:"description"`
	SeverityScore      float64        `gorm:"column:severity_score;not null" json:"severity_score"`
	RelatedActivityIDs datatypes.JSON `gorm:"type:jsonb;column:related_activity_ids" json:"related_activity_ids"`
	Status             string         `gorm:"column:status;not null;default:new;index" json:"status"`
	CreatedAt          time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (DetectedAnomaly) TableName() string { return "detected_anomaly" }

func (a *DetectedAnomaly) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
