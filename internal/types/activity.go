package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Activity is a raw user event. Rows are owned by the capture pipeline and
// are never mutated here.
type Activity struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	ActivityType string         `gorm:"column:activity_type;not null;index" json:"activity_type"`
	Timestamp    time.Time      `gorm:"not null;index" json:"timestamp"`
	Details      datatypes.JSON `gorm:"type:jsonb;column:details" json:"details"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (Activity) TableName() string { return "activity" }

// IDs are assigned client-side so created rows carry their key back without
// relying on a database default.
func (a *Activity) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
