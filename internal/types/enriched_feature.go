package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EnrichedFeature holds the contextual attributes derived for exactly one
// Activity. At most one row exists per activity; rows are written once and
// never updated.
type EnrichedFeature struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ActivityID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"activity_id"`
	Activity        *Activity `gorm:"constraint:OnDelete:CASCADE;foreignKey:ActivityID;references:ID" json:"activity,omitempty"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	AppCategory     *string   `gorm:"column:app_category" json:"app_category,omitempty"`
	WebsiteCategory *string   `gorm:"column:website_category" json:"website_category,omitempty"`
	ProjectContext  *string   `gorm:"column:project_context" json:"project_context,omitempty"`
	IsContextSwitch bool      `gorm:"column:is_context_switch;not null;default:false" json:"is_context_switch"`
	CreatedAt       time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (EnrichedFeature) TableName() string { return "enriched_feature" }

func (f *EnrichedFeature) BeforeCreate(_ *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// PrimaryCategory is the app category when present, else the website
// category. The context-switch flag compares consecutive values of this.
func (f *EnrichedFeature) PrimaryCategory() string {
	if f == nil {
		return ""
	}
	if f.AppCategory != nil && *f.AppCategory != "" {
		return *f.AppCategory
	}
	if f.WebsiteCategory != nil && *f.WebsiteCategory != "" {
		return *f.WebsiteCategory
	}
	return ""
}
