package models

import (
	"time"

	"github.com/angelmondragon/delatte-backend/pkg/enums"
	"github.com/angelmondragon/delatte-backend/pkg/schedule"
	"github.com/angelmondragon/delatte-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cafe is the browsable venue listing. NormalizedName and NormalizedDescription
// are derived from Name and Description and must be refreshed on every write.
type Cafe struct {
	ID                    uuid.UUID               `gorm:"type:uuid;primaryKey"`
	Name                  string                  `gorm:"column:name;not null"`
	NormalizedName        string                  `gorm:"column:normalized_name;not null;index"`
	Address               string                  `gorm:"column:address;not null"`
	Location              types.Location          `gorm:"embedded;embeddedPrefix:location_"`
	Description           string                  `gorm:"column:description;not null"`
	NormalizedDescription string                  `gorm:"column:normalized_description;not null"`
	Gallery               types.StringList        `gorm:"column:gallery;type:jsonb;not null"`
	CoverImage            *string                 `gorm:"column:cover_image"`
	AverageRating         float64                 `gorm:"column:average_rating;not null"`
	Schedule              schedule.WeeklySchedule `gorm:"column:schedule;type:jsonb;not null"`
	ManagerID             *uuid.UUID              `gorm:"column:manager_id;type:uuid;uniqueIndex"`
	IsActive              bool                    `gorm:"column:is_active;not null;index"`
	CreatedAt             time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time               `gorm:"column:updated_at;autoUpdateTime"`

	// ReviewCount is only populated by queries that select it explicitly.
	ReviewCount int64 `gorm:"column:review_count;->;-:migration"`
}

func (Cafe) TableName() string {
	return "cafes"
}

func (c *Cafe) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// CafeCategory links a café to a category. Structural links keep the order the
// manager chose; perceptual links behave as a set.
type CafeCategory struct {
	CafeID     uuid.UUID          `gorm:"column:cafe_id;type:uuid;primaryKey"`
	CategoryID uuid.UUID          `gorm:"column:category_id;type:uuid;primaryKey;index"`
	Kind       enums.CategoryType `gorm:"column:kind;not null"`
	Position   int                `gorm:"column:position;not null"`
}

func (CafeCategory) TableName() string {
	return "cafe_categories"
}
