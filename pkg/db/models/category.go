package models

import (
	"time"

	"github.com/angelmondragon/delatte-backend/pkg/enums"
	"github.com/angelmondragon/delatte-backend/pkg/schedule"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is a shared tag. Inactive categories are pending suggestions.
type Category struct {
	ID               uuid.UUID          `gorm:"type:uuid;primaryKey"`
	Name             string             `gorm:"column:name;not null;uniqueIndex"`
	NormalizedName   string             `gorm:"column:normalized_name;not null;index"`
	Description      *string            `gorm:"column:description"`
	Type             enums.CategoryType `gorm:"column:type;not null"`
	IsActive         bool               `gorm:"column:is_active;not null"`
	CreatedByClient  bool               `gorm:"column:created_by_client;not null"`
	CreatedByManager bool               `gorm:"column:created_by_manager;not null"`
	ScheduleRule     *schedule.Rule     `gorm:"column:schedule_rule"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// Rule returns the schedule rule gating the category, or "" when ungated.
func (c Category) Rule() schedule.Rule {
	if c.ScheduleRule == nil {
		return ""
	}
	return *c.ScheduleRule
}
