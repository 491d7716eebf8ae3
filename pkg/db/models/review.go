package models

import (
	"time"

	"github.com/angelmondragon/delatte-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is a client's single rating of a café.
type Review struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CafeID    uuid.UUID `gorm:"column:cafe_id;type:uuid;not null;uniqueIndex:idx_reviews_cafe_client"`
	ClientID  uuid.UUID `gorm:"column:client_id;type:uuid;not null;uniqueIndex:idx_reviews_cafe_client"`
	Rating    int       `gorm:"column:rating;not null"`
	Comment   *string   `gorm:"column:comment"`
	ImageURL  *string   `gorm:"column:image_url"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index"`
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

type ReviewCategory struct {
	ReviewID   uuid.UUID `gorm:"column:review_id;type:uuid;primaryKey"`
	CategoryID uuid.UUID `gorm:"column:category_id;type:uuid;primaryKey"`
}

func (ReviewCategory) TableName() string {
	return "review_categories"
}

// ReviewReport is a manager's moderation request about a review on their café.
type ReviewReport struct {
	ID        uuid.UUID          `gorm:"type:uuid;primaryKey"`
	ReviewID  uuid.UUID          `gorm:"column:review_id;type:uuid;not null;index"`
	ManagerID uuid.UUID          `gorm:"column:manager_id;type:uuid;not null"`
	Reason    string             `gorm:"column:reason;not null"`
	Status    enums.ReportStatus `gorm:"column:status;not null;index"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (r *ReviewReport) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
