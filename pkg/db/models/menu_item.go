package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MenuItem is one orderable entry of a café menu.
type MenuItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CafeID      uuid.UUID       `gorm:"column:cafe_id;type:uuid;not null;index"`
	Name        string          `gorm:"column:name;not null"`
	Description *string         `gorm:"column:description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Image       *string         `gorm:"column:image"`
	Position    int             `gorm:"column:position;not null"`
}

func (m *MenuItem) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
