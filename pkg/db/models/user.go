package models

import (
	"time"

	"github.com/angelmondragon/delatte-backend/pkg/enums"
	"github.com/angelmondragon/delatte-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User links an identity-provider subject to its role in the marketplace.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Subject      string     `gorm:"column:subject;not null;uniqueIndex"`
	Email        string     `gorm:"column:email;not null;uniqueIndex"`
	Role         enums.Role `gorm:"column:role;not null"`
	IsActive     bool       `gorm:"column:is_active;not null"`
	LastAccessAt *time.Time `gorm:"column:last_access_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

type Client struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey"`
	UserID         *uuid.UUID        `gorm:"column:user_id;type:uuid;index"`
	Subject        string            `gorm:"column:subject;not null;uniqueIndex"`
	FirstName      string            `gorm:"column:first_name;not null"`
	LastName       string            `gorm:"column:last_name;not null"`
	ProfilePicture *string           `gorm:"column:profile_picture"`
	Bio            *string           `gorm:"column:bio"`
	Preferences    types.StringList  `gorm:"column:preferences;type:jsonb;not null"`
	SocialLinks    types.SocialLinks `gorm:"column:social_links;type:jsonb;not null"`
	RegisteredAt   time.Time         `gorm:"column:registered_at;autoCreateTime"`
}

func (c *Client) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

type ClientFavorite struct {
	ClientID  uuid.UUID `gorm:"column:client_id;type:uuid;primaryKey"`
	CafeID    uuid.UUID `gorm:"column:cafe_id;type:uuid;primaryKey;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

type Manager struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID    *uuid.UUID `gorm:"column:user_id;type:uuid;index"`
	Subject   string     `gorm:"column:subject;not null;uniqueIndex"`
	FullName  string     `gorm:"column:full_name;not null"`
	Phone     string     `gorm:"column:phone;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (m *Manager) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

type Admin struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID   uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Subject  string    `gorm:"column:subject;not null;uniqueIndex"`
	FullName string    `gorm:"column:full_name;not null"`
}

func (a *Admin) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// All lists every model for AutoMigrate in tests and local tooling.
func All() []any {
	return []any{
		&User{}, &Client{}, &ClientFavorite{}, &Manager{}, &Admin{},
		&Category{}, &Cafe{}, &CafeCategory{}, &MenuItem{},
		&Review{}, &ReviewCategory{}, &ReviewReport{},
	}
}
