package users

import (
	"time"

	"github.com/angelmondragon/delatte-backend/pkg/db/models"
	"github.com/angelmondragon/delatte-backend/pkg/enums"
	"github.com/angelmondragon/delatte-backend/pkg/types"
	"github.com/google/uuid"
)

// UserDTO is the account row as shown to admins.
type UserDTO struct {
	ID           uuid.UUID  `json:"id"`
	Subject      string     `json:"subject"`
	Email        string     `json:"email"`
	Role         enums.Role `json:"role"`
	IsActive     bool       `json:"is_active"`
	LastAccessAt *time.Time `json:"last_access_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// RoleDTO answers "who am I" for the frontend.
type RoleDTO struct {
	Role     enums.Role `json:"role"`
	IsActive bool       `json:"is_active"`
}

type ClientDTO struct {
	ID             uuid.UUID         `json:"id"`
	FirstName      string            `json:"first_name"`
	LastName       string            `json:"last_name"`
	ProfilePicture *string           `json:"profile_picture,omitempty"`
	Bio            *string           `json:"bio,omitempty"`
	Preferences    []string          `json:"preferences"`
	SocialLinks    types.SocialLinks `json:"social_links"`
	RegisteredAt   time.Time         `json:"registered_at"`
}

type ManagerDTO struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// FavoriteDTO is the compact café card in a client's favorites list.
type FavoriteDTO struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	Address       string         `json:"address"`
	Location      types.Location `json:"location"`
	CoverImage    *string        `json:"cover_image,omitempty"`
	AverageRating float64        `json:"average_rating"`
	IsActive      bool           `json:"is_active"`
}

// AccountDTO is returned by the sync endpoints.
type AccountDTO struct {
	User    UserDTO     `json:"user"`
	Created bool        `json:"created"`
	Client  *ClientDTO  `json:"client,omitempty"`
	Manager *ManagerDTO `json:"manager,omitempty"`
}

// SyncClientInput carries the profile fields sent on first sign-in.
type SyncClientInput struct {
	Email          string
	FirstName      string
	LastName       string
	ProfilePicture *string
}

type SyncManagerInput struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

// ClientUpdate holds the editable client fields. Nil means unchanged.
type ClientUpdate struct {
	FirstName      *string
	LastName       *string
	ProfilePicture *string
	Bio            *string
}

type ManagerUpdate struct {
	FullName *string
	Phone    *string
}

func FromModel(u models.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Subject:      u.Subject,
		Email:        u.Email,
		Role:         u.Role,
		IsActive:     u.IsActive,
		LastAccessAt: u.LastAccessAt,
		CreatedAt:    u.CreatedAt,
	}
}

func FromModels(list []models.User) []UserDTO {
	out := make([]UserDTO, 0, len(list))
	for _, u := range list {
		out = append(out, FromModel(u))
	}
	return out
}

func clientFromModel(c models.Client) ClientDTO {
	prefs := []string(c.Preferences)
	if prefs == nil {
		prefs = []string{}
	}
	return ClientDTO{
		ID:             c.ID,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		ProfilePicture: c.ProfilePicture,
		Bio:            c.Bio,
		Preferences:    prefs,
		SocialLinks:    c.SocialLinks,
		RegisteredAt:   c.RegisteredAt,
	}
}

func managerFromModel(m models.Manager) ManagerDTO {
	return ManagerDTO{ID: m.ID, FullName: m.FullName, Phone: m.Phone, CreatedAt: m.CreatedAt}
}

func favoriteFromModel(c models.Cafe) FavoriteDTO {
	return FavoriteDTO{
		ID:            c.ID,
		Name:          c.Name,
		Address:       c.Address,
		Location:      c.Location,
		CoverImage:    c.CoverImage,
		AverageRating: c.AverageRating,
		IsActive:      c.IsActive,
	}
}
