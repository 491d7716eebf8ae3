package categories

import (
	"time"

	"github.com/angelmondragon/delatte-backend/pkg/db/models"
	"github.com/angelmondragon/delatte-backend/pkg/enums"
	"github.com/angelmondragon/delatte-backend/pkg/schedule"
	"github.com/google/uuid"
)

// CategoryDTO is the API shape of a category.
type CategoryDTO struct {
	ID               uuid.UUID          `json:"id"`
	Name             string             `json:"name"`
	Description      *string            `json:"description,omitempty"`
	Type             enums.CategoryType `json:"type"`
	IsActive         bool               `json:"is_active"`
	CreatedByClient  bool               `json:"created_by_client"`
	CreatedByManager bool               `json:"created_by_manager"`
	ScheduleRule     *schedule.Rule     `json:"schedule_rule,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}

// Ref is the compact form embedded in café and review payloads.
type Ref struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func FromModel(m models.Category) CategoryDTO {
	return CategoryDTO{
		ID:               m.ID,
		Name:             m.Name,
		Description:      m.Description,
		Type:             m.Type,
		IsActive:         m.IsActive,
		CreatedByClient:  m.CreatedByClient,
		CreatedByManager: m.CreatedByManager,
		ScheduleRule:     m.ScheduleRule,
		CreatedAt:        m.CreatedAt,
	}
}

func FromModels(list []models.Category) []CategoryDTO {
	out := make([]CategoryDTO, 0, len(list))
	for _, m := range list {
		out = append(out, FromModel(m))
	}
	return out
}

// CreateInput is what an admin supplies to create an approved category.
type CreateInput struct {
	Name         string
	Description  *string
	Type         enums.CategoryType
	ScheduleRule *string
}

// UpdateInput carries optional admin edits.
type UpdateInput struct {
	Name         *string
	Description  *string
	IsActive     *bool
	ScheduleRule *string
}

// SuggestInput is a client or manager proposal.
type SuggestInput struct {
	Name        string
	Description *string
}
