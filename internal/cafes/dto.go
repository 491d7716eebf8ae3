package cafes

import (
	"time"

	"github.com/angelmondragon/delatte-backend/internal/categories"
	"github.com/angelmondragon/delatte-backend/internal/reviews"
	"github.com/angelmondragon/delatte-backend/pkg/db/models"
	"github.com/angelmondragon/delatte-backend/pkg/enums"
	"github.com/angelmondragon/delatte-backend/pkg/schedule"
	"github.com/angelmondragon/delatte-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Summary is one search result.
type Summary struct {
	ID                   uuid.UUID           `json:"id"`
	Name                 string              `json:"name"`
	Address              string              `json:"address"`
	Location             types.Location      `json:"location"`
	Description          string              `json:"description"`
	AverageRating        float64             `json:"average_rating"`
	ReviewCount          int64               `json:"review_count"`
	Categories           []categories.Ref    `json:"categories"`
	PerceptualCategories []categories.Ref    `json:"perceptual_categories"`
	CoverImage           *string             `json:"cover_image,omitempty"`
	Gallery              []string            `json:"gallery"`
	Reviews              []reviews.ReviewDTO `json:"reviews"`
	CreatedAt            time.Time           `json:"created_at"`
}

type MenuItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Image       *string         `json:"image,omitempty"`
	Position    int             `json:"position"`
}

type ManagerRef struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
}

// Detail is the full café profile.
type Detail struct {
	ID                   uuid.UUID               `json:"id"`
	Name                 string                  `json:"name"`
	Address              string                  `json:"address"`
	Location             types.Location          `json:"location"`
	Description          string                  `json:"description"`
	Gallery              []string                `json:"gallery"`
	CoverImage           *string                 `json:"cover_image,omitempty"`
	AverageRating        float64                 `json:"average_rating"`
	Schedule             schedule.WeeklySchedule `json:"schedule"`
	IsActive             bool                    `json:"is_active"`
	Categories           []categories.Ref        `json:"categories"`
	PerceptualCategories []categories.Ref        `json:"perceptual_categories"`
	Menu                 []MenuItemDTO           `json:"menu"`
	Manager              *ManagerRef             `json:"manager,omitempty"`
	Reviews              []reviews.ReviewDTO     `json:"reviews,omitempty"`
	CreatedAt            time.Time               `json:"created_at"`
	UpdatedAt            time.Time               `json:"updated_at"`
}

// Managed is returned from manager writes. IgnoredCategories names the
// requested categories the submitted schedule did not qualify for.
type Managed struct {
	Cafe              Detail   `json:"cafe"`
	IgnoredCategories []string `json:"ignored_categories"`
}

// ManagerStats summarizes the reviews of the manager's café.
type ManagerStats struct {
	CafeID   uuid.UUID `json:"cafe_id"`
	CafeName string    `json:"cafe_name"`
	reviews.CafeStats
}

// RegisterInput is a manager's first café submission.
type RegisterInput struct {
	ManagerName string
	Name        string
	Address     string
	Location    types.Location
	Description string
	CategoryIDs []uuid.UUID
	Gallery     []string
	CoverImage  *string
	Schedule    schedule.WeeklySchedule
}

// UpdateInput carries the fields a manager may change. Nil means unchanged.
type UpdateInput struct {
	Name        *string
	Address     *string
	Location    *types.Location
	Description *string
	CategoryIDs *[]uuid.UUID
	Gallery     *[]string
	CoverImage  *string
	Schedule    *schedule.WeeklySchedule
}

type MenuItemInput struct {
	Name        string
	Description *string
	Price       decimal.Decimal
	Image       *string
}

type MenuItemPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Image       *string
}

func menuFromModels(items []models.MenuItem) []MenuItemDTO {
	out := make([]MenuItemDTO, 0, len(items))
	for _, m := range items {
		out = append(out, menuFromModel(m))
	}
	return out
}

func menuFromModel(m models.MenuItem) MenuItemDTO {
	return MenuItemDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Image:       m.Image,
		Position:    m.Position,
	}
}

// refsByCafe splits category links into structural and perceptual refs per café.
func refsByCafe(links []CategoryLink) (structural, perceptual map[uuid.UUID][]categories.Ref) {
	structural = map[uuid.UUID][]categories.Ref{}
	perceptual = map[uuid.UUID][]categories.Ref{}
	for _, l := range links {
		ref := categories.Ref{ID: l.CategoryID, Name: l.Name}
		if l.Kind == enums.CategoryTypePerceptual {
			perceptual[l.CafeID] = append(perceptual[l.CafeID], ref)
			continue
		}
		structural[l.CafeID] = append(structural[l.CafeID], ref)
	}
	return structural, perceptual
}

func nonNilRefs(refs []categories.Ref) []categories.Ref {
	if refs == nil {
		return []categories.Ref{}
	}
	return refs
}

func nonNilStrings(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
