package reviews

import (
	"time"

	"github.com/angelmondragon/delatte-backend/internal/categories"
	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

// ClientRef is the public part of a reviewer's profile.
type ClientRef struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	ProfilePicture *string   `json:"profile_picture,omitempty"`
}

type ReviewDTO struct {
	ID         uuid.UUID        `json:"id"`
	CafeID     uuid.UUID        `json:"cafe_id"`
	Rating     int              `json:"rating"`
	Comment    *string          `json:"comment,omitempty"`
	ImageURL   *string          `json:"image_url,omitempty"`
	Client     *ClientRef       `json:"client,omitempty"`
	Categories []categories.Ref `json:"categories,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// CreateInput is a client's review submission.
type CreateInput struct {
	CafeID              uuid.UUID
	Rating              int
	Comment             *string
	ImageURL            *string
	SelectedCategoryIDs []uuid.UUID
	NewCategoryNames    []string
}

// CreateResult reports the stored review and the refreshed café aggregate.
type CreateResult struct {
	Review        ReviewDTO `json:"review"`
	AverageRating float64   `json:"average_rating"`
}

// CafeStats summarizes the reviews of one café for its manager.
type CafeStats struct {
	TotalReviews  int         `json:"total_reviews"`
	AverageRating float64     `json:"average_rating"`
	LatestReviews []ReviewDTO `json:"latest_reviews"`
}

func fromRow(row Row) ReviewDTO {
	dto := ReviewDTO{
		ID:        row.ID,
		CafeID:    row.CafeID,
		Rating:    row.Rating,
		Comment:   row.Comment,
		ImageURL:  row.ImageURL,
		CreatedAt: row.CreatedAt,
	}
	if row.ClientFirstName != nil || row.ClientLastName != nil {
		dto.Client = &ClientRef{
			ID:             row.ClientID,
			FirstName:      deref(row.ClientFirstName),
			LastName:       deref(row.ClientLastName),
			ProfilePicture: row.ClientProfilePicture,
		}
	}
	return dto
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
