package reports

import (
	"time"

	"github.com/angelmondragon/delatte-backend/pkg/enums"
	"github.com/google/uuid"
)

// MaxReasonLength bounds the free-text reason of a report.
const MaxReasonLength = 500

type ReportedReview struct {
	ID       uuid.UUID  `json:"id"`
	CafeID   *uuid.UUID `json:"cafe_id,omitempty"`
	CafeName *string    `json:"cafe_name,omitempty"`
	Rating   *int       `json:"rating,omitempty"`
	Comment  *string    `json:"comment,omitempty"`
}

type Reporter struct {
	ID       uuid.UUID `json:"id"`
	FullName *string   `json:"full_name,omitempty"`
}

type ReportDTO struct {
	ID        uuid.UUID          `json:"id"`
	Reason    string             `json:"reason"`
	Status    enums.ReportStatus `json:"status"`
	Review    ReportedReview     `json:"review"`
	Manager   Reporter           `json:"manager"`
	CreatedAt time.Time          `json:"created_at"`
}

// CreateInput is a manager's report about a review on their café.
type CreateInput struct {
	ReviewID uuid.UUID
	Reason   string
}

func fromRow(row Row) ReportDTO {
	return ReportDTO{
		ID:     row.ID,
		Reason: row.Reason,
		Status: row.Status,
		Review: ReportedReview{
			ID:       row.ReviewID,
			CafeID:   row.ReviewCafeID,
			CafeName: row.CafeName,
			Rating:   row.ReviewRating,
			Comment:  row.ReviewComment,
		},
		Manager:   Reporter{ID: row.ManagerID, FullName: row.ManagerFullName},
		CreatedAt: row.CreatedAt,
	}
}
