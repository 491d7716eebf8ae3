package reviews

import (
	"context"
	"fmt"

	pkgerrors "github.com/angelmondragon/delatte-backend/pkg/errors"
	"github.com/angelmondragon/delatte-backend/pkg/metrics"
	"github.com/google/uuid"
)

type ratingStore interface {
	Ratings(ctx context.Context, cafeID uuid.UUID) ([]int, error)
	SetAverageRating(ctx context.Context, cafeID uuid.UUID, avg float64) error
}

// Aggregator keeps cafes.average_rating equal to the mean of the café's reviews.
// It must run after every review insert or delete; nothing recomputes lazily.
type Aggregator struct {
	store   ratingStore
	metrics *metrics.DomainMetrics
}

// NewAggregator builds an aggregator. metrics may be nil.
func NewAggregator(store ratingStore, m *metrics.DomainMetrics) (*Aggregator, error) {
	if store == nil {
		return nil, fmt.Errorf("rating store required")
	}
	return &Aggregator{store: store, metrics: m}, nil
}

// Recompute reads all ratings for the café and persists their mean.
func (a *Aggregator) Recompute(ctx context.Context, cafeID uuid.UUID) (avg float64, err error) {
	defer func() { a.metrics.IncRatingRecompute(err) }()

	ratings, err := a.store.Ratings(ctx, cafeID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ratings")
	}
	avg = Mean(ratings)
	if err := a.store.SetAverageRating(ctx, cafeID, avg); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store average rating")
	}
	return avg, nil
}

// Mean is the arithmetic mean of ratings, or 0 for none.
func Mean(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	total := 0
	for _, r := range ratings {
		total += r
	}
	return float64(total) / float64(len(ratings))
}
