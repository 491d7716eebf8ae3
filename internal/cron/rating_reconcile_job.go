package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/delatte-backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

type cafeLister interface {
	IDs(ctx context.Context) ([]uuid.UUID, error)
}

type ratingRecomputer interface {
	Recompute(ctx context.Context, cafeID uuid.UUID) (float64, error)
}

type RatingReconcileJobParams struct {
	Logger     *logger.Logger
	Cafes      cafeLister
	Aggregator ratingRecomputer
}

// NewRatingReconcileJob rewrites every café's average rating from its reviews.
// It repairs aggregates left stale by writes that bypassed the review service.
func NewRatingReconcileJob(params RatingReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Cafes == nil {
		return nil, fmt.Errorf("cafe lister required")
	}
	if params.Aggregator == nil {
		return nil, fmt.Errorf("rating aggregator required")
	}
	return &ratingReconcileJob{logg: params.Logger, cafes: params.Cafes, aggregator: params.Aggregator}, nil
}

type ratingReconcileJob struct {
	logg       *logger.Logger
	cafes      cafeLister
	aggregator ratingRecomputer
}

func (j *ratingReconcileJob) Name() string { return "rating-reconcile" }

func (j *ratingReconcileJob) Run(ctx context.Context) error {
	ids, err := j.cafes.IDs(ctx)
	if err != nil {
		return fmt.Errorf("list cafes: %w", err)
	}
	var errs error
	failed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return multierr.Append(errs, ctx.Err())
		}
		if _, err := j.aggregator.Recompute(ctx, id); err != nil {
			failed++
			errs = multierr.Append(errs, fmt.Errorf("cafe %s: %w", id, err))
		}
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cafes":  len(ids),
		"failed": failed,
	}), "rating reconcile complete")
	return errs
}
