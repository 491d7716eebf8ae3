package admin

import (
	"context"

	"github.com/angelmondragon/delatte-backend/pkg/db/models"
	"github.com/angelmondragon/delatte-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository runs the dashboard counters.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.User{})
}

func (r *Repository) CountClients(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.Client{})
}

func (r *Repository) CountManagers(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.Manager{})
}

func (r *Repository) CountAdmins(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.Admin{})
}

func (r *Repository) CountCafes(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.Cafe{})
}

func (r *Repository) CountReviews(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.Review{})
}

func (r *Repository) CountPendingReports(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.ReviewReport{}, "status = ?", enums.ReportStatusPending)
}

func (r *Repository) count(ctx context.Context, model any, where ...any) (int64, error) {
	query := r.db.WithContext(ctx).Model(model)
	if len(where) > 0 {
		query = query.Where(where[0], where[1:]...)
	}
	var n int64
	if err := query.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
