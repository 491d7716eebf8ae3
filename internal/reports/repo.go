package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/delatte-backend/pkg/db/models"
	"github.com/angelmondragon/delatte-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Row is a report joined with the reported review, its café and the reporter.
type Row struct {
	models.ReviewReport
	ReviewCafeID    *uuid.UUID `gorm:"column:review_cafe_id"`
	ReviewRating    *int       `gorm:"column:review_rating"`
	ReviewComment   *string    `gorm:"column:review_comment"`
	CafeName        *string    `gorm:"column:cafe_name"`
	ManagerFullName *string    `gorm:"column:manager_full_name"`
}

const rowColumns = "review_reports.*, reviews.cafe_id AS review_cafe_id, reviews.rating AS review_rating, " +
	"reviews.comment AS review_comment, cafes.name AS cafe_name, managers.full_name AS manager_full_name"

// ReviewOwnership is the café a review belongs to and that café's manager.
type ReviewOwnership struct {
	ReviewID  uuid.UUID  `gorm:"column:review_id"`
	CafeID    uuid.UUID  `gorm:"column:cafe_id"`
	ManagerID *uuid.UUID `gorm:"column:manager_id"`
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, report *models.ReviewReport) error {
	if report == nil {
		return fmt.Errorf("report is required")
	}
	return r.db.WithContext(ctx).Create(report).Error
}

// ReviewOwnership resolves which manager may report a review.
func (r *Repository) ReviewOwnership(ctx context.Context, reviewID uuid.UUID) (*ReviewOwnership, error) {
	var out ReviewOwnership
	res := r.db.WithContext(ctx).
		Table("reviews").
		Select("reviews.id AS review_id, reviews.cafe_id, cafes.manager_id").
		Joins("LEFT JOIN cafes ON cafes.id = reviews.cafe_id").
		Where("reviews.id = ?", reviewID).
		Limit(1).
		Scan(&out)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &out, nil
}

// List returns reports newest first, optionally restricted to one status.
func (r *Repository) List(ctx context.Context, status *enums.ReportStatus) ([]Row, error) {
	query := r.joined(ctx)
	if status != nil {
		query = query.Where("review_reports.status = ?", *status)
	}
	var rows []Row
	if err := query.Order("review_reports.created_at DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) FindRow(ctx context.Context, id uuid.UUID) (*Row, error) {
	var rows []Row
	if err := r.joined(ctx).Where("review_reports.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

// SetStatus moves a report to the given moderation state.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status enums.ReportStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.ReviewReport{}).
		Where("id = ?", id).
		UpdateColumn("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) CountByStatus(ctx context.Context, status enums.ReportStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ReviewReport{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

// DeleteResolvedBefore purges reviewed and dismissed reports filed before cutoff.
func (r *Repository) DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status <> ? AND created_at < ?", enums.ReportStatusPending, cutoff).
		Delete(&models.ReviewReport{})
	return res.RowsAffected, res.Error
}

func (r *Repository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("review_reports").
		Select(rowColumns).
		Joins("LEFT JOIN reviews ON reviews.id = review_reports.review_id").
		Joins("LEFT JOIN cafes ON cafes.id = reviews.cafe_id").
		Joins("LEFT JOIN managers ON managers.id = review_reports.manager_id")
}
