package reviews

import (
	"context"
	"fmt"

	"github.com/angelmondragon/delatte-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Row is a review joined with the author's public profile.
type Row struct {
	models.Review
	ClientFirstName      *string `gorm:"column:client_first_name"`
	ClientLastName       *string `gorm:"column:client_last_name"`
	ClientProfilePicture *string `gorm:"column:client_profile_picture"`
}

// CategoryLink pairs a review with one attached category.
type CategoryLink struct {
	ReviewID   uuid.UUID `gorm:"column:review_id"`
	CategoryID uuid.UUID `gorm:"column:category_id"`
	Name       string    `gorm:"column:name"`
}

const rowColumns = "reviews.*, clients.first_name AS client_first_name, clients.last_name AS client_last_name, clients.profile_picture AS client_profile_picture"

// Repository handles review persistence and the rating aggregate column on cafes.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to review operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the review together with its category links.
func (r *Repository) Create(ctx context.Context, review *models.Review, categoryIDs []uuid.UUID) error {
	if review == nil {
		return fmt.Errorf("review is required")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			return err
		}
		if len(categoryIDs) == 0 {
			return nil
		}
		links := make([]models.ReviewCategory, 0, len(categoryIDs))
		for _, id := range categoryIDs {
			links = append(links, models.ReviewCategory{ReviewID: review.ID, CategoryID: id})
		}
		return tx.Create(&links).Error
	})
}

// FindByID loads a review by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// FindByCafeAndClient returns the client's existing review of the café, if any.
func (r *Repository) FindByCafeAndClient(ctx context.Context, cafeID, clientID uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).
		Where("cafe_id = ? AND client_id = ?", cafeID, clientID).
		First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// Delete removes a review with its category links and moderation reports.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", id).Delete(&models.ReviewCategory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("review_id = ?", id).Delete(&models.ReviewReport{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Review{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ListForCafe returns the café's reviews newest first. limit <= 0 means all.
func (r *Repository) ListForCafe(ctx context.Context, cafeID uuid.UUID, limit int) ([]Row, error) {
	query := r.db.WithContext(ctx).
		Table("reviews").
		Select(rowColumns).
		Joins("LEFT JOIN clients ON clients.id = reviews.client_id").
		Where("reviews.cafe_id = ?", cafeID).
		Order("reviews.created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []Row
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// LatestForCafes returns up to perCafe newest reviews for each café in one query.
func (r *Repository) LatestForCafes(ctx context.Context, cafeIDs []uuid.UUID, perCafe int) ([]Row, error) {
	if len(cafeIDs) == 0 || perCafe <= 0 {
		return []Row{}, nil
	}
	var rows []Row
	err := r.db.WithContext(ctx).Raw(`
SELECT * FROM (
  SELECT `+rowColumns+`,
         ROW_NUMBER() OVER (PARTITION BY reviews.cafe_id ORDER BY reviews.created_at DESC) AS preview_rank
  FROM reviews
  LEFT JOIN clients ON clients.id = reviews.client_id
  WHERE reviews.cafe_id IN ?
) ranked
WHERE preview_rank <= ?
ORDER BY cafe_id, created_at DESC`, cafeIDs, perCafe).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CategoryNames maps review ids to the categories attached to them.
func (r *Repository) CategoryNames(ctx context.Context, reviewIDs []uuid.UUID) ([]CategoryLink, error) {
	if len(reviewIDs) == 0 {
		return nil, nil
	}
	var rows []CategoryLink
	if err := r.db.WithContext(ctx).
		Table("review_categories").
		Select("review_categories.review_id, review_categories.category_id, categories.name").
		Joins("JOIN categories ON categories.id = review_categories.category_id").
		Where("review_categories.review_id IN ?", reviewIDs).
		Order("categories.name ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Ratings returns every rating recorded for the café.
func (r *Repository) Ratings(ctx context.Context, cafeID uuid.UUID) ([]int, error) {
	var ratings []int
	if err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("cafe_id = ?", cafeID).
		Pluck("rating", &ratings).Error; err != nil {
		return nil, err
	}
	return ratings, nil
}

// SetAverageRating stores the materialized aggregate on the café row.
func (r *Repository) SetAverageRating(ctx context.Context, cafeID uuid.UUID, avg float64) error {
	return r.db.WithContext(ctx).
		Model(&models.Cafe{}).
		Where("id = ?", cafeID).
		UpdateColumn("average_rating", avg).Error
}
