package categories

import (
	"context"
	"fmt"

	"github.com/angelmondragon/delatte-backend/pkg/db/models"
	"github.com/angelmondragon/delatte-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository handles category persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to category operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new category row.
func (r *Repository) Create(ctx context.Context, category *models.Category) error {
	if category == nil {
		return fmt.Errorf("category is required")
	}
	return r.db.WithContext(ctx).Create(category).Error
}

// Save persists every column of an existing category.
func (r *Repository) Save(ctx context.Context, category *models.Category) error {
	if category == nil {
		return fmt.Errorf("category is required")
	}
	return r.db.WithContext(ctx).Save(category).Error
}

// FindByID loads a category by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByNormalizedName matches pending and active categories alike.
func (r *Repository) FindByNormalizedName(ctx context.Context, normalized string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).
		Where("normalized_name = ?", normalized).
		Order("created_at ASC").
		First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByIDs returns the categories among ids, in no particular order.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Category, error) {
	if len(ids) == 0 {
		return []models.Category{}, nil
	}
	var categories []models.Category
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// ListActive returns approved categories, optionally restricted to one type.
func (r *Repository) ListActive(ctx context.Context, categoryType *enums.CategoryType) ([]models.Category, error) {
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if categoryType != nil {
		query = query.Where("type = ?", *categoryType)
	}
	var categories []models.Category
	if err := query.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// ListPending returns suggestions awaiting approval, optionally filtered by origin.
func (r *Repository) ListPending(ctx context.Context, origin *enums.Role) ([]models.Category, error) {
	query := r.db.WithContext(ctx).Where("is_active = ?", false)
	if origin != nil {
		switch *origin {
		case enums.RoleClient:
			query = query.Where("created_by_client = ?", true)
		case enums.RoleManager:
			query = query.Where("created_by_manager = ?", true)
		}
	}
	var categories []models.Category
	if err := query.Order("created_at DESC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Activate flips a pending category to active. It reports false when the row
// was missing or already active.
func (r *Repository) Activate(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ? AND is_active = ?", id, false).
		Update("is_active", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Delete removes the category row. Cafés and reviews that referenced it are kept;
// only their link rows go with it.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
