package cafes

import (
	"context"
	"fmt"

	"github.com/angelmondragon/delatte-backend/pkg/db/models"
	"github.com/angelmondragon/delatte-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// managedColumns are the café columns a manager or admin write may touch.
// average_rating is owned by the rating aggregator and never written here.
var managedColumns = []string{
	"name", "normalized_name", "address", "location_lat", "location_lng",
	"description", "normalized_description", "gallery", "cover_image",
	"schedule", "is_active", "updated_at",
}

// CategoryLink is one category attached to a café, with its display name.
type CategoryLink struct {
	CafeID     uuid.UUID          `gorm:"column:cafe_id"`
	CategoryID uuid.UUID          `gorm:"column:category_id"`
	Kind       enums.CategoryType `gorm:"column:kind"`
	Position   int                `gorm:"column:position"`
	Name       string             `gorm:"column:name"`
}

// Repository handles café, menu and café-category persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to café operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the café and its ordered structural categories.
func (r *Repository) Create(ctx context.Context, cafe *models.Cafe, structural []uuid.UUID) error {
	if cafe == nil {
		return fmt.Errorf("cafe is required")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(cafe).Error; err != nil {
			return err
		}
		return insertStructural(tx, cafe.ID, structural)
	})
}

// Update writes the managed columns and, when structural is non-nil, replaces
// the structural category list.
func (r *Repository) Update(ctx context.Context, cafe *models.Cafe, structural *[]uuid.UUID) error {
	if cafe == nil {
		return fmt.Errorf("cafe is required")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(cafe).Select(managedColumns).Updates(cafe)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if structural == nil {
			return nil
		}
		if err := tx.Where("cafe_id = ? AND kind = ?", cafe.ID, enums.CategoryTypeStructural).
			Delete(&models.CafeCategory{}).Error; err != nil {
			return err
		}
		return insertStructural(tx, cafe.ID, *structural)
	})
}

func insertStructural(tx *gorm.DB, cafeID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	links := make([]models.CafeCategory, 0, len(ids))
	for i, id := range ids {
		links = append(links, models.CafeCategory{
			CafeID:     cafeID,
			CategoryID: id,
			Kind:       enums.CategoryTypeStructural,
			Position:   i,
		})
	}
	return tx.Create(&links).Error
}

// FindByID loads a café regardless of its active flag.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Cafe, error) {
	var cafe models.Cafe
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&cafe).Error; err != nil {
		return nil, err
	}
	return &cafe, nil
}

// FindByManagerID loads the café owned by a manager.
func (r *Repository) FindByManagerID(ctx context.Context, managerID uuid.UUID) (*models.Cafe, error) {
	var cafe models.Cafe
	if err := r.db.WithContext(ctx).Where("manager_id = ?", managerID).First(&cafe).Error; err != nil {
		return nil, err
	}
	return &cafe, nil
}

// SetActive flips the visibility flag.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := r.db.WithContext(ctx).Model(&models.Cafe{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AttachPerceptual adds categories to the café's perceptual set. Categories
// already linked in any role are left untouched.
func (r *Repository) AttachPerceptual(ctx context.Context, cafeID uuid.UUID, categoryIDs []uuid.UUID) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []uuid.UUID
		if err := tx.Model(&models.CafeCategory{}).
			Where("cafe_id = ?", cafeID).
			Pluck("category_id", &existing).Error; err != nil {
			return err
		}
		seen := make(map[uuid.UUID]struct{}, len(existing))
		for _, id := range existing {
			seen[id] = struct{}{}
		}

		var next int
		if err := tx.Model(&models.CafeCategory{}).
			Where("cafe_id = ? AND kind = ?", cafeID, enums.CategoryTypePerceptual).
			Select("COALESCE(MAX(position) + 1, 0)").
			Scan(&next).Error; err != nil {
			return err
		}

		var links []models.CafeCategory
		for _, id := range categoryIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			links = append(links, models.CafeCategory{
				CafeID:     cafeID,
				CategoryID: id,
				Kind:       enums.CategoryTypePerceptual,
				Position:   next,
			})
			next++
		}
		if len(links) == 0 {
			return nil
		}
		return tx.Create(&links).Error
	})
}

// CategoryLinks returns the active categories attached to the given cafés,
// structural entries in the manager's order.
func (r *Repository) CategoryLinks(ctx context.Context, cafeIDs []uuid.UUID) ([]CategoryLink, error) {
	if len(cafeIDs) == 0 {
		return []CategoryLink{}, nil
	}
	var links []CategoryLink
	err := r.db.WithContext(ctx).
		Table("cafe_categories").
		Select("cafe_categories.cafe_id, cafe_categories.category_id, cafe_categories.kind, cafe_categories.position, categories.name").
		Joins("JOIN categories ON categories.id = cafe_categories.category_id").
		Where("cafe_categories.cafe_id IN ?", cafeIDs).
		Where("categories.is_active = ?", true).
		Order("cafe_categories.position ASC").
		Scan(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

// ManagerName returns the owner's display name, or "" when no manager row exists.
func (r *Repository) ManagerName(ctx context.Context, managerID uuid.UUID) (string, error) {
	var names []string
	if err := r.db.WithContext(ctx).
		Model(&models.Manager{}).
		Where("id = ?", managerID).
		Pluck("full_name", &names).Error; err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", nil
	}
	return names[0], nil
}

// Delete removes the café with its reviews, menu, category links and
// favorites. Categories themselves are kept.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviewIDs := tx.Model(&models.Review{}).Select("id").Where("cafe_id = ?", id)
		if err := tx.Where("review_id IN (?)", reviewIDs).Delete(&models.ReviewCategory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("review_id IN (?)", reviewIDs).Delete(&models.ReviewReport{}).Error; err != nil {
			return err
		}
		for _, model := range []any{&models.Review{}, &models.MenuItem{}, &models.CafeCategory{}, &models.ClientFavorite{}} {
			if err := tx.Where("cafe_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", id).Delete(&models.Cafe{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ListMenu returns the menu of a café in display order.
func (r *Repository) ListMenu(ctx context.Context, cafeID uuid.UUID) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := r.db.WithContext(ctx).
		Where("cafe_id = ?", cafeID).
		Order("position ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// AddMenuItems appends items after the current last position.
func (r *Repository) AddMenuItems(ctx context.Context, cafeID uuid.UUID, items []models.MenuItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next int
		if err := tx.Model(&models.MenuItem{}).
			Where("cafe_id = ?", cafeID).
			Select("COALESCE(MAX(position) + 1, 0)").
			Scan(&next).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].CafeID = cafeID
			items[i].Position = next + i
		}
		return tx.Create(&items).Error
	})
}

// FindMenuItem loads one item scoped to its café.
func (r *Repository) FindMenuItem(ctx context.Context, cafeID, itemID uuid.UUID) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.db.WithContext(ctx).
		Where("id = ? AND cafe_id = ?", itemID, cafeID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// SaveMenuItem persists every column of an existing item.
func (r *Repository) SaveMenuItem(ctx context.Context, item *models.MenuItem) error {
	if item == nil {
		return fmt.Errorf("menu item is required")
	}
	return r.db.WithContext(ctx).Save(item).Error
}

// DeleteMenuItem removes one item scoped to its café.
func (r *Repository) DeleteMenuItem(ctx context.Context, cafeID, itemID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND cafe_id = ?", itemID, cafeID).Delete(&models.MenuItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IDs lists every café id, active or not.
func (r *Repository) IDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.Cafe{}).Order("created_at ASC").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
