package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/delatte-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes account and profile persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindBySubject retrieves the account for an identity-provider subject.
func (r *Repository) FindBySubject(ctx context.Context, subject string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("subject = ?", subject).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns every account, newest first.
func (r *Repository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateLastAccess refreshes the user's last_access_at timestamp.
func (r *Repository) UpdateLastAccess(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_access_at", at).Error
}

// SetActive flips the account flag.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumn("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateClientAccount inserts the account row and its client profile together.
func (r *Repository) CreateClientAccount(ctx context.Context, user *models.User, client *models.Client) error {
	if user == nil || client == nil {
		return fmt.Errorf("user and client are required")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		client.UserID = &user.ID
		client.Subject = user.Subject
		return tx.Create(client).Error
	})
}

// CreateManagerAccount inserts the account row and links it to the manager
// profile, adopting a profile created earlier by café registration.
func (r *Repository) CreateManagerAccount(ctx context.Context, user *models.User, manager *models.Manager) error {
	if user == nil || manager == nil {
		return fmt.Errorf("user and manager are required")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		var existing models.Manager
		err := tx.Where("subject = ?", user.Subject).First(&existing).Error
		switch {
		case err == nil:
			existing.UserID = &user.ID
			if err := tx.Model(&existing).UpdateColumn("user_id", user.ID).Error; err != nil {
				return err
			}
			*manager = existing
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		manager.UserID = &user.ID
		manager.Subject = user.Subject
		return tx.Create(manager).Error
	})
}

// CreateAdminAccount inserts the account row and its admin profile.
func (r *Repository) CreateAdminAccount(ctx context.Context, user *models.User, admin *models.Admin) error {
	if user == nil || admin == nil {
		return fmt.Errorf("user and admin are required")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		admin.UserID = user.ID
		admin.Subject = user.Subject
		return tx.Create(admin).Error
	})
}

// DeleteAccount removes the account with whichever role profile it owns.
// Reviews stay behind without an author profile.
func (r *Repository) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return err
		}
		clientIDs := tx.Model(&models.Client{}).Select("id").Where("subject = ?", user.Subject)
		if err := tx.Where("client_id IN (?)", clientIDs).Delete(&models.ClientFavorite{}).Error; err != nil {
			return err
		}
		for _, model := range []any{&models.Client{}, &models.Manager{}, &models.Admin{}} {
			if err := tx.Where("subject = ?", user.Subject).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&user).Error
	})
}

// FindClientBySubject loads the client profile of a subject.
func (r *Repository) FindClientBySubject(ctx context.Context, subject string) (*models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).Where("subject = ?", subject).First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// SaveClient persists every column of an existing client profile.
func (r *Repository) SaveClient(ctx context.Context, client *models.Client) error {
	if client == nil {
		return fmt.Errorf("client is required")
	}
	return r.db.WithContext(ctx).Save(client).Error
}

// FindManagerBySubject loads the manager profile of a subject.
func (r *Repository) FindManagerBySubject(ctx context.Context, subject string) (*models.Manager, error) {
	var manager models.Manager
	if err := r.db.WithContext(ctx).Where("subject = ?", subject).First(&manager).Error; err != nil {
		return nil, err
	}
	return &manager, nil
}

// CreateManager inserts a bare manager profile with no account row yet.
func (r *Repository) CreateManager(ctx context.Context, manager *models.Manager) error {
	if manager == nil {
		return fmt.Errorf("manager is required")
	}
	return r.db.WithContext(ctx).Create(manager).Error
}

// SaveManager persists every column of an existing manager profile.
func (r *Repository) SaveManager(ctx context.Context, manager *models.Manager) error {
	if manager == nil {
		return fmt.Errorf("manager is required")
	}
	return r.db.WithContext(ctx).Save(manager).Error
}

// AddFavorite links a café to a client. Duplicates surface as unique violations.
func (r *Repository) AddFavorite(ctx context.Context, clientID, cafeID uuid.UUID) error {
	return r.db.WithContext(ctx).Create(&models.ClientFavorite{ClientID: clientID, CafeID: cafeID}).Error
}

// HasFavorite reports whether the link exists.
func (r *Repository) HasFavorite(ctx context.Context, clientID, cafeID uuid.UUID) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).
		Model(&models.ClientFavorite{}).
		Where("client_id = ? AND cafe_id = ?", clientID, cafeID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// RemoveFavorite unlinks a café. Removing a missing favorite is not an error.
func (r *Repository) RemoveFavorite(ctx context.Context, clientID, cafeID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("client_id = ? AND cafe_id = ?", clientID, cafeID).
		Delete(&models.ClientFavorite{}).Error
}

// ListFavorites returns the client's favorite cafés, most recently added first.
func (r *Repository) ListFavorites(ctx context.Context, clientID uuid.UUID) ([]models.Cafe, error) {
	var cafes []models.Cafe
	if err := r.db.WithContext(ctx).
		Model(&models.Cafe{}).
		Select("cafes.*").
		Joins("JOIN client_favorites ON client_favorites.cafe_id = cafes.id").
		Where("client_favorites.client_id = ?", clientID).
		Order("client_favorites.created_at DESC").
		Find(&cafes).Error; err != nil {
		return nil, err
	}
	return cafes, nil
}

// CafeExists reports whether a café row exists, regardless of its flag.
func (r *Repository) CafeExists(ctx context.Context, cafeID uuid.UUID) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Cafe{}).Where("id = ?", cafeID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
