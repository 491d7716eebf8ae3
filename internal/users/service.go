package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/delatte-backend/pkg/auth"
	"github.com/angelmondragon/delatte-backend/pkg/db"
	"github.com/angelmondragon/delatte-backend/pkg/db/models"
	"github.com/angelmondragon/delatte-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/delatte-backend/pkg/errors"
	"github.com/angelmondragon/delatte-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository interface {
	FindBySubject(ctx context.Context, subject string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateLastAccess(ctx context.Context, id uuid.UUID, at time.Time) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	CreateClientAccount(ctx context.Context, user *models.User, client *models.Client) error
	CreateManagerAccount(ctx context.Context, user *models.User, manager *models.Manager) error
	CreateAdminAccount(ctx context.Context, user *models.User, admin *models.Admin) error
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	FindClientBySubject(ctx context.Context, subject string) (*models.Client, error)
	SaveClient(ctx context.Context, client *models.Client) error
	FindManagerBySubject(ctx context.Context, subject string) (*models.Manager, error)
	SaveManager(ctx context.Context, manager *models.Manager) error
	AddFavorite(ctx context.Context, clientID, cafeID uuid.UUID) error
	HasFavorite(ctx context.Context, clientID, cafeID uuid.UUID) (bool, error)
	RemoveFavorite(ctx context.Context, clientID, cafeID uuid.UUID) error
	ListFavorites(ctx context.Context, clientID uuid.UUID) ([]models.Cafe, error)
	CafeExists(ctx context.Context, cafeID uuid.UUID) (bool, error)
}

// Service manages accounts, role resolution and the client/manager profiles.
type Service interface {
	SyncClient(ctx context.Context, principal auth.Principal, input SyncClientInput) (*AccountDTO, error)
	SyncManager(ctx context.Context, principal auth.Principal, input SyncManagerInput) (*AccountDTO, error)
	EnsureAdmin(ctx context.Context, subject, email, fullName string) (*UserDTO, bool, error)
	Role(ctx context.Context, subject string) (*RoleDTO, error)
	ResolveRole(ctx context.Context, subject string) (enums.Role, error)

	GetClient(ctx context.Context, subject string) (*ClientDTO, error)
	UpdateClient(ctx context.Context, subject string, input ClientUpdate) (*ClientDTO, error)
	DeleteClient(ctx context.Context, subject string) error
	UpdatePreferences(ctx context.Context, subject string, preferences []string) ([]string, error)
	UpdateSocialLinks(ctx context.Context, subject string, links types.SocialLinks) (types.SocialLinks, error)
	ListFavorites(ctx context.Context, subject string) ([]FavoriteDTO, error)
	AddFavorite(ctx context.Context, subject string, cafeID uuid.UUID) error
	RemoveFavorite(ctx context.Context, subject string, cafeID uuid.UUID) error

	GetManager(ctx context.Context, subject string) (*ManagerDTO, error)
	UpdateManager(ctx context.Context, subject string, input ManagerUpdate) (*ManagerDTO, error)

	ListUsers(ctx context.Context) ([]UserDTO, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*UserDTO, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo userRepository
	now  func() time.Time
}

// NewService builds the account service.
func NewService(repo userRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) SyncClient(ctx context.Context, principal auth.Principal, input SyncClientInput) (*AccountDTO, error) {
	user, created, err := s.sync(ctx, principal, input.Email, enums.RoleClient, func(u *models.User) error {
		first := strings.TrimSpace(input.FirstName)
		if first == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "first_name is required")
		}
		client := &models.Client{
			FirstName:      first,
			LastName:       strings.TrimSpace(input.LastName),
			ProfilePicture: trimOptional(input.ProfilePicture),
			Preferences:    types.StringList{},
		}
		return s.repo.CreateClientAccount(ctx, u, client)
	})
	if err != nil {
		return nil, err
	}
	out := &AccountDTO{User: FromModel(*user), Created: created}
	if client, err := s.repo.FindClientBySubject(ctx, user.Subject); err == nil {
		dto := clientFromModel(*client)
		out.Client = &dto
	}
	return out, nil
}

func (s *service) SyncManager(ctx context.Context, principal auth.Principal, input SyncManagerInput) (*AccountDTO, error) {
	user, created, err := s.sync(ctx, principal, input.Email, enums.RoleManager, func(u *models.User) error {
		fullName := strings.TrimSpace(strings.TrimSpace(input.FirstName) + " " + strings.TrimSpace(input.LastName))
		manager := &models.Manager{FullName: fullName, Phone: strings.TrimSpace(input.Phone)}
		return s.repo.CreateManagerAccount(ctx, u, manager)
	})
	if err != nil {
		return nil, err
	}
	out := &AccountDTO{User: FromModel(*user), Created: created}
	if manager, err := s.repo.FindManagerBySubject(ctx, user.Subject); err == nil {
		dto := managerFromModel(*manager)
		out.Manager = &dto
	}
	return out, nil
}

func (s *service) EnsureAdmin(ctx context.Context, subject, email, fullName string) (*UserDTO, bool, error) {
	user, created, err := s.sync(ctx, auth.Principal{Subject: subject, Email: email}, email, enums.RoleAdmin, func(u *models.User) error {
		return s.repo.CreateAdminAccount(ctx, u, &models.Admin{FullName: strings.TrimSpace(fullName)})
	})
	if err != nil {
		return nil, false, err
	}
	dto := FromModel(*user)
	return &dto, created, nil
}

// sync returns the existing account for the subject or creates it with the
// given role. An existing account holding another role is a conflict.
func (s *service) sync(ctx context.Context, principal auth.Principal, fallbackEmail string, role enums.Role, create func(*models.User) error) (*models.User, bool, error) {
	subject := strings.TrimSpace(principal.Subject)
	if subject == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeUnauthorized, "token subject missing")
	}

	existing, err := s.repo.FindBySubject(ctx, subject)
	switch {
	case err == nil:
		if existing.Role != role {
			return nil, false, pkgerrors.Newf(pkgerrors.CodeConflict, "account already registered as %s", existing.Role)
		}
		now := s.now().UTC()
		if err := s.repo.UpdateLastAccess(ctx, existing.ID, now); err != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch account")
		}
		existing.LastAccessAt = &now
		return existing, false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}

	email := strings.ToLower(strings.TrimSpace(principal.Email))
	if email == "" {
		email = strings.ToLower(strings.TrimSpace(fallbackEmail))
	}
	if email == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	now := s.now().UTC()
	user := &models.User{
		Subject:      subject,
		Email:        email,
		Role:         role,
		IsActive:     true,
		LastAccessAt: &now,
	}
	if err := create(user); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, false, typed
		}
		if db.IsUniqueViolation(err, "") {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already registered")
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
	}
	return user, true, nil
}

func (s *service) Role(ctx context.Context, subject string) (*RoleDTO, error) {
	user, err := s.repo.FindBySubject(ctx, subject)
	if err != nil {
		return nil, notFoundOr(err, "user not found", "load account")
	}
	return &RoleDTO{Role: user.Role, IsActive: user.IsActive}, nil
}

// ResolveRole maps a verified subject onto its role for authorization.
// Unknown subjects are NotFound; deactivated accounts are Forbidden.
func (s *service) ResolveRole(ctx context.Context, subject string) (enums.Role, error) {
	user, err := s.repo.FindBySubject(ctx, subject)
	if err != nil {
		return "", notFoundOr(err, "account not registered", "load account")
	}
	if !user.IsActive {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "account disabled")
	}
	return user.Role, nil
}

func (s *service) GetClient(ctx context.Context, subject string) (*ClientDTO, error) {
	client, err := s.client(ctx, subject)
	if err != nil {
		return nil, err
	}
	dto := clientFromModel(*client)
	return &dto, nil
}

func (s *service) UpdateClient(ctx context.Context, subject string, input ClientUpdate) (*ClientDTO, error) {
	client, err := s.client(ctx, subject)
	if err != nil {
		return nil, err
	}
	if input.FirstName != nil {
		first := strings.TrimSpace(*input.FirstName)
		if first == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first_name cannot be empty")
		}
		client.FirstName = first
	}
	if input.LastName != nil {
		client.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.ProfilePicture != nil {
		client.ProfilePicture = trimOptional(input.ProfilePicture)
	}
	if input.Bio != nil {
		client.Bio = trimOptional(input.Bio)
	}
	if err := s.repo.SaveClient(ctx, client); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update client")
	}
	dto := clientFromModel(*client)
	return &dto, nil
}

func (s *service) DeleteClient(ctx context.Context, subject string) error {
	if _, err := s.client(ctx, subject); err != nil {
		return err
	}
	user, err := s.repo.FindBySubject(ctx, subject)
	if err != nil {
		return notFoundOr(err, "user not found", "load account")
	}
	if err := s.repo.DeleteAccount(ctx, user.ID); err != nil {
		return notFoundOr(err, "user not found", "delete account")
	}
	return nil
}

func (s *service) UpdatePreferences(ctx context.Context, subject string, preferences []string) ([]string, error) {
	client, err := s.client(ctx, subject)
	if err != nil {
		return nil, err
	}
	cleaned := make(types.StringList, 0, len(preferences))
	seen := map[string]struct{}{}
	for _, p := range preferences {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		cleaned = append(cleaned, p)
	}
	client.Preferences = cleaned
	if err := s.repo.SaveClient(ctx, client); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update preferences")
	}
	return []string(cleaned), nil
}

func (s *service) UpdateSocialLinks(ctx context.Context, subject string, links types.SocialLinks) (types.SocialLinks, error) {
	links = types.SocialLinks{
		Instagram: strings.TrimSpace(links.Instagram),
		Twitter:   strings.TrimSpace(links.Twitter),
		Facebook:  strings.TrimSpace(links.Facebook),
		TikTok:    strings.TrimSpace(links.TikTok),
		Website:   strings.TrimSpace(links.Website),
	}
	if invalid := links.Invalid(); len(invalid) > 0 {
		return types.SocialLinks{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid social links").WithDetails(invalid)
	}
	client, err := s.client(ctx, subject)
	if err != nil {
		return types.SocialLinks{}, err
	}
	client.SocialLinks = links
	if err := s.repo.SaveClient(ctx, client); err != nil {
		return types.SocialLinks{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update social links")
	}
	return links, nil
}

func (s *service) ListFavorites(ctx context.Context, subject string) ([]FavoriteDTO, error) {
	client, err := s.client(ctx, subject)
	if err != nil {
		return nil, err
	}
	cafes, err := s.repo.ListFavorites(ctx, client.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list favorites")
	}
	out := make([]FavoriteDTO, 0, len(cafes))
	for _, c := range cafes {
		out = append(out, favoriteFromModel(c))
	}
	return out, nil
}

func (s *service) AddFavorite(ctx context.Context, subject string, cafeID uuid.UUID) error {
	client, err := s.client(ctx, subject)
	if err != nil {
		return err
	}
	exists, err := s.repo.CafeExists(ctx, cafeID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cafe")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cafe not found")
	}
	already, err := s.repo.HasFavorite(ctx, client.ID, cafeID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check favorite")
	}
	if already {
		return pkgerrors.New(pkgerrors.CodeConflict, "cafe already in favorites")
	}
	if err := s.repo.AddFavorite(ctx, client.ID, cafeID); err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cafe already in favorites")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add favorite")
	}
	return nil
}

func (s *service) RemoveFavorite(ctx context.Context, subject string, cafeID uuid.UUID) error {
	client, err := s.client(ctx, subject)
	if err != nil {
		return err
	}
	if err := s.repo.RemoveFavorite(ctx, client.ID, cafeID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove favorite")
	}
	return nil
}

func (s *service) GetManager(ctx context.Context, subject string) (*ManagerDTO, error) {
	manager, err := s.repo.FindManagerBySubject(ctx, subject)
	if err != nil {
		return nil, notFoundOr(err, "manager not found", "load manager")
	}
	dto := managerFromModel(*manager)
	return &dto, nil
}

func (s *service) UpdateManager(ctx context.Context, subject string, input ManagerUpdate) (*ManagerDTO, error) {
	manager, err := s.repo.FindManagerBySubject(ctx, subject)
	if err != nil {
		return nil, notFoundOr(err, "manager not found", "load manager")
	}
	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "full_name cannot be empty")
		}
		manager.FullName = name
	}
	if input.Phone != nil {
		manager.Phone = strings.TrimSpace(*input.Phone)
	}
	if err := s.repo.SaveManager(ctx, manager); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update manager")
	}
	dto := managerFromModel(*manager)
	return &dto, nil
}

func (s *service) ListUsers(ctx context.Context) ([]UserDTO, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	return FromModels(list), nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*UserDTO, error) {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, notFoundOr(err, "user not found", "update user")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user not found", "load user")
	}
	dto := FromModel(*user)
	return &dto, nil
}

func (s *service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteAccount(ctx, id); err != nil {
		return notFoundOr(err, "user not found", "delete user")
	}
	return nil
}

func (s *service) client(ctx context.Context, subject string) (*models.Client, error) {
	client, err := s.repo.FindClientBySubject(ctx, subject)
	if err != nil {
		return nil, notFoundOr(err, "client not found", "load client")
	}
	return client, nil
}

func notFoundOr(err error, notFound, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
