package cafes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/delatte-backend/internal/reviews"
	"github.com/angelmondragon/delatte-backend/pkg/db"
	"github.com/angelmondragon/delatte-backend/pkg/db/models"
	"github.com/angelmondragon/delatte-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/delatte-backend/pkg/errors"
	"github.com/angelmondragon/delatte-backend/pkg/metrics"
	"github.com/angelmondragon/delatte-backend/pkg/schedule"
	"github.com/angelmondragon/delatte-backend/pkg/textnorm"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultPreviewSize = 2
	defaultManagerName = "Sin nombre"
)

type cafeRepository interface {
	Create(ctx context.Context, cafe *models.Cafe, structural []uuid.UUID) error
	Update(ctx context.Context, cafe *models.Cafe, structural *[]uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Cafe, error)
	FindByManagerID(ctx context.Context, managerID uuid.UUID) (*models.Cafe, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	CategoryLinks(ctx context.Context, cafeIDs []uuid.UUID) ([]CategoryLink, error)
	ManagerName(ctx context.Context, managerID uuid.UUID) (string, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, f SearchFilter) ([]models.Cafe, error)
	ReviewCounts(ctx context.Context, cafeIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	ListMenu(ctx context.Context, cafeID uuid.UUID) ([]models.MenuItem, error)
	AddMenuItems(ctx context.Context, cafeID uuid.UUID, items []models.MenuItem) error
	FindMenuItem(ctx context.Context, cafeID, itemID uuid.UUID) (*models.MenuItem, error)
	SaveMenuItem(ctx context.Context, item *models.MenuItem) error
	DeleteMenuItem(ctx context.Context, cafeID, itemID uuid.UUID) error
}

type categoryLookup interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Category, error)
}

type reviewReader interface {
	ListForCafe(ctx context.Context, cafeID uuid.UUID) ([]reviews.ReviewDTO, error)
	Previews(ctx context.Context, cafeIDs []uuid.UUID, perCafe int) (map[uuid.UUID][]reviews.ReviewDTO, error)
	StatsForCafe(ctx context.Context, cafeID uuid.UUID) (*reviews.CafeStats, error)
}

type managerStore interface {
	FindManagerBySubject(ctx context.Context, subject string) (*models.Manager, error)
	CreateManager(ctx context.Context, manager *models.Manager) error
}

// Options tunes search output. Zero values pick the defaults.
type Options struct {
	ReviewPreview int
	Clock         schedule.Clock
}

// Service exposes café discovery and the manager/admin café lifecycle.
type Service interface {
	Search(ctx context.Context, f SearchFilter) ([]Summary, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error)

	RegisterForManager(ctx context.Context, subject string, input RegisterInput) (*Managed, error)
	GetForManager(ctx context.Context, subject string) (*Detail, error)
	UpdateForManager(ctx context.Context, subject string, input UpdateInput) (*Managed, error)
	ToggleActiveForManager(ctx context.Context, subject string) (*Detail, error)
	UpdateScheduleForManager(ctx context.Context, subject string, s schedule.WeeklySchedule) (schedule.WeeklySchedule, error)
	ManagerStats(ctx context.Context, subject string) (*ManagerStats, error)

	AddMenuItems(ctx context.Context, subject string, cafeID uuid.UUID, items []MenuItemInput) ([]MenuItemDTO, error)
	UpdateMenuItem(ctx context.Context, subject string, cafeID, itemID uuid.UUID, patch MenuItemPatch) (*MenuItemDTO, error)
	DeleteMenuItem(ctx context.Context, subject string, cafeID, itemID uuid.UUID) error

	SetActive(ctx context.Context, id uuid.UUID, active bool) (*Detail, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo        cafeRepository
	categories  categoryLookup
	reviews     reviewReader
	managers    managerStore
	clock       schedule.Clock
	previewSize int
	metrics     *metrics.DomainMetrics
}

// NewService wires the café service. metrics may be nil.
func NewService(repo cafeRepository, categorySvc categoryLookup, reviewSvc reviewReader, managers managerStore, opts Options, m *metrics.DomainMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cafe repository required")
	}
	if categorySvc == nil {
		return nil, fmt.Errorf("category lookup required")
	}
	if reviewSvc == nil {
		return nil, fmt.Errorf("review reader required")
	}
	if managers == nil {
		return nil, fmt.Errorf("manager store required")
	}
	preview := opts.ReviewPreview
	if preview <= 0 {
		preview = defaultPreviewSize
	}
	return &service{
		repo:        repo,
		categories:  categorySvc,
		reviews:     reviewSvc,
		managers:    managers,
		clock:       opts.Clock,
		previewSize: preview,
		metrics:     m,
	}, nil
}

// Search filters, sorts and paginates in the database, then drops cafés that
// are closed right now when OpenNow is set. The page can therefore come back
// shorter than Limit.
func (s *service) Search(ctx context.Context, f SearchFilter) ([]Summary, error) {
	started := time.Now()
	if f.SortBy == "" {
		f.SortBy = SortCreatedAt
	}

	rows, err := s.repo.Search(ctx, f)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search cafes")
	}
	if f.OpenNow {
		open := rows[:0]
		for _, cafe := range rows {
			if s.clock.IsOpenNow(cafe.Schedule) {
				open = append(open, cafe)
			}
		}
		rows = open
	}

	out := make([]Summary, 0, len(rows))
	if len(rows) == 0 {
		s.metrics.ObserveSearch(string(f.SortBy), time.Since(started), 0)
		return out, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, cafe := range rows {
		ids = append(ids, cafe.ID)
	}
	links, err := s.repo.CategoryLinks(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cafe categories")
	}
	counts, err := s.repo.ReviewCounts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count reviews")
	}
	previews, err := s.reviews.Previews(ctx, ids, s.previewSize)
	if err != nil {
		return nil, err
	}

	structural, perceptual := refsByCafe(links)
	for _, cafe := range rows {
		latest := previews[cafe.ID]
		if latest == nil {
			latest = []reviews.ReviewDTO{}
		}
		out = append(out, Summary{
			ID:                   cafe.ID,
			Name:                 cafe.Name,
			Address:              cafe.Address,
			Location:             cafe.Location,
			Description:          cafe.Description,
			AverageRating:        cafe.AverageRating,
			ReviewCount:          counts[cafe.ID],
			Categories:           nonNilRefs(structural[cafe.ID]),
			PerceptualCategories: nonNilRefs(perceptual[cafe.ID]),
			CoverImage:           cafe.CoverImage,
			Gallery:              nonNilStrings(cafe.Gallery),
			Reviews:              latest,
			CreatedAt:            cafe.CreatedAt,
		})
	}
	s.metrics.ObserveSearch(string(f.SortBy), time.Since(started), len(out))
	return out, nil
}

// GetDetail returns the public profile. Hidden cafés are reported as missing.
func (s *service) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	cafe, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "cafe not found", "load cafe")
	}
	if !cafe.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cafe not found")
	}
	return s.detail(ctx, cafe, true)
}

func (s *service) RegisterForManager(ctx context.Context, subject string, input RegisterInput) (*Managed, error) {
	manager, err := s.managers.FindManagerBySubject(ctx, subject)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		name := strings.TrimSpace(input.ManagerName)
		if name == "" {
			name = defaultManagerName
		}
		manager = &models.Manager{Subject: subject, FullName: name}
		if err := s.managers.CreateManager(ctx, manager); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create manager")
		}
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load manager")
	}

	if _, err := s.repo.FindByManagerID(ctx, manager.ID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "manager already has a cafe")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing cafe")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	weekly := input.Schedule
	if weekly == nil {
		weekly = schedule.WeeklySchedule{}
	}
	if err := weekly.Validate(); err != nil {
		return nil, scheduleError(err)
	}
	structural, ignored, err := s.structuralCategories(ctx, input.CategoryIDs, weekly, input.Schedule != nil)
	if err != nil {
		return nil, err
	}

	managerID := manager.ID
	cafe := &models.Cafe{
		Name:        name,
		Address:     strings.TrimSpace(input.Address),
		Location:    input.Location,
		Description: strings.TrimSpace(input.Description),
		Gallery:     cleanGallery(input.Gallery),
		CoverImage:  trimOptional(input.CoverImage),
		Schedule:    weekly,
		ManagerID:   &managerID,
		IsActive:    true,
	}
	applyDerived(cafe)
	if err := s.repo.Create(ctx, cafe, structural); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "manager already has a cafe")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cafe")
	}
	return s.managed(ctx, cafe, ignored)
}

func (s *service) GetForManager(ctx context.Context, subject string) (*Detail, error) {
	cafe, err := s.cafeOfManager(ctx, subject)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, cafe, false)
}

func (s *service) UpdateForManager(ctx context.Context, subject string, input UpdateInput) (*Managed, error) {
	cafe, err := s.cafeOfManager(ctx, subject)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		cafe.Name = name
	}
	if input.Address != nil {
		cafe.Address = strings.TrimSpace(*input.Address)
	}
	if input.Description != nil {
		cafe.Description = strings.TrimSpace(*input.Description)
	}
	if input.Location != nil {
		cafe.Location = *input.Location
	}
	if input.Gallery != nil {
		cafe.Gallery = cleanGallery(*input.Gallery)
	}
	if input.CoverImage != nil {
		cafe.CoverImage = trimOptional(input.CoverImage)
	}
	if input.Schedule != nil {
		if err := input.Schedule.Validate(); err != nil {
			return nil, scheduleError(err)
		}
		cafe.Schedule = *input.Schedule
	}

	var structural *[]uuid.UUID
	var ignored []string
	if input.CategoryIDs != nil {
		kept, rejected, err := s.structuralCategories(ctx, *input.CategoryIDs, cafe.Schedule, input.Schedule != nil)
		if err != nil {
			return nil, err
		}
		structural = &kept
		ignored = rejected
	}

	applyDerived(cafe)
	if err := s.repo.Update(ctx, cafe, structural); err != nil {
		return nil, notFoundOr(err, "cafe not found", "update cafe")
	}
	return s.managed(ctx, cafe, ignored)
}

func (s *service) ToggleActiveForManager(ctx context.Context, subject string) (*Detail, error) {
	cafe, err := s.cafeOfManager(ctx, subject)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, cafe.ID, !cafe.IsActive); err != nil {
		return nil, notFoundOr(err, "cafe not found", "toggle cafe")
	}
	cafe.IsActive = !cafe.IsActive
	return s.detail(ctx, cafe, false)
}

func (s *service) UpdateScheduleForManager(ctx context.Context, subject string, weekly schedule.WeeklySchedule) (schedule.WeeklySchedule, error) {
	if weekly == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "schedule is required")
	}
	if err := weekly.Validate(); err != nil {
		return nil, scheduleError(err)
	}
	cafe, err := s.cafeOfManager(ctx, subject)
	if err != nil {
		return nil, err
	}
	cafe.Schedule = weekly
	if err := s.repo.Update(ctx, cafe, nil); err != nil {
		return nil, notFoundOr(err, "cafe not found", "update schedule")
	}
	return cafe.Schedule, nil
}

func (s *service) ManagerStats(ctx context.Context, subject string) (*ManagerStats, error) {
	cafe, err := s.cafeOfManager(ctx, subject)
	if err != nil {
		return nil, err
	}
	stats, err := s.reviews.StatsForCafe(ctx, cafe.ID)
	if err != nil {
		return nil, err
	}
	return &ManagerStats{CafeID: cafe.ID, CafeName: cafe.Name, CafeStats: *stats}, nil
}

func (s *service) AddMenuItems(ctx context.Context, subject string, cafeID uuid.UUID, items []MenuItemInput) ([]MenuItemDTO, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "items are required")
	}
	rows := make([]models.MenuItem, 0, len(items))
	for i, in := range items {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "items[%d].name is required", i)
		}
		if in.Price.IsNegative() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "items[%d].price must not be negative", i)
		}
		rows = append(rows, models.MenuItem{
			Name:        name,
			Description: trimOptional(in.Description),
			Price:       in.Price.Round(2),
			Image:       trimOptional(in.Image),
		})
	}

	if _, err := s.ownedCafe(ctx, subject, cafeID); err != nil {
		return nil, err
	}
	if err := s.repo.AddMenuItems(ctx, cafeID, rows); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add menu items")
	}
	menu, err := s.repo.ListMenu(ctx, cafeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu")
	}
	return menuFromModels(menu), nil
}

func (s *service) UpdateMenuItem(ctx context.Context, subject string, cafeID, itemID uuid.UUID, patch MenuItemPatch) (*MenuItemDTO, error) {
	if _, err := s.ownedCafe(ctx, subject, cafeID); err != nil {
		return nil, err
	}
	item, err := s.repo.FindMenuItem(ctx, cafeID, itemID)
	if err != nil {
		return nil, notFoundOr(err, "menu item not found", "load menu item")
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		item.Name = name
	}
	if patch.Description != nil {
		item.Description = trimOptional(patch.Description)
	}
	if patch.Price != nil {
		if patch.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		item.Price = patch.Price.Round(2)
	}
	if patch.Image != nil {
		item.Image = trimOptional(patch.Image)
	}

	if err := s.repo.SaveMenuItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update menu item")
	}
	dto := menuFromModel(*item)
	return &dto, nil
}

func (s *service) DeleteMenuItem(ctx context.Context, subject string, cafeID, itemID uuid.UUID) error {
	if _, err := s.ownedCafe(ctx, subject, cafeID); err != nil {
		return err
	}
	if err := s.repo.DeleteMenuItem(ctx, cafeID, itemID); err != nil {
		return notFoundOr(err, "menu item not found", "delete menu item")
	}
	return nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*Detail, error) {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, notFoundOr(err, "cafe not found", "update cafe status")
	}
	cafe, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "cafe not found", "load cafe")
	}
	return s.detail(ctx, cafe, false)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "cafe not found", "delete cafe")
	}
	return nil
}

// structuralCategories keeps the active structural categories among ids in
// request order. When validate is set, schedule-gated categories whose rule
// the schedule does not satisfy are dropped and reported by name.
func (s *service) structuralCategories(ctx context.Context, ids []uuid.UUID, weekly schedule.WeeklySchedule, validate bool) ([]uuid.UUID, []string, error) {
	if len(ids) == 0 {
		return []uuid.UUID{}, []string{}, nil
	}
	found, err := s.categories.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[uuid.UUID]models.Category, len(found))
	for _, c := range found {
		if c.IsActive && c.Type == enums.CategoryTypeStructural {
			byID[c.ID] = c
		}
	}

	ordered := make([]models.Category, 0, len(ids))
	seen := map[uuid.UUID]struct{}{}
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, c)
	}

	kept, rejected := ordered, []models.Category(nil)
	if validate {
		kept, rejected = schedule.Partition(weekly, ordered, models.Category.Rule)
	}
	keptIDs := make([]uuid.UUID, 0, len(kept))
	for _, c := range kept {
		keptIDs = append(keptIDs, c.ID)
	}
	ignored := make([]string, 0, len(rejected))
	for _, c := range rejected {
		ignored = append(ignored, c.Name)
	}
	return keptIDs, ignored, nil
}

func (s *service) cafeOfManager(ctx context.Context, subject string) (*models.Cafe, error) {
	manager, err := s.managers.FindManagerBySubject(ctx, subject)
	if err != nil {
		return nil, notFoundOr(err, "manager not found", "load manager")
	}
	cafe, err := s.repo.FindByManagerID(ctx, manager.ID)
	if err != nil {
		return nil, notFoundOr(err, "cafe not found", "load cafe")
	}
	return cafe, nil
}

// ownedCafe loads the café and checks that the caller's manager profile owns it.
func (s *service) ownedCafe(ctx context.Context, subject string, cafeID uuid.UUID) (*models.Cafe, error) {
	manager, err := s.managers.FindManagerBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only managers can edit menus")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load manager")
	}
	cafe, err := s.repo.FindByID(ctx, cafeID)
	if err != nil {
		return nil, notFoundOr(err, "cafe not found", "load cafe")
	}
	if cafe.ManagerID == nil || *cafe.ManagerID != manager.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can edit the menu")
	}
	return cafe, nil
}

func (s *service) managed(ctx context.Context, cafe *models.Cafe, ignored []string) (*Managed, error) {
	detail, err := s.detail(ctx, cafe, false)
	if err != nil {
		return nil, err
	}
	if ignored == nil {
		ignored = []string{}
	}
	return &Managed{Cafe: *detail, IgnoredCategories: ignored}, nil
}

func (s *service) detail(ctx context.Context, cafe *models.Cafe, withReviews bool) (*Detail, error) {
	links, err := s.repo.CategoryLinks(ctx, []uuid.UUID{cafe.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cafe categories")
	}
	menu, err := s.repo.ListMenu(ctx, cafe.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu")
	}
	structural, perceptual := refsByCafe(links)

	out := &Detail{
		ID:                   cafe.ID,
		Name:                 cafe.Name,
		Address:              cafe.Address,
		Location:             cafe.Location,
		Description:          cafe.Description,
		Gallery:              nonNilStrings(cafe.Gallery),
		CoverImage:           cafe.CoverImage,
		AverageRating:        cafe.AverageRating,
		Schedule:             cafe.Schedule,
		IsActive:             cafe.IsActive,
		Categories:           nonNilRefs(structural[cafe.ID]),
		PerceptualCategories: nonNilRefs(perceptual[cafe.ID]),
		Menu:                 menuFromModels(menu),
		CreatedAt:            cafe.CreatedAt,
		UpdatedAt:            cafe.UpdatedAt,
	}
	if out.Schedule == nil {
		out.Schedule = schedule.WeeklySchedule{}
	}
	if cafe.ManagerID != nil {
		name, err := s.repo.ManagerName(ctx, *cafe.ManagerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load manager name")
		}
		out.Manager = &ManagerRef{ID: *cafe.ManagerID, FullName: name}
	}
	if withReviews {
		list, err := s.reviews.ListForCafe(ctx, cafe.ID)
		if err != nil {
			return nil, err
		}
		out.Reviews = list
	}
	return out, nil
}

// applyDerived refreshes the search columns from name and description.
func applyDerived(cafe *models.Cafe) {
	cafe.NormalizedName = textnorm.Normalize(cafe.Name)
	cafe.NormalizedDescription = textnorm.Normalize(cafe.Description)
	if cafe.Gallery == nil {
		cafe.Gallery = []string{}
	}
	if cafe.Schedule == nil {
		cafe.Schedule = schedule.WeeklySchedule{}
	}
}

func scheduleError(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid schedule").WithDetails(schedule.Details(err))
}

func cleanGallery(list []string) []string {
	out := make([]string, 0, len(list))
	for _, raw := range list {
		if v := strings.TrimSpace(raw); v != "" {
			out = append(out, v)
		}
	}
	return out
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
