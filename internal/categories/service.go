package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"

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
	suggestionCreated  = "created"
	suggestionReused   = "reused"
	suggestionRejected = "rejected"
)

type categoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	Save(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindByNormalizedName(ctx context.Context, normalized string) (*models.Category, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Category, error)
	ListActive(ctx context.Context, categoryType *enums.CategoryType) ([]models.Category, error)
	ListPending(ctx context.Context, origin *enums.Role) ([]models.Category, error)
	Activate(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service exposes the category catalogue and its suggestion/approval lifecycle.
type Service interface {
	ListActive(ctx context.Context, categoryType string) ([]CategoryDTO, error)
	ListSuggested(ctx context.Context, origin string) ([]CategoryDTO, error)
	CreateByAdmin(ctx context.Context, input CreateInput) (*CategoryDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*CategoryDTO, error)
	Suggest(ctx context.Context, input SuggestInput, role enums.Role) (*CategoryDTO, error)
	Approve(ctx context.Context, id uuid.UUID) (*CategoryDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	EnsureSuggestedPerceptual(ctx context.Context, names []string) ([]models.Category, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Category, error)
}

type service struct {
	repo    categoryRepository
	metrics *metrics.DomainMetrics
}

// NewService builds the category service. metrics may be nil.
func NewService(repo categoryRepository, m *metrics.DomainMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	return &service{repo: repo, metrics: m}, nil
}

func (s *service) ListActive(ctx context.Context, categoryType string) ([]CategoryDTO, error) {
	var filter *enums.CategoryType
	if raw := strings.TrimSpace(categoryType); raw != "" {
		parsed, err := enums.ParseCategoryType(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category type")
		}
		filter = &parsed
	}
	list, err := s.repo.ListActive(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return FromModels(list), nil
}

func (s *service) ListSuggested(ctx context.Context, origin string) ([]CategoryDTO, error) {
	var filter *enums.Role
	if raw := strings.TrimSpace(origin); raw != "" {
		role, err := enums.ParseRole(raw)
		if err != nil || role == enums.RoleAdmin {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be client or manager")
		}
		filter = &role
	}
	list, err := s.repo.ListPending(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list suggested categories")
	}
	return FromModels(list), nil
}

func (s *service) CreateByAdmin(ctx context.Context, input CreateInput) (*CategoryDTO, error) {
	name, normalized, err := cleanName(input.Name)
	if err != nil {
		return nil, err
	}
	categoryType := input.Type
	if categoryType == "" {
		categoryType = enums.CategoryTypeStructural
	}
	if !categoryType.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid category type %q", categoryType)
	}
	rule, err := parseRule(input.ScheduleRule, categoryType)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, normalized, uuid.Nil); err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:           name,
		NormalizedName: normalized,
		Description:    trimOptional(input.Description),
		Type:           categoryType,
		IsActive:       true,
		ScheduleRule:   rule,
	}
	if err := s.create(ctx, category); err != nil {
		return nil, err
	}
	dto := FromModel(*category)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*CategoryDTO, error) {
	category, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, normalized, err := cleanName(*input.Name)
		if err != nil {
			return nil, err
		}
		if normalized != category.NormalizedName {
			if err := s.ensureNameFree(ctx, normalized, category.ID); err != nil {
				return nil, err
			}
		}
		category.Name = name
		category.NormalizedName = normalized
	}
	if input.Description != nil {
		category.Description = trimOptional(input.Description)
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	if input.ScheduleRule != nil {
		rule, err := parseRule(input.ScheduleRule, category.Type)
		if err != nil {
			return nil, err
		}
		category.ScheduleRule = rule
	}

	if err := s.repo.Save(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "category already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
	}
	dto := FromModel(*category)
	return &dto, nil
}

// Suggest records a pending category. Clients propose perceptual tags and
// managers propose structural ones.
func (s *service) Suggest(ctx context.Context, input SuggestInput, role enums.Role) (*CategoryDTO, error) {
	category := &models.Category{Description: trimOptional(input.Description)}
	switch role {
	case enums.RoleClient:
		category.Type = enums.CategoryTypePerceptual
		category.CreatedByClient = true
	case enums.RoleManager:
		category.Type = enums.CategoryTypeStructural
		category.CreatedByManager = true
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only clients and managers can suggest categories")
	}

	name, normalized, err := cleanName(input.Name)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, normalized, uuid.Nil); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			s.metrics.IncSuggestion(suggestionRejected)
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category already exists or was suggested")
		}
		return nil, err
	}
	category.Name = name
	category.NormalizedName = normalized

	if err := s.create(ctx, category); err != nil {
		return nil, err
	}
	s.metrics.IncSuggestion(suggestionCreated)
	dto := FromModel(*category)
	return &dto, nil
}

func (s *service) Approve(ctx context.Context, id uuid.UUID) (*CategoryDTO, error) {
	activated, err := s.repo.Activate(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve category")
	}
	category, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !activated {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "category is already active")
	}
	dto := FromModel(*category)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	return nil
}

// EnsureSuggestedPerceptual resolves reviewer-typed tag names to categories.
// Unknown names become pending client perceptual suggestions. A name that
// already exists resolves to that row when it is perceptual and is dropped
// when it belongs to a structural category.
func (s *service) EnsureSuggestedPerceptual(ctx context.Context, names []string) ([]models.Category, error) {
	seen := map[string]struct{}{}
	out := make([]models.Category, 0, len(names))
	for _, raw := range names {
		name, normalized, err := cleanName(raw)
		if err != nil {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}

		existing, err := s.repo.FindByNormalizedName(ctx, normalized)
		switch {
		case err == nil:
			if existing.Type != enums.CategoryTypePerceptual {
				s.metrics.IncSuggestion(suggestionRejected)
				continue
			}
			s.metrics.IncSuggestion(suggestionReused)
			out = append(out, *existing)
			continue
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup category")
		}

		category := &models.Category{
			Name:            name,
			NormalizedName:  normalized,
			Type:            enums.CategoryTypePerceptual,
			CreatedByClient: true,
		}
		if err := s.create(ctx, category); err != nil {
			return nil, err
		}
		s.metrics.IncSuggestion(suggestionCreated)
		out = append(out, *category)
	}
	return out, nil
}

func (s *service) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Category, error) {
	list, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load categories")
	}
	return list, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return category, nil
}

// ensureNameFree fails with Conflict when another category already uses the name.
func (s *service) ensureNameFree(ctx context.Context, normalized string, self uuid.UUID) error {
	existing, err := s.repo.FindByNormalizedName(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup category")
	}
	if existing.ID == self {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "category already exists")
}

func (s *service) create(ctx context.Context, category *models.Category) error {
	if err := s.repo.Create(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "category already exists")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return nil
}

func cleanName(raw string) (string, string, error) {
	name := strings.Join(strings.Fields(raw), " ")
	if name == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	return name, textnorm.Normalize(name), nil
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

// parseRule accepts an empty value to clear the rule. Only structural
// categories can be gated by a schedule.
func parseRule(raw *string, categoryType enums.CategoryType) (*schedule.Rule, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	if categoryType != enums.CategoryTypeStructural {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only structural categories can carry a schedule rule")
	}
	rule, err := schedule.ParseRule(*raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid schedule rule")
	}
	return &rule, nil
}
