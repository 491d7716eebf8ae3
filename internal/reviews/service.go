package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/delatte-backend/internal/categories"
	"github.com/angelmondragon/delatte-backend/pkg/db"
	"github.com/angelmondragon/delatte-backend/pkg/db/models"
	"github.com/angelmondragon/delatte-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/delatte-backend/pkg/errors"
	"github.com/angelmondragon/delatte-backend/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const statsLatest = 5

type reviewRepository interface {
	ratingStore
	Create(ctx context.Context, review *models.Review, categoryIDs []uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	FindByCafeAndClient(ctx context.Context, cafeID, clientID uuid.UUID) (*models.Review, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListForCafe(ctx context.Context, cafeID uuid.UUID, limit int) ([]Row, error)
	LatestForCafes(ctx context.Context, cafeIDs []uuid.UUID, perCafe int) ([]Row, error)
	CategoryNames(ctx context.Context, reviewIDs []uuid.UUID) ([]CategoryLink, error)
}

type categoryService interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Category, error)
	EnsureSuggestedPerceptual(ctx context.Context, names []string) ([]models.Category, error)
}

type cafeStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Cafe, error)
	AttachPerceptual(ctx context.Context, cafeID uuid.UUID, categoryIDs []uuid.UUID) error
}

type clientLookup interface {
	FindClientBySubject(ctx context.Context, subject string) (*models.Client, error)
}

// Service exposes review submission, listing and moderation deletes.
type Service interface {
	Create(ctx context.Context, subject string, input CreateInput) (*CreateResult, error)
	ListForCafe(ctx context.Context, cafeID uuid.UUID) ([]ReviewDTO, error)
	Previews(ctx context.Context, cafeIDs []uuid.UUID, perCafe int) (map[uuid.UUID][]ReviewDTO, error)
	StatsForCafe(ctx context.Context, cafeID uuid.UUID) (*CafeStats, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo       reviewRepository
	categories categoryService
	cafes      cafeStore
	clients    clientLookup
	aggregator *Aggregator
	metrics    *metrics.DomainMetrics
}

// NewService wires the review workflow. metrics may be nil.
func NewService(repo reviewRepository, categorySvc categoryService, cafes cafeStore, clients clientLookup, m *metrics.DomainMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if categorySvc == nil {
		return nil, fmt.Errorf("category service required")
	}
	if cafes == nil {
		return nil, fmt.Errorf("cafe store required")
	}
	if clients == nil {
		return nil, fmt.Errorf("client lookup required")
	}
	aggregator, err := NewAggregator(repo, m)
	if err != nil {
		return nil, err
	}
	return &service{
		repo:       repo,
		categories: categorySvc,
		cafes:      cafes,
		clients:    clients,
		aggregator: aggregator,
		metrics:    m,
	}, nil
}

func (s *service) Create(ctx context.Context, subject string, input CreateInput) (*CreateResult, error) {
	if input.CafeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cafe_id is required")
	}
	if input.Rating < MinRating || input.Rating > MaxRating {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "rating must be between %d and %d", MinRating, MaxRating)
	}

	client, err := s.clients.FindClientBySubject(ctx, subject)
	if err != nil {
		return nil, notFoundOr(err, "client not found", "load client")
	}
	cafe, err := s.cafes.FindByID(ctx, input.CafeID)
	if err != nil {
		return nil, notFoundOr(err, "cafe not found", "load cafe")
	}
	if !cafe.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cafe not found")
	}

	// One review per (café, client). The unique index backs this up under races.
	if _, err := s.repo.FindByCafeAndClient(ctx, cafe.ID, client.ID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "you already reviewed this cafe")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing review")
	}

	tags, err := s.resolveCategories(ctx, input)
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		CafeID:   cafe.ID,
		ClientID: client.ID,
		Rating:   input.Rating,
		Comment:  trimOptional(input.Comment),
		ImageURL: trimOptional(input.ImageURL),
	}
	tagIDs := make([]uuid.UUID, 0, len(tags))
	for _, c := range tags {
		tagIDs = append(tagIDs, c.ID)
	}
	if err := s.repo.Create(ctx, review, tagIDs); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "you already reviewed this cafe")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}
	s.metrics.IncReview(metrics.ReviewCreated)

	// Only approved perceptual tags become part of the café's public profile.
	var attach []uuid.UUID
	for _, c := range tags {
		if c.Type == enums.CategoryTypePerceptual && c.IsActive {
			attach = append(attach, c.ID)
		}
	}
	if len(attach) > 0 {
		if err := s.cafes.AttachPerceptual(ctx, cafe.ID, attach); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach perceptual categories")
		}
	}

	avg, err := s.aggregator.Recompute(ctx, cafe.ID)
	if err != nil {
		return nil, err
	}

	dto := ReviewDTO{
		ID:        review.ID,
		CafeID:    review.CafeID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		ImageURL:  review.ImageURL,
		CreatedAt: review.CreatedAt,
		Client: &ClientRef{
			ID:             client.ID,
			FirstName:      client.FirstName,
			LastName:       client.LastName,
			ProfilePicture: client.ProfilePicture,
		},
	}
	for _, c := range tags {
		dto.Categories = append(dto.Categories, categories.Ref{ID: c.ID, Name: c.Name})
	}
	return &CreateResult{Review: dto, AverageRating: avg}, nil
}

// resolveCategories keeps the selected and typed categories that are
// perceptual. A review never links a structural category.
func (s *service) resolveCategories(ctx context.Context, input CreateInput) ([]models.Category, error) {
	var out []models.Category
	seen := map[uuid.UUID]struct{}{}
	add := func(c models.Category) {
		if _, dup := seen[c.ID]; dup {
			return
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}

	if len(input.SelectedCategoryIDs) > 0 {
		selected, err := s.categories.FindByIDs(ctx, input.SelectedCategoryIDs)
		if err != nil {
			return nil, err
		}
		for _, c := range selected {
			if c.Type == enums.CategoryTypePerceptual {
				add(c)
			}
		}
	}
	if len(input.NewCategoryNames) > 0 {
		suggested, err := s.categories.EnsureSuggestedPerceptual(ctx, input.NewCategoryNames)
		if err != nil {
			return nil, err
		}
		for _, c := range suggested {
			if c.Type == enums.CategoryTypePerceptual {
				add(c)
			}
		}
	}
	return out, nil
}

func (s *service) ListForCafe(ctx context.Context, cafeID uuid.UUID) ([]ReviewDTO, error) {
	if cafeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cafeId is required")
	}
	rows, err := s.repo.ListForCafe(ctx, cafeID, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return s.withCategories(ctx, rows)
}

func (s *service) Previews(ctx context.Context, cafeIDs []uuid.UUID, perCafe int) (map[uuid.UUID][]ReviewDTO, error) {
	rows, err := s.repo.LatestForCafes(ctx, cafeIDs, perCafe)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review previews")
	}
	out := make(map[uuid.UUID][]ReviewDTO, len(cafeIDs))
	for _, row := range rows {
		out[row.CafeID] = append(out[row.CafeID], fromRow(row))
	}
	return out, nil
}

func (s *service) StatsForCafe(ctx context.Context, cafeID uuid.UUID) (*CafeStats, error) {
	ratings, err := s.repo.Ratings(ctx, cafeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ratings")
	}
	rows, err := s.repo.ListForCafe(ctx, cafeID, statsLatest)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list latest reviews")
	}
	latest := make([]ReviewDTO, 0, len(rows))
	for _, row := range rows {
		latest = append(latest, fromRow(row))
	}
	return &CafeStats{
		TotalReviews:  len(ratings),
		AverageRating: Mean(ratings),
		LatestReviews: latest,
	}, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "review not found", "load review")
	}
	if err := s.repo.Delete(ctx, review.ID); err != nil {
		return notFoundOr(err, "review not found", "delete review")
	}
	s.metrics.IncReview(metrics.ReviewDeleted)

	if _, err := s.aggregator.Recompute(ctx, review.CafeID); err != nil {
		return err
	}
	return nil
}

func (s *service) withCategories(ctx context.Context, rows []Row) ([]ReviewDTO, error) {
	out := make([]ReviewDTO, 0, len(rows))
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
		ids = append(ids, row.ID)
	}
	links, err := s.repo.CategoryNames(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review categories")
	}
	byReview := map[uuid.UUID][]categories.Ref{}
	for _, l := range links {
		byReview[l.ReviewID] = append(byReview[l.ReviewID], categories.Ref{ID: l.CategoryID, Name: l.Name})
	}
	for i := range out {
		out[i].Categories = byReview[out[i].ID]
	}
	return out, nil
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
