package cafes

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/angelmondragon/delatte-backend/pkg/db/models"
	"github.com/angelmondragon/delatte-backend/pkg/enums"
	"github.com/angelmondragon/delatte-backend/pkg/textnorm"
	"github.com/google/uuid"
)

// SortKey orders search results. Every key sorts descending.
type SortKey string

const (
	SortCreatedAt    SortKey = "createdAt"
	SortRating       SortKey = "rating"
	SortReviewsCount SortKey = "reviewsCount"
)

const defaultSearchLimit = 10

// ParseSortKey accepts the camelCase keys and their snake_case spellings.
// Anything else falls back to creation time.
func ParseSortKey(raw string) SortKey {
	switch strings.TrimSpace(raw) {
	case "rating":
		return SortRating
	case "reviewsCount", "reviews_count":
		return SortReviewsCount
	default:
		return SortCreatedAt
	}
}

// SearchFilter holds the public café search parameters. A zero Limit means
// the page is unbounded.
type SearchFilter struct {
	Query       string
	CategoryIDs []uuid.UUID
	RatingMin   *float64
	SortBy      SortKey
	Limit       int
	Skip        int
	OpenNow     bool
}

// ParseSearchFilter reads search parameters from a query string. Numeric
// parameters are parsed permissively: unparsable or negative values fall
// back to their defaults instead of failing the request.
func ParseSearchFilter(values url.Values, defaultLimit int) SearchFilter {
	if defaultLimit <= 0 {
		defaultLimit = defaultSearchLimit
	}
	f := SearchFilter{
		Query:  strings.TrimSpace(values.Get("q")),
		SortBy: ParseSortKey(values.Get("sortBy")),
		Limit:  nonNegativeInt(values.Get("limit"), defaultLimit),
		Skip:   nonNegativeInt(values.Get("skip"), 0),
	}
	if raw := strings.TrimSpace(values.Get("ratingMin")); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			f.RatingMin = &v
		}
	}
	if raw := values.Get("categories"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if id, err := uuid.Parse(strings.TrimSpace(part)); err == nil {
				f.CategoryIDs = append(f.CategoryIDs, id)
			}
		}
	}
	f.OpenNow, _ = strconv.ParseBool(strings.TrimSpace(values.Get("openNow")))
	return f
}

func nonNegativeInt(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

// Search runs the database half of a café search: predicates, sort and
// pagination. The open-now filter is applied by the caller on the page.
func (r *Repository) Search(ctx context.Context, f SearchFilter) ([]models.Cafe, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Cafe{}).
		Where("cafes.is_active = ?", true)

	if term := strings.TrimSpace(f.Query); term != "" {
		pattern := textnorm.LikePattern(term)
		byCategory := r.db.Table("cafe_categories").
			Select("cafe_categories.cafe_id").
			Joins("JOIN categories ON categories.id = cafe_categories.category_id").
			Where(`categories.normalized_name LIKE ? ESCAPE '\'`, pattern)
		query = query.Where(
			`(cafes.normalized_name LIKE ? ESCAPE '\' OR cafes.normalized_description LIKE ? ESCAPE '\' OR cafes.id IN (?))`,
			pattern, pattern, byCategory,
		)
	}
	if len(f.CategoryIDs) > 0 {
		tagged := r.db.Table("cafe_categories").
			Select("cafe_id").
			Where("kind = ? AND category_id IN ?", enums.CategoryTypeStructural, f.CategoryIDs)
		query = query.Where("cafes.id IN (?)", tagged)
	}
	if f.RatingMin != nil {
		query = query.Where("cafes.average_rating >= ?", *f.RatingMin)
	}

	switch f.SortBy {
	case SortRating:
		query = query.Order("cafes.average_rating DESC").Order("cafes.created_at DESC")
	case SortReviewsCount:
		query = query.
			Select("cafes.*, (SELECT COUNT(*) FROM reviews WHERE reviews.cafe_id = cafes.id) AS review_count").
			Order("review_count DESC").
			Order("cafes.created_at DESC")
	default:
		query = query.Order("cafes.created_at DESC")
	}

	if f.Skip > 0 {
		query = query.Offset(f.Skip)
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}

	var cafes []models.Cafe
	if err := query.Find(&cafes).Error; err != nil {
		return nil, err
	}
	return cafes, nil
}

// ReviewCounts returns the number of reviews per café.
func (r *Repository) ReviewCounts(ctx context.Context, cafeIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(cafeIDs))
	if len(cafeIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		CafeID uuid.UUID `gorm:"column:cafe_id"`
		Total  int64     `gorm:"column:total"`
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("cafe_id, COUNT(*) AS total").
		Where("cafe_id IN ?", cafeIDs).
		Group("cafe_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.CafeID] = row.Total
	}
	return out, nil
}
