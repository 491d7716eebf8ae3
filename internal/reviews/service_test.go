package reviews

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/delatte-backend/internal/categories"
	"github.com/angelmondragon/delatte-backend/pkg/db/dbtest"
	"github.com/angelmondragon/delatte-backend/pkg/db/models"
	"github.com/angelmondragon/delatte-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/delatte-backend/pkg/errors"
	"github.com/angelmondragon/delatte-backend/pkg/schedule"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type dbCafes struct{ db *gorm.DB }

func (d dbCafes) FindByID(ctx context.Context, id uuid.UUID) (*models.Cafe, error) {
	var cafe models.Cafe
	if err := d.db.WithContext(ctx).First(&cafe, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cafe, nil
}

func (d dbCafes) AttachPerceptual(ctx context.Context, cafeID uuid.UUID, ids []uuid.UUID) error {
	for _, id := range ids {
		link := models.CafeCategory{CafeID: cafeID, CategoryID: id, Kind: enums.CategoryTypePerceptual}
		if err := d.db.WithContext(ctx).Where(link).FirstOrCreate(&link).Error; err != nil {
			return err
		}
	}
	return nil
}

type dbClients struct{ db *gorm.DB }

func (d dbClients) FindClientBySubject(ctx context.Context, subject string) (*models.Client, error) {
	var client models.Client
	if err := d.db.WithContext(ctx).First(&client, "subject = ?", subject).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

type fixture struct {
	db   *gorm.DB
	svc  Service
	cats categories.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	cats, err := categories.NewService(categories.NewRepository(conn), nil)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), cats, dbCafes{conn}, dbClients{conn}, nil)
	require.NoError(t, err)
	return fixture{db: conn, svc: svc, cats: cats}
}

func (f fixture) cafe(t *testing.T, name string, active bool) *models.Cafe {
	t.Helper()
	cafe := &models.Cafe{
		Name:                  name,
		NormalizedName:        name,
		Address:               "Calle 1",
		Description:           "desc",
		NormalizedDescription: "desc",
		Gallery:               []string{},
		Schedule:              schedule.WeeklySchedule{},
		IsActive:              active,
	}
	require.NoError(t, f.db.Create(cafe).Error)
	return cafe
}

func (f fixture) client(t *testing.T, subject, first string) *models.Client {
	t.Helper()
	client := &models.Client{Subject: subject, FirstName: first, LastName: "Tester"}
	require.NoError(t, f.db.Create(client).Error)
	return client
}

func (f fixture) average(t *testing.T, cafeID uuid.UUID) float64 {
	t.Helper()
	var cafe models.Cafe
	require.NoError(t, f.db.First(&cafe, "id = ?", cafeID).Error)
	return cafe.AverageRating
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code(), "unexpected error: %v", err)
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 4.0, Mean([]int{5, 3}))
	assert.InDelta(t, 3.6667, Mean([]int{5, 3, 3}), 0.001)
}

func TestAverageRatingFollowsReviewMutations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cafe := f.cafe(t, "cafe uno", true)
	f.client(t, "sub-a", "Ana")
	f.client(t, "sub-b", "Beto")

	first, err := f.svc.Create(ctx, "sub-a", CreateInput{CafeID: cafe.ID, Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, 5.0, first.AverageRating)
	assert.Equal(t, 5.0, f.average(t, cafe.ID))

	second, err := f.svc.Create(ctx, "sub-b", CreateInput{CafeID: cafe.ID, Rating: 3})
	require.NoError(t, err)
	assert.Equal(t, 4.0, second.AverageRating)

	require.NoError(t, f.svc.Delete(ctx, first.Review.ID))
	assert.Equal(t, 3.0, f.average(t, cafe.ID))

	require.NoError(t, f.svc.Delete(ctx, second.Review.ID))
	assert.Equal(t, 0.0, f.average(t, cafe.ID))

	requireCode(t, f.svc.Delete(ctx, second.Review.ID), pkgerrors.CodeNotFound)
}

func TestSecondReviewFromSameClientConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cafe := f.cafe(t, "cafe uno", true)
	f.client(t, "sub-a", "Ana")

	comment := "great"
	_, err := f.svc.Create(ctx, "sub-a", CreateInput{CafeID: cafe.ID, Rating: 4, Comment: &comment})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, "sub-a", CreateInput{CafeID: cafe.ID, Rating: 1})
	requireCode(t, err, pkgerrors.CodeConflict)

	list, err := f.svc.ListForCafe(ctx, cafe.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 4, list[0].Rating)
	assert.Equal(t, 4.0, f.average(t, cafe.ID))
}

// racingRepo misses the existing review, as a concurrent request would.
type racingRepo struct {
	*Repository
}

func (racingRepo) FindByCafeAndClient(context.Context, uuid.UUID, uuid.UUID) (*models.Review, error) {
	return nil, gorm.ErrRecordNotFound
}

func TestDuplicateInsertMapsUniqueIndexToConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cafe := f.cafe(t, "cafe uno", true)
	f.client(t, "sub-a", "Ana")

	_, err := f.svc.Create(ctx, "sub-a", CreateInput{CafeID: cafe.ID, Rating: 4})
	require.NoError(t, err)

	racing, err := NewService(racingRepo{NewRepository(f.db)}, f.cats, dbCafes{f.db}, dbClients{f.db}, nil)
	require.NoError(t, err)
	_, err = racing.Create(ctx, "sub-a", CreateInput{CafeID: cafe.ID, Rating: 2})
	requireCode(t, err, pkgerrors.CodeConflict)

	var count int64
	require.NoError(t, f.db.Model(&models.Review{}).Where("cafe_id = ?", cafe.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 4.0, f.average(t, cafe.ID))
}

func TestCreateValidatesInputAndReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cafe := f.cafe(t, "cafe uno", true)
	hidden := f.cafe(t, "cafe dos", false)
	f.client(t, "sub-a", "Ana")

	_, err := f.svc.Create(ctx, "sub-a", CreateInput{CafeID: cafe.ID, Rating: 0})
	requireCode(t, err, pkgerrors.CodeValidation)
	_, err = f.svc.Create(ctx, "sub-a", CreateInput{CafeID: cafe.ID, Rating: 6})
	requireCode(t, err, pkgerrors.CodeValidation)
	_, err = f.svc.Create(ctx, "sub-a", CreateInput{Rating: 3})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.Create(ctx, "nobody", CreateInput{CafeID: cafe.ID, Rating: 3})
	requireCode(t, err, pkgerrors.CodeNotFound)
	_, err = f.svc.Create(ctx, "sub-a", CreateInput{CafeID: uuid.New(), Rating: 3})
	requireCode(t, err, pkgerrors.CodeNotFound)
	_, err = f.svc.Create(ctx, "sub-a", CreateInput{CafeID: hidden.ID, Rating: 3})
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestCreateAttachesOnlyActivePerceptualCategories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cafe := f.cafe(t, "cafe uno", true)
	f.client(t, "sub-a", "Ana")

	cozy, err := f.cats.CreateByAdmin(ctx, categories.CreateInput{Name: "Acogedor", Type: enums.CategoryTypePerceptual})
	require.NoError(t, err)
	wifi, err := f.cats.CreateByAdmin(ctx, categories.CreateInput{Name: "WiFi"})
	require.NoError(t, err)

	res, err := f.svc.Create(ctx, "sub-a", CreateInput{
		CafeID:              cafe.ID,
		Rating:              5,
		SelectedCategoryIDs: []uuid.UUID{cozy.ID, wifi.ID},
		NewCategoryNames:    []string{"acogedor", "Luminoso"},
	})
	require.NoError(t, err)
	require.Len(t, res.Review.Categories, 2)
	assert.Equal(t, "Acogedor", res.Review.Categories[0].Name)
	assert.Equal(t, "Luminoso", res.Review.Categories[1].Name)

	var links []models.CafeCategory
	require.NoError(t, f.db.Where("cafe_id = ?", cafe.ID).Find(&links).Error)
	require.Len(t, links, 1)
	assert.Equal(t, cozy.ID, links[0].CategoryID)
	assert.Equal(t, enums.CategoryTypePerceptual, links[0].Kind)

	pending, err := f.cats.ListSuggested(ctx, "client")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Luminoso", pending[0].Name)

	list, err := f.svc.ListForCafe(ctx, cafe.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Categories, 2)
	require.NotNil(t, list[0].Client)
	assert.Equal(t, "Ana", list[0].Client.FirstName)
}

func TestTypedTagMatchingStructuralCategoryIsNotLinked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cafe := f.cafe(t, "cafe uno", true)
	f.client(t, "sub-a", "Ana")

	wifi, err := f.cats.CreateByAdmin(ctx, categories.CreateInput{Name: "WiFi"})
	require.NoError(t, err)

	res, err := f.svc.Create(ctx, "sub-a", CreateInput{
		CafeID:           cafe.ID,
		Rating:           4,
		NewCategoryNames: []string{"wifi"},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Review.Categories)

	var links []models.ReviewCategory
	require.NoError(t, f.db.Where("category_id = ?", wifi.ID).Find(&links).Error)
	assert.Empty(t, links)

	var cafeLinks []models.CafeCategory
	require.NoError(t, f.db.Where("cafe_id = ?", cafe.ID).Find(&cafeLinks).Error)
	assert.Empty(t, cafeLinks)
}

func TestPreviewsCapPerCafeNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uno := f.cafe(t, "cafe uno", true)
	dos := f.cafe(t, "cafe dos", true)

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		c := f.client(t, uuid.NewString(), "Cliente")
		require.NoError(t, f.db.Create(&models.Review{CafeID: uno.ID, ClientID: c.ID, Rating: i + 1, CreatedAt: base.Add(time.Duration(i) * time.Hour)}).Error)
	}
	c := f.client(t, uuid.NewString(), "Solo")
	require.NoError(t, f.db.Create(&models.Review{CafeID: dos.ID, ClientID: c.ID, Rating: 4, CreatedAt: base}).Error)

	previews, err := f.svc.Previews(ctx, []uuid.UUID{uno.ID, dos.ID}, 2)
	require.NoError(t, err)
	require.Len(t, previews[uno.ID], 2)
	assert.Equal(t, 3, previews[uno.ID][0].Rating)
	assert.Equal(t, 2, previews[uno.ID][1].Rating)
	require.Len(t, previews[dos.ID], 1)
	assert.Equal(t, "Solo", previews[dos.ID][0].Client.FirstName)

	empty, err := f.svc.Previews(ctx, nil, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStatsForCafe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cafe := f.cafe(t, "cafe uno", true)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		c := f.client(t, uuid.NewString(), "Cliente")
		require.NoError(t, f.db.Create(&models.Review{CafeID: cafe.ID, ClientID: c.ID, Rating: 1 + i%5, CreatedAt: base.Add(time.Duration(i) * time.Minute)}).Error)
	}

	stats, err := f.svc.StatsForCafe(ctx, cafe.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.TotalReviews)
	assert.InDelta(t, 16.0/6.0, stats.AverageRating, 1e-9)
	require.Len(t, stats.LatestReviews, 5)
	assert.Equal(t, 1, stats.LatestReviews[0].Rating)
}

func TestListForCafeRequiresID(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ListForCafe(context.Background(), uuid.Nil)
	requireCode(t, err, pkgerrors.CodeValidation)
}

type brokenRatings struct{}

func (brokenRatings) Ratings(context.Context, uuid.UUID) ([]int, error) {
	return nil, errors.New("boom")
}

func (brokenRatings) SetAverageRating(context.Context, uuid.UUID, float64) error {
	return nil
}

func TestRecomputePropagatesStoreFailure(t *testing.T) {
	agg, err := NewAggregator(brokenRatings{}, nil)
	require.NoError(t, err)
	_, err = agg.Recompute(context.Background(), uuid.New())
	requireCode(t, err, pkgerrors.CodeDependency)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, nil, nil, nil, nil); err == nil {
		t.Fatal("expected error creating service without repo")
	}
}
