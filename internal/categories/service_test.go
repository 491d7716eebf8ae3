package categories

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/delatte-backend/pkg/db/dbtest"
	"github.com/angelmondragon/delatte-backend/pkg/db/models"
	"github.com/angelmondragon/delatte-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/delatte-backend/pkg/errors"
	"github.com/angelmondragon/delatte-backend/pkg/schedule"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(repo, nil)
	require.NoError(t, err)
	return svc, repo
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code(), "unexpected error: %v", err)
}

func TestNewServiceRequiresRepo(t *testing.T) {
	if _, err := NewService(nil, nil); err == nil {
		t.Fatal("expected error creating service without repo")
	}
}

func TestSuggestRejectsCaseInsensitiveDuplicates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateByAdmin(ctx, CreateInput{Name: "Pet Friendly"})
	require.NoError(t, err)

	_, err = svc.Suggest(ctx, SuggestInput{Name: "pet friendly"}, enums.RoleManager)
	requireCode(t, err, pkgerrors.CodeConflict)

	pending, err := svc.Suggest(ctx, SuggestInput{Name: "Acogedor"}, enums.RoleClient)
	require.NoError(t, err)
	assert.False(t, pending.IsActive)

	// Pending suggestions block duplicates as well.
	_, err = svc.Suggest(ctx, SuggestInput{Name: "  ACOGEDOR "}, enums.RoleManager)
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestSuggestSetsTypeAndOriginByRole(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	client, err := svc.Suggest(ctx, SuggestInput{Name: "Instagrammable"}, enums.RoleClient)
	require.NoError(t, err)
	assert.Equal(t, enums.CategoryTypePerceptual, client.Type)
	assert.True(t, client.CreatedByClient)
	assert.False(t, client.CreatedByManager)

	manager, err := svc.Suggest(ctx, SuggestInput{Name: "Enchufes"}, enums.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, enums.CategoryTypeStructural, manager.Type)
	assert.True(t, manager.CreatedByManager)

	_, err = svc.Suggest(ctx, SuggestInput{Name: "Otra"}, enums.RoleAdmin)
	requireCode(t, err, pkgerrors.CodeForbidden)

	_, err = svc.Suggest(ctx, SuggestInput{Name: "   "}, enums.RoleClient)
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestApproveRejectsAlreadyActive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	pending, err := svc.Suggest(ctx, SuggestInput{Name: "Tranquilo"}, enums.RoleClient)
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, approved.IsActive)

	_, err = svc.Approve(ctx, pending.ID)
	requireCode(t, err, pkgerrors.CodeConflict)

	_, err = svc.Approve(ctx, uuid.New())
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestCreateByAdminIsActiveAndValidatesRule(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rule := "openAfter20"
	created, err := svc.CreateByAdmin(ctx, CreateInput{Name: "Abre hasta tarde", ScheduleRule: &rule})
	require.NoError(t, err)
	assert.True(t, created.IsActive)
	require.NotNil(t, created.ScheduleRule)
	assert.Equal(t, schedule.RuleOpensAfter20, *created.ScheduleRule)

	_, err = svc.CreateByAdmin(ctx, CreateInput{Name: "abre hasta TARDE"})
	requireCode(t, err, pkgerrors.CodeConflict)

	bogus := "whenever"
	_, err = svc.CreateByAdmin(ctx, CreateInput{Name: "Nuevo", ScheduleRule: &bogus})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.CreateByAdmin(ctx, CreateInput{Name: "Bonito", Type: enums.CategoryTypePerceptual, ScheduleRule: &rule})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestListActiveAndSuggested(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateByAdmin(ctx, CreateInput{Name: "WiFi"})
	require.NoError(t, err)
	_, err = svc.CreateByAdmin(ctx, CreateInput{Name: "Romántico", Type: enums.CategoryTypePerceptual})
	require.NoError(t, err)
	_, err = svc.Suggest(ctx, SuggestInput{Name: "Ruidoso"}, enums.RoleClient)
	require.NoError(t, err)
	_, err = svc.Suggest(ctx, SuggestInput{Name: "Terraza"}, enums.RoleManager)
	require.NoError(t, err)

	all, err := svc.ListActive(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	perceptual, err := svc.ListActive(ctx, "perceptual")
	require.NoError(t, err)
	require.Len(t, perceptual, 1)
	assert.Equal(t, "Romántico", perceptual[0].Name)

	_, err = svc.ListActive(ctx, "other")
	requireCode(t, err, pkgerrors.CodeValidation)

	suggested, err := svc.ListSuggested(ctx, "")
	require.NoError(t, err)
	assert.Len(t, suggested, 2)

	fromManagers, err := svc.ListSuggested(ctx, "manager")
	require.NoError(t, err)
	require.Len(t, fromManagers, 1)
	assert.Equal(t, "Terraza", fromManagers[0].Name)
}

func TestUpdateAndDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateByAdmin(ctx, CreateInput{Name: "Vegano"})
	require.NoError(t, err)
	_, err = svc.CreateByAdmin(ctx, CreateInput{Name: "Sin gluten"})
	require.NoError(t, err)

	name := "Opciones veganas"
	inactive := false
	updated, err := svc.Update(ctx, a.ID, UpdateInput{Name: &name, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.False(t, updated.IsActive)

	clash := "SIN GLUTEN"
	_, err = svc.Update(ctx, a.ID, UpdateInput{Name: &clash})
	requireCode(t, err, pkgerrors.CodeConflict)

	require.NoError(t, svc.Delete(ctx, a.ID))
	requireCode(t, svc.Delete(ctx, a.ID), pkgerrors.CodeNotFound)
	_, err = svc.Update(ctx, a.ID, UpdateInput{Name: &name})
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestEnsureSuggestedPerceptualReusesExisting(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	existing, err := svc.CreateByAdmin(ctx, CreateInput{Name: "Acogedor", Type: enums.CategoryTypePerceptual})
	require.NoError(t, err)

	got, err := svc.EnsureSuggestedPerceptual(ctx, []string{"acogedor", "Luminoso", "luminoso ", ""})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, existing.ID, got[0].ID)
	assert.True(t, got[0].IsActive)
	assert.Equal(t, "Luminoso", got[1].Name)
	assert.False(t, got[1].IsActive)
	assert.True(t, got[1].CreatedByClient)
	assert.Equal(t, enums.CategoryTypePerceptual, got[1].Type)

	stored, err := repo.FindByNormalizedName(ctx, "luminoso")
	require.NoError(t, err)
	assert.Equal(t, got[1].ID, stored.ID)
}

func TestSuggestTreatsAccentVariantsAsTheSameName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Suggest(ctx, SuggestInput{Name: "Café de olla"}, enums.RoleClient)
	require.NoError(t, err)
	_, err = svc.Suggest(ctx, SuggestInput{Name: "cafe de OLLA"}, enums.RoleClient)
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestEnsureSuggestedPerceptualSkipsStructuralNames(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	wifi, err := svc.CreateByAdmin(ctx, CreateInput{Name: "WiFi", Type: enums.CategoryTypeStructural})
	require.NoError(t, err)

	got, err := svc.EnsureSuggestedPerceptual(ctx, []string{"wifi", "Tranquilo"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Tranquilo", got[0].Name)
	assert.Equal(t, enums.CategoryTypePerceptual, got[0].Type)

	stored, err := repo.FindByNormalizedName(ctx, "wifi")
	require.NoError(t, err)
	assert.Equal(t, wifi.ID, stored.ID)
	assert.Equal(t, enums.CategoryTypeStructural, stored.Type)
}

type failingRepo struct {
	categoryRepository
}

func (failingRepo) ListActive(context.Context, *enums.CategoryType) ([]models.Category, error) {
	return nil, errors.New("boom")
}

func TestListActiveDependencyError(t *testing.T) {
	svc, err := NewService(failingRepo{}, nil)
	require.NoError(t, err)
	_, err = svc.ListActive(context.Background(), "")
	requireCode(t, err, pkgerrors.CodeDependency)
}
