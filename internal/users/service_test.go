package users

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/delatte-backend/pkg/auth"
	"github.com/angelmondragon/delatte-backend/pkg/db/dbtest"
	"github.com/angelmondragon/delatte-backend/pkg/db/models"
	"github.com/angelmondragon/delatte-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/delatte-backend/pkg/errors"
	"github.com/angelmondragon/delatte-backend/pkg/schedule"
	"github.com/angelmondragon/delatte-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code(), "unexpected error: %v", err)
}

func seedCafe(t *testing.T, conn *gorm.DB, name string) *models.Cafe {
	t.Helper()
	cafe := &models.Cafe{
		Name:           name,
		NormalizedName: name,
		Gallery:        types.StringList{},
		Schedule:       schedule.WeeklySchedule{},
		IsActive:       true,
	}
	require.NoError(t, conn.Create(cafe).Error)
	return cafe
}

func TestSyncClientIsIdempotent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	principal := auth.Principal{Subject: "auth0|ana", Email: "ana@example.com"}

	first, err := svc.SyncClient(ctx, principal, SyncClientInput{FirstName: " Ana ", LastName: "López"})
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, enums.RoleClient, first.User.Role)
	require.NotNil(t, first.Client)
	assert.Equal(t, "Ana", first.Client.FirstName)
	assert.Equal(t, []string{}, first.Client.Preferences)

	again, err := svc.SyncClient(ctx, principal, SyncClientInput{FirstName: "Otra"})
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, first.User.ID, again.User.ID)
	assert.Equal(t, "Ana", again.Client.FirstName)
	require.NotNil(t, again.User.LastAccessAt)

	role, err := svc.Role(ctx, "auth0|ana")
	require.NoError(t, err)
	assert.Equal(t, enums.RoleClient, role.Role)

	_, err = svc.SyncManager(ctx, principal, SyncManagerInput{FirstName: "Ana"})
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestSyncValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.SyncClient(ctx, auth.Principal{Subject: "s1"}, SyncClientInput{FirstName: "Ana"})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.SyncClient(ctx, auth.Principal{Subject: "s1", Email: "a@b.c"}, SyncClientInput{})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.SyncClient(ctx, auth.Principal{}, SyncClientInput{FirstName: "Ana"})
	requireCode(t, err, pkgerrors.CodeUnauthorized)

	out, err := svc.SyncClient(ctx, auth.Principal{Subject: "s1"}, SyncClientInput{Email: " Body@Example.com ", FirstName: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "body@example.com", out.User.Email)

	_, err = svc.SyncClient(ctx, auth.Principal{Subject: "s2", Email: "body@example.com"}, SyncClientInput{FirstName: "Eve"})
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestSyncManagerAdoptsProfileFromCafeRegistration(t *testing.T) {
	svc, conn := newService(t)
	ctx := context.Background()
	repo := NewRepository(conn)
	early := &models.Manager{Subject: "auth0|mgr", FullName: "Sin nombre"}
	require.NoError(t, repo.CreateManager(ctx, early))

	out, err := svc.SyncManager(ctx, auth.Principal{Subject: "auth0|mgr", Email: "m@example.com"}, SyncManagerInput{FirstName: "Marta", LastName: "Ruiz"})
	require.NoError(t, err)
	assert.True(t, out.Created)
	require.NotNil(t, out.Manager)
	assert.Equal(t, early.ID, out.Manager.ID)

	var stored models.Manager
	require.NoError(t, conn.First(&stored, "id = ?", early.ID).Error)
	require.NotNil(t, stored.UserID)
	assert.Equal(t, out.User.ID, *stored.UserID)

	fresh, err := svc.SyncManager(ctx, auth.Principal{Subject: "auth0|new", Email: "n@example.com"}, SyncManagerInput{FirstName: "Nico", LastName: "Paz"})
	require.NoError(t, err)
	assert.Equal(t, "Nico Paz", fresh.Manager.FullName)
}

func TestResolveRoleRejectsDisabledAccounts(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.ResolveRole(ctx, "ghost")
	requireCode(t, err, pkgerrors.CodeNotFound)

	admin, created, err := svc.EnsureAdmin(ctx, "auth0|root", "root@example.com", "Root")
	require.NoError(t, err)
	assert.True(t, created)
	_, created, err = svc.EnsureAdmin(ctx, "auth0|root", "root@example.com", "Root")
	require.NoError(t, err)
	assert.False(t, created)

	role, err := svc.ResolveRole(ctx, "auth0|root")
	require.NoError(t, err)
	assert.Equal(t, enums.RoleAdmin, role)

	updated, err := svc.SetActive(ctx, admin.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	_, err = svc.ResolveRole(ctx, "auth0|root")
	requireCode(t, err, pkgerrors.CodeForbidden)

	_, err = svc.SetActive(ctx, uuid.New(), true)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestClientProfileEdits(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.SyncClient(ctx, auth.Principal{Subject: "c1", Email: "c1@example.com"}, SyncClientInput{FirstName: "Ana"})
	require.NoError(t, err)

	bio := "  Fan del cortado  "
	updated, err := svc.UpdateClient(ctx, "c1", ClientUpdate{Bio: &bio, LastName: ptr("Gómez")})
	require.NoError(t, err)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, "Fan del cortado", *updated.Bio)
	assert.Equal(t, "Gómez", updated.LastName)

	_, err = svc.UpdateClient(ctx, "c1", ClientUpdate{FirstName: ptr(" ")})
	requireCode(t, err, pkgerrors.CodeValidation)

	prefs, err := svc.UpdatePreferences(ctx, "c1", []string{"latte", " ", "latte", "wifi"})
	require.NoError(t, err)
	assert.Equal(t, []string{"latte", "wifi"}, prefs)

	links, err := svc.UpdateSocialLinks(ctx, "c1", types.SocialLinks{Instagram: "https://instagram.com/ana"})
	require.NoError(t, err)
	assert.Equal(t, "https://instagram.com/ana", links.Instagram)

	_, err = svc.UpdateSocialLinks(ctx, "c1", types.SocialLinks{Instagram: "https://evil.com/ana"})
	requireCode(t, err, pkgerrors.CodeValidation)

	profile, err := svc.GetClient(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"latte", "wifi"}, profile.Preferences)
	assert.Equal(t, "https://instagram.com/ana", profile.SocialLinks.Instagram)

	_, err = svc.GetClient(ctx, "nobody")
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestFavorites(t *testing.T) {
	svc, conn := newService(t)
	ctx := context.Background()
	_, err := svc.SyncClient(ctx, auth.Principal{Subject: "c1", Email: "c1@example.com"}, SyncClientInput{FirstName: "Ana"})
	require.NoError(t, err)
	a := seedCafe(t, conn, "A")
	b := seedCafe(t, conn, "B")

	require.NoError(t, svc.AddFavorite(ctx, "c1", a.ID))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, svc.AddFavorite(ctx, "c1", b.ID))
	requireCode(t, svc.AddFavorite(ctx, "c1", a.ID), pkgerrors.CodeConflict)
	requireCode(t, svc.AddFavorite(ctx, "c1", uuid.New()), pkgerrors.CodeNotFound)

	list, err := svc.ListFavorites(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "B", list[0].Name)

	require.NoError(t, svc.RemoveFavorite(ctx, "c1", b.ID))
	require.NoError(t, svc.RemoveFavorite(ctx, "c1", b.ID))
	list, err = svc.ListFavorites(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)
}

func TestDeleteClientRemovesAccountAndProfile(t *testing.T) {
	svc, conn := newService(t)
	ctx := context.Background()
	out, err := svc.SyncClient(ctx, auth.Principal{Subject: "c1", Email: "c1@example.com"}, SyncClientInput{FirstName: "Ana"})
	require.NoError(t, err)
	cafe := seedCafe(t, conn, "A")
	require.NoError(t, svc.AddFavorite(ctx, "c1", cafe.ID))

	require.NoError(t, svc.DeleteClient(ctx, "c1"))
	requireCode(t, svc.DeleteClient(ctx, "c1"), pkgerrors.CodeNotFound)

	var n int64
	require.NoError(t, conn.Model(&models.ClientFavorite{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, conn.Model(&models.User{}).Where("id = ?", out.User.ID).Count(&n).Error)
	assert.Zero(t, n)

	// The subject can sign up again afterwards.
	again, err := svc.SyncClient(ctx, auth.Principal{Subject: "c1", Email: "c1@example.com"}, SyncClientInput{FirstName: "Ana"})
	require.NoError(t, err)
	assert.True(t, again.Created)
}

func TestManagerProfileAndAdminListing(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.SyncManager(ctx, auth.Principal{Subject: "m1", Email: "m1@example.com"}, SyncManagerInput{FirstName: "Marta", LastName: "Ruiz"})
	require.NoError(t, err)

	updated, err := svc.UpdateManager(ctx, "m1", ManagerUpdate{Phone: ptr(" 555-0101 ")})
	require.NoError(t, err)
	assert.Equal(t, "555-0101", updated.Phone)
	assert.Equal(t, "Marta Ruiz", updated.FullName)

	_, err = svc.UpdateManager(ctx, "m1", ManagerUpdate{FullName: ptr("")})
	requireCode(t, err, pkgerrors.CodeValidation)
	_, err = svc.GetManager(ctx, "m2")
	requireCode(t, err, pkgerrors.CodeNotFound)

	all, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, svc.DeleteUser(ctx, all[0].ID))
	_, err = svc.GetManager(ctx, "m1")
	requireCode(t, err, pkgerrors.CodeNotFound)
	requireCode(t, svc.DeleteUser(ctx, all[0].ID), pkgerrors.CodeNotFound)
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil)
	require.Error(t, err)
}

func ptr[T any](v T) *T { return &v }
