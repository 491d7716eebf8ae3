package controllers

import (
	"net/http"

	"github.com/angelmondragon/delatte-backend/api/middleware"
	"github.com/angelmondragon/delatte-backend/api/responses"
	"github.com/angelmondragon/delatte-backend/api/validators"
	"github.com/angelmondragon/delatte-backend/internal/users"
	pkgerrors "github.com/angelmondragon/delatte-backend/pkg/errors"
	"github.com/angelmondragon/delatte-backend/pkg/logger"
	"github.com/angelmondragon/delatte-backend/pkg/types"
)

type syncClientPayload struct {
	Email          string  `json:"email" validate:"omitempty,email"`
	FirstName      string  `json:"first_name" validate:"required,min=2,max=50"`
	LastName       string  `json:"last_name" validate:"max=50"`
	ProfilePicture *string `json:"profile_picture" validate:"omitempty,url"`
}

type syncManagerPayload struct {
	Email     string `json:"email" validate:"omitempty,email"`
	FirstName string `json:"first_name" validate:"required,min=2,max=50"`
	LastName  string `json:"last_name" validate:"max=50"`
	Phone     string `json:"phone" validate:"max=30"`
}

type updateClientPayload struct {
	FirstName      *string `json:"first_name" validate:"omitempty,min=2,max=50"`
	LastName       *string `json:"last_name" validate:"omitempty,max=50"`
	ProfilePicture *string `json:"profile_picture" validate:"omitempty,url"`
	Bio            *string `json:"bio" validate:"omitempty,max=280"`
}

type preferencesPayload struct {
	Preferences []string `json:"preferences" validate:"max=50,dive,max=50"`
}

type socialLinksPayload struct {
	SocialLinks types.SocialLinks `json:"social_links"`
}

type updateManagerPayload struct {
	FullName *string `json:"full_name" validate:"omitempty,min=2,max=100"`
	Phone    *string `json:"phone" validate:"omitempty,max=30"`
}

// AuthSyncClient creates the caller's client account on first sign-in and
// refreshes last access afterwards.
func AuthSyncClient(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "user") {
			return
		}
		principal, ok := middleware.PrincipalFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}
		var payload syncClientPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		account, err := svc.SyncClient(ctx, principal, users.SyncClientInput{
			Email:          payload.Email,
			FirstName:      payload.FirstName,
			LastName:       payload.LastName,
			ProfilePicture: payload.ProfilePicture,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, syncStatus(account), account)
	}
}

func AuthSyncManager(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "user") {
			return
		}
		principal, ok := middleware.PrincipalFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}
		var payload syncManagerPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		account, err := svc.SyncManager(ctx, principal, users.SyncManagerInput{
			Email:     payload.Email,
			FirstName: payload.FirstName,
			LastName:  payload.LastName,
			Phone:     payload.Phone,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, syncStatus(account), account)
	}
}

func syncStatus(account *users.AccountDTO) int {
	if account.Created {
		return http.StatusCreated
	}
	return http.StatusOK
}

// UserRole answers which role the caller holds.
func UserRole(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "user") {
			return
		}
		subject, ok := subjectOrFail(ctx, logg, w)
		if !ok {
			return
		}
		role, err := svc.Role(ctx, subject)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, role)
	}
}

func ClientProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "user") {
			return
		}
		subject, ok := subjectOrFail(ctx, logg, w)
		if !ok {
			return
		}
		profile, err := svc.GetClient(ctx, subject)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func ClientUpdate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "user") {
			return
		}
		subject, ok := subjectOrFail(ctx, logg, w)
		if !ok {
			return
		}
		var payload updateClientPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		profile, err := svc.UpdateClient(ctx, subject, users.ClientUpdate{
			FirstName:      payload.FirstName,
			LastName:       payload.LastName,
			ProfilePicture: payload.ProfilePicture,
			Bio:            payload.Bio,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func ClientDelete(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "user") {
			return
		}
		subject, ok := subjectOrFail(ctx, logg, w)
		if !ok {
			return
		}
		if err := svc.DeleteClient(ctx, subject); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func ClientPreferences(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "user") {
			return
		}
		subject, ok := subjectOrFail(ctx, logg, w)
		if !ok {
			return
		}
		var payload preferencesPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		prefs, err := svc.UpdatePreferences(ctx, subject, payload.Preferences)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"preferences": prefs})
	}
}

func ClientSocialLinks(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "user") {
			return
		}
		subject, ok := subjectOrFail(ctx, logg, w)
		if !ok {
			return
		}
		var payload socialLinksPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		links, err := svc.UpdateSocialLinks(ctx, subject, payload.SocialLinks)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"social_links": links})
	}
}

func ClientFavorites(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "user") {
			return
		}
		subject, ok := subjectOrFail(ctx, logg, w)
		if !ok {
			return
		}
		list, err := svc.ListFavorites(ctx, subject)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ClientFavoriteAdd(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "user") {
			return
		}
		subject, ok := subjectOrFail(ctx, logg, w)
		if !ok {
			return
		}
		cafeID, err := validators.ParseUUIDParam(r, "cafeId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.AddFavorite(ctx, subject, cafeID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"cafe_id": cafeID})
	}
}

func ClientFavoriteRemove(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "user") {
			return
		}
		subject, ok := subjectOrFail(ctx, logg, w)
		if !ok {
			return
		}
		cafeID, err := validators.ParseUUIDParam(r, "cafeId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.RemoveFavorite(ctx, subject, cafeID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func ManagerProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "user") {
			return
		}
		subject, ok := subjectOrFail(ctx, logg, w)
		if !ok {
			return
		}
		profile, err := svc.GetManager(ctx, subject)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func ManagerUpdate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "user") {
			return
		}
		subject, ok := subjectOrFail(ctx, logg, w)
		if !ok {
			return
		}
		var payload updateManagerPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		profile, err := svc.UpdateManager(ctx, subject, users.ManagerUpdate{
			FullName: payload.FullName,
			Phone:    payload.Phone,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func AdminUserList(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "user") {
			return
		}
		list, err := svc.ListUsers(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AdminUserSetActive(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "user") {
			return
		}
		id, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload activePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		user, err := svc.SetActive(ctx, id, *payload.IsActive)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

func AdminUserDelete(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "user") {
			return
		}
		id, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.DeleteUser(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
