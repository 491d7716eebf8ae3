package controllers

import (
	"net/http"

	"github.com/angelmondragon/delatte-backend/api/middleware"
	"github.com/angelmondragon/delatte-backend/api/responses"
	"github.com/angelmondragon/delatte-backend/api/validators"
	"github.com/angelmondragon/delatte-backend/internal/categories"
	"github.com/angelmondragon/delatte-backend/pkg/enums"
	"github.com/angelmondragon/delatte-backend/pkg/logger"
)

type suggestCategoryPayload struct {
	Name        string  `json:"name" validate:"required,max=50"`
	Description *string `json:"description" validate:"omitempty,max=280"`
}

type createCategoryPayload struct {
	Name         string  `json:"name" validate:"required,max=50"`
	Description  *string `json:"description" validate:"omitempty,max=280"`
	Type         string  `json:"type" validate:"required,oneof=structural perceptual"`
	ScheduleRule *string `json:"schedule_rule"`
}

type updateCategoryPayload struct {
	Name         *string `json:"name" validate:"omitempty,max=50"`
	Description  *string `json:"description" validate:"omitempty,max=280"`
	IsActive     *bool   `json:"is_active"`
	ScheduleRule *string `json:"schedule_rule"`
}

// CategoryList returns active categories, optionally filtered by ?type.
func CategoryList(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "category") {
			return
		}
		list, err := svc.ListActive(ctx, r.URL.Query().Get("type"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// CategorySuggest files a pending category. The caller's role decides its type.
func CategorySuggest(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "category") {
			return
		}
		var payload suggestCategoryPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		dto, err := svc.Suggest(ctx, categories.SuggestInput{
			Name:        payload.Name,
			Description: payload.Description,
		}, middleware.RoleFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func AdminCategorySuggested(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "category") {
			return
		}
		list, err := svc.ListSuggested(ctx, r.URL.Query().Get("role"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AdminCategoryCreate(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "category") {
			return
		}
		var payload createCategoryPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		dto, err := svc.CreateByAdmin(ctx, categories.CreateInput{
			Name:         payload.Name,
			Description:  payload.Description,
			Type:         enums.CategoryType(payload.Type),
			ScheduleRule: payload.ScheduleRule,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func AdminCategoryUpdate(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "category") {
			return
		}
		id, err := validators.ParseUUIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload updateCategoryPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		dto, err := svc.Update(ctx, id, categories.UpdateInput{
			Name:         payload.Name,
			Description:  payload.Description,
			IsActive:     payload.IsActive,
			ScheduleRule: payload.ScheduleRule,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AdminCategoryApprove(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "category") {
			return
		}
		id, err := validators.ParseUUIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		dto, err := svc.Approve(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AdminCategoryDelete(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "category") {
			return
		}
		id, err := validators.ParseUUIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Delete(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
