package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/delatte-backend/api/responses"
	"github.com/angelmondragon/delatte-backend/api/validators"
	"github.com/angelmondragon/delatte-backend/internal/cafes"
	"github.com/angelmondragon/delatte-backend/pkg/logger"
	"github.com/angelmondragon/delatte-backend/pkg/schedule"
	"github.com/angelmondragon/delatte-backend/pkg/types"
)

type registerCafePayload struct {
	ManagerName string                  `json:"manager_name" validate:"omitempty,max=100"`
	Name        string                  `json:"name" validate:"required,max=120"`
	Address     string                  `json:"address" validate:"required,max=200"`
	Location    types.Location          `json:"location"`
	Description string                  `json:"description" validate:"max=2000"`
	Categories  []uuid.UUID             `json:"categories"`
	Gallery     []string                `json:"gallery" validate:"omitempty,dive,url"`
	CoverImage  *string                 `json:"cover_image" validate:"omitempty,url"`
	Schedule    schedule.WeeklySchedule `json:"schedule"`
}

type updateCafePayload struct {
	Name        *string                  `json:"name" validate:"omitempty,max=120"`
	Address     *string                  `json:"address" validate:"omitempty,max=200"`
	Location    *types.Location          `json:"location"`
	Description *string                  `json:"description" validate:"omitempty,max=2000"`
	Categories  *[]uuid.UUID             `json:"categories"`
	Gallery     *[]string                `json:"gallery"`
	CoverImage  *string                  `json:"cover_image" validate:"omitempty,url"`
	Schedule    *schedule.WeeklySchedule `json:"schedule"`
}

type schedulePayload struct {
	Schedule schedule.WeeklySchedule `json:"schedule" validate:"required"`
}

type menuItemPayload struct {
	Name        string          `json:"name" validate:"required,max=120"`
	Description *string         `json:"description" validate:"omitempty,max=500"`
	Price       decimal.Decimal `json:"price"`
	Image       *string         `json:"image" validate:"omitempty,url"`
}

type addMenuPayload struct {
	Items []menuItemPayload `json:"items" validate:"required,min=1,dive"`
}

type menuPatchPayload struct {
	Name        *string          `json:"name" validate:"omitempty,max=120"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
	Price       *decimal.Decimal `json:"price"`
	Image       *string          `json:"image" validate:"omitempty,url"`
}

// CafeSearch serves the public café listing with text, category, rating,
// sort, pagination and open-now filters.
func CafeSearch(svc cafes.Service, defaultLimit int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "cafe") {
			return
		}
		list, err := svc.Search(ctx, cafes.ParseSearchFilter(r.URL.Query(), defaultLimit))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func CafeDetail(svc cafes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "cafe") {
			return
		}
		id, err := validators.ParseUUIDParam(r, "cafeId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		detail, err := svc.GetDetail(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// ManagerCafeRegister creates the caller's café, creating the manager profile on first use.
func ManagerCafeRegister(svc cafes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "cafe") {
			return
		}
		subject, ok := subjectOrFail(ctx, logg, w)
		if !ok {
			return
		}
		var payload registerCafePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		out, err := svc.RegisterForManager(ctx, subject, cafes.RegisterInput{
			ManagerName: payload.ManagerName,
			Name:        payload.Name,
			Address:     payload.Address,
			Location:    payload.Location,
			Description: payload.Description,
			CategoryIDs: payload.Categories,
			Gallery:     payload.Gallery,
			CoverImage:  payload.CoverImage,
			Schedule:    payload.Schedule,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}

func ManagerCafeGet(svc cafes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "cafe") {
			return
		}
		subject, ok := subjectOrFail(ctx, logg, w)
		if !ok {
			return
		}
		detail, err := svc.GetForManager(ctx, subject)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// ManagerCafeUpdate applies a partial update. Schedule-gated categories the
// new schedule cannot satisfy come back in ignored_categories.
func ManagerCafeUpdate(svc cafes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "cafe") {
			return
		}
		subject, ok := subjectOrFail(ctx, logg, w)
		if !ok {
			return
		}
		var payload updateCafePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		out, err := svc.UpdateForManager(ctx, subject, cafes.UpdateInput{
			Name:        payload.Name,
			Address:     payload.Address,
			Location:    payload.Location,
			Description: payload.Description,
			CategoryIDs: payload.Categories,
			Gallery:     payload.Gallery,
			CoverImage:  payload.CoverImage,
			Schedule:    payload.Schedule,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func ManagerCafeToggleActive(svc cafes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "cafe") {
			return
		}
		subject, ok := subjectOrFail(ctx, logg, w)
		if !ok {
			return
		}
		detail, err := svc.ToggleActiveForManager(ctx, subject)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func ManagerCafeSchedule(svc cafes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "cafe") {
			return
		}
		subject, ok := subjectOrFail(ctx, logg, w)
		if !ok {
			return
		}
		var payload schedulePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		saved, err := svc.UpdateScheduleForManager(ctx, subject, payload.Schedule)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"schedule": saved})
	}
}

func ManagerCafeStats(svc cafes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "cafe") {
			return
		}
		subject, ok := subjectOrFail(ctx, logg, w)
		if !ok {
			return
		}
		stats, err := svc.ManagerStats(ctx, subject)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func MenuAddItems(svc cafes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "cafe") {
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
		var payload addMenuPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		items := make([]cafes.MenuItemInput, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, cafes.MenuItemInput{
				Name:        item.Name,
				Description: item.Description,
				Price:       item.Price,
				Image:       item.Image,
			})
		}
		menu, err := svc.AddMenuItems(ctx, subject, cafeID, items)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, menu)
	}
}

func MenuUpdateItem(svc cafes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "cafe") {
			return
		}
		subject, ok := subjectOrFail(ctx, logg, w)
		if !ok {
			return
		}
		cafeID, itemID, err := menuIDs(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload menuPatchPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		item, err := svc.UpdateMenuItem(ctx, subject, cafeID, itemID, cafes.MenuItemPatch{
			Name:        payload.Name,
			Description: payload.Description,
			Price:       payload.Price,
			Image:       payload.Image,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func MenuDeleteItem(svc cafes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "cafe") {
			return
		}
		subject, ok := subjectOrFail(ctx, logg, w)
		if !ok {
			return
		}
		cafeID, itemID, err := menuIDs(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.DeleteMenuItem(ctx, subject, cafeID, itemID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func AdminCafeSetActive(svc cafes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "cafe") {
			return
		}
		id, err := validators.ParseUUIDParam(r, "cafeId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload activePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		detail, err := svc.SetActive(ctx, id, *payload.IsActive)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func AdminCafeDelete(svc cafes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "cafe") {
			return
		}
		id, err := validators.ParseUUIDParam(r, "cafeId")
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

func menuIDs(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	cafeID, err := validators.ParseUUIDParam(r, "cafeId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	itemID, err := validators.ParseUUIDParam(r, "itemId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return cafeID, itemID, nil
}
