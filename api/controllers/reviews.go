package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/delatte-backend/api/responses"
	"github.com/angelmondragon/delatte-backend/api/validators"
	"github.com/angelmondragon/delatte-backend/internal/reviews"
	pkgerrors "github.com/angelmondragon/delatte-backend/pkg/errors"
	"github.com/angelmondragon/delatte-backend/pkg/logger"
)

type createReviewPayload struct {
	CafeID              uuid.UUID   `json:"cafe_id"`
	Rating              int         `json:"rating" validate:"required,gte=1,lte=5"`
	Comment             *string     `json:"comment" validate:"omitempty,max=1000"`
	ImageURL            *string     `json:"image_url" validate:"omitempty,url"`
	SelectedCategoryIDs []uuid.UUID `json:"selected_categories"`
	NewCategoryNames    []string    `json:"new_categories" validate:"omitempty,max=10,dive,max=50"`
}

// ReviewList returns every review of the café given by ?cafeId, newest first.
func ReviewList(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "review") {
			return
		}
		raw := strings.TrimSpace(r.URL.Query().Get("cafeId"))
		if raw == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cafeId is required"))
			return
		}
		cafeID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cafeId"))
			return
		}
		list, err := svc.ListForCafe(ctx, cafeID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ReviewCreate submits the caller's review and returns the refreshed café average.
func ReviewCreate(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "review") {
			return
		}
		subject, ok := subjectOrFail(ctx, logg, w)
		if !ok {
			return
		}
		var payload createReviewPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if payload.CafeID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cafe_id is required"))
			return
		}
		if logg != nil {
			ctx = logg.WithCafeID(ctx, payload.CafeID.String())
		}
		result, err := svc.Create(ctx, subject, reviews.CreateInput{
			CafeID:              payload.CafeID,
			Rating:              payload.Rating,
			Comment:             payload.Comment,
			ImageURL:            payload.ImageURL,
			SelectedCategoryIDs: payload.SelectedCategoryIDs,
			NewCategoryNames:    payload.NewCategoryNames,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func AdminReviewDelete(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "review") {
			return
		}
		id, err := validators.ParseUUIDParam(r, "reviewId")
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
