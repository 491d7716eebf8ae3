package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/delatte-backend/api/responses"
	"github.com/angelmondragon/delatte-backend/api/validators"
	"github.com/angelmondragon/delatte-backend/internal/admin"
	"github.com/angelmondragon/delatte-backend/internal/reports"
	"github.com/angelmondragon/delatte-backend/pkg/logger"
)

type reportPayload struct {
	ReviewID uuid.UUID `json:"review_id"`
	Reason   string    `json:"reason" validate:"required,max=500"`
}

type reportStatusPayload struct {
	Status string `json:"status" validate:"required,oneof=pending reviewed dismissed"`
}

// ManagerReportReview lets a manager flag a review left on their own café.
func ManagerReportReview(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "report") {
			return
		}
		subject, ok := subjectOrFail(ctx, logg, w)
		if !ok {
			return
		}
		var payload reportPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		report, err := svc.Create(ctx, subject, reports.CreateInput{ReviewID: payload.ReviewID, Reason: payload.Reason})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, report)
	}
}

func AdminReportList(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "report") {
			return
		}
		list, err := svc.List(ctx, r.URL.Query().Get("status"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AdminReportSetStatus(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "report") {
			return
		}
		id, err := validators.ParseUUIDParam(r, "reportId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload reportStatusPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		report, err := svc.SetStatus(ctx, id, payload.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// AdminStats serves the dashboard counters.
func AdminStats(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !serviceOrFail(ctx, logg, w, svc != nil, "admin") {
			return
		}
		stats, err := svc.Stats(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
