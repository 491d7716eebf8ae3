package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/delatte-backend/api/middleware"
	"github.com/angelmondragon/delatte-backend/api/responses"
	pkgerrors "github.com/angelmondragon/delatte-backend/pkg/errors"
	"github.com/angelmondragon/delatte-backend/pkg/logger"
)

// subjectOrFail returns the authenticated subject, writing a 401 when absent.
func subjectOrFail(ctx context.Context, logg *logger.Logger, w http.ResponseWriter) (string, bool) {
	subject := middleware.SubjectFromContext(ctx)
	if subject == "" {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
		return "", false
	}
	return subject, true
}

// serviceOrFail guards against handlers mounted without their dependency.
func serviceOrFail(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, ok bool, name string) bool {
	if !ok {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
	}
	return ok
}

type activePayload struct {
	IsActive *bool `json:"is_active" validate:"required"`
}
