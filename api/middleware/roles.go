package middleware

import (
	"context"
	"net/http"
	"slices"

	"github.com/angelmondragon/delatte-backend/api/responses"
	"github.com/angelmondragon/delatte-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/delatte-backend/pkg/errors"
	"github.com/angelmondragon/delatte-backend/pkg/logger"
)

// RoleResolver maps a verified subject onto its account role.
type RoleResolver interface {
	ResolveRole(ctx context.Context, subject string) (enums.Role, error)
}

// RequireRole resolves the caller's role from the account store and admits only
// the listed roles. It must run after Auth.
func RequireRole(resolver RoleResolver, logg *logger.Logger, allowed ...enums.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := SubjectFromContext(r.Context())
			if subject == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}

			role := RoleFromContext(r.Context())
			if role == "" {
				resolved, err := resolver.ResolveRole(r.Context(), subject)
				if err != nil {
					if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
						err = pkgerrors.New(pkgerrors.CodeForbidden, "account not registered")
					}
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				role = resolved
			}

			if !slices.Contains(allowed, role) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required"))
				return
			}

			ctx := WithRole(r.Context(), role)
			if logg != nil {
				ctx = logg.WithActorRole(ctx, string(role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
