package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/delatte-backend/api/responses"
	"github.com/angelmondragon/delatte-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/delatte-backend/pkg/errors"
	"github.com/angelmondragon/delatte-backend/pkg/logger"
)

// TokenVerifier checks a bearer token against the identity provider.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (auth.Principal, error)
}

// Auth validates a bearer token and seeds the request context with the principal.
// It does not require a local account; see RequireRole for that.
func Auth(verifier TokenVerifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			principal, err := verifier.Verify(r.Context(), token)
			if err != nil {
				if typed := pkgerrors.As(err); typed != nil {
					responses.WriteError(r.Context(), logg, w, typed)
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			if logg != nil {
				ctx = logg.WithSubject(ctx, principal.Subject)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(raw string) string {
	token := strings.TrimSpace(raw)
	if len(token) >= 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
