package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/delatte-backend/pkg/auth"
	"github.com/angelmondragon/delatte-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/delatte-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	principal auth.Principal
	err       error
	seen      string
}

func (s *stubVerifier) Verify(_ context.Context, token string) (auth.Principal, error) {
	s.seen = token
	return s.principal, s.err
}

type stubResolver map[string]enums.Role

func (s stubResolver) ResolveRole(_ context.Context, subject string) (enums.Role, error) {
	if subject == "auth0|disabled" {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "account disabled")
	}
	role, ok := s[subject]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "account not registered")
	}
	return role, nil
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(&stubVerifier{}, nil)(okHandler)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(&stubVerifier{err: errors.New("token is expired")}, nil)(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthSeedsPrincipal(t *testing.T) {
	verifier := &stubVerifier{principal: auth.Principal{Subject: "auth0|ana", Email: "ana@example.com"}}
	var captured auth.Principal
	handler := Auth(verifier, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer   abc.def.ghi ")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "abc.def.ghi", verifier.seen)
	assert.Equal(t, "auth0|ana", captured.Subject)
	assert.Equal(t, "ana@example.com", captured.Email)
}

func TestRequireRole(t *testing.T) {
	resolver := stubResolver{"auth0|ana": enums.RoleClient, "auth0|root": enums.RoleAdmin}
	tests := []struct {
		name    string
		subject string
		want    int
	}{
		{"allowed", "auth0|root", http.StatusOK},
		{"wrong role", "auth0|ana", http.StatusForbidden},
		{"unregistered", "auth0|ghost", http.StatusForbidden},
		{"disabled", "auth0|disabled", http.StatusForbidden},
		{"anonymous", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var role enums.Role
			handler := RequireRole(resolver, nil, enums.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				role = RoleFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.subject != "" {
				req = asSubject(req, tt.subject)
			}
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)

			require.Equal(t, tt.want, resp.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, enums.RoleAdmin, role)
			}
		})
	}
}
