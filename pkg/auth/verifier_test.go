package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/angelmondragon/delatte-backend/pkg/config"
	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	testIssuer   = "https://id.delatte.test/"
	testAudience = "delatte-api"
)

func TestNewVerifierRequiresSettings(t *testing.T) {
	cases := []Config{
		{},
		{JWKSURL: "http://jwks"},
		{JWKSURL: "http://jwks", Issuer: testIssuer},
	}
	for _, cfg := range cases {
		if _, err := NewVerifier(cfg); err == nil {
			t.Fatalf("expected config %+v to fail", cfg)
		}
	}
}

func TestVerifyReturnsPrincipal(t *testing.T) {
	key := generateKey(t)
	srv, _ := jwksServer(t, func() map[string]*rsa.PublicKey {
		return map[string]*rsa.PublicKey{"kid-1": &key.PublicKey}
	})

	v := newTestVerifier(t, srv.URL)
	signed := signToken(t, key, "kid-1", jwt.MapClaims{
		"sub":   "auth0|abc",
		"email": " Ana@Example.com ",
	})

	principal, err := v.Verify(context.Background(), signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if principal.Subject != "auth0|abc" {
		t.Fatalf("unexpected subject %q", principal.Subject)
	}
	if principal.Email != "ana@example.com" {
		t.Fatalf("expected normalized email, got %q", principal.Email)
	}
}

func TestVerifyRefreshesOnUnknownKid(t *testing.T) {
	key1 := generateKey(t)
	key2 := generateKey(t)
	active := atomic.Value{}
	active.Store("kid-1")

	srv, hits := jwksServer(t, func() map[string]*rsa.PublicKey {
		if active.Load().(string) == "kid-2" {
			return map[string]*rsa.PublicKey{"kid-2": &key2.PublicKey}
		}
		return map[string]*rsa.PublicKey{"kid-1": &key1.PublicKey}
	})

	v := newTestVerifier(t, srv.URL)
	if err := v.Warm(context.Background()); err != nil {
		t.Fatalf("warm: %v", err)
	}

	active.Store("kid-2")
	// Rotation happened after the last refresh window.
	v.now = func() time.Time { return time.Now().Add(minRefreshInterval) }

	signed := signToken(t, key2, "kid-2", jwt.MapClaims{"sub": "user-b"})
	principal, err := v.Verify(context.Background(), signed)
	if err != nil {
		t.Fatalf("verify after rotation: %v", err)
	}
	if principal.Subject != "user-b" {
		t.Fatalf("unexpected subject %q", principal.Subject)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected 2 jwks fetches, got %d", got)
	}
}

func TestVerifyRejectsInvalidTokens(t *testing.T) {
	key := generateKey(t)
	srv, _ := jwksServer(t, func() map[string]*rsa.PublicKey {
		return map[string]*rsa.PublicKey{"kid-1": &key.PublicKey}
	})
	v := newTestVerifier(t, srv.URL)

	cases := map[string]jwt.MapClaims{
		"wrong audience": {"sub": "u", "aud": "someone-else"},
		"wrong issuer":   {"sub": "u", "iss": "https://evil.test/"},
		"expired":        {"sub": "u", "exp": time.Now().Add(-time.Hour).Unix()},
		"future iat":     {"sub": "u", "iat": time.Now().Add(2 * time.Minute).Unix()},
		"missing sub":    {"sub": ""},
	}
	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			signed := signToken(t, key, "kid-1", claims)
			if _, err := v.Verify(context.Background(), signed); err == nil {
				t.Fatalf("expected %s token to fail", name)
			}
		})
	}

	if _, err := v.Verify(context.Background(), "not-a-jwt"); err == nil {
		t.Fatalf("expected garbage token to fail")
	}
}

func TestConfigFromIdentity(t *testing.T) {
	cfg := ConfigFromIdentity(config.IdentityConfig{
		JWKSURL:    "http://jwks",
		Issuer:     testIssuer,
		Audience:   testAudience,
		EmailClaim: "https://delatte/email",
	})
	if cfg.HTTPClient == nil || cfg.HTTPClient.Timeout != defaultJWKSHTTPTimeout {
		t.Fatalf("expected default http timeout")
	}
	if cfg.EmailClaim != "https://delatte/email" {
		t.Fatalf("unexpected email claim %q", cfg.EmailClaim)
	}
}

func TestParseCacheMaxAge(t *testing.T) {
	if got := parseCacheMaxAge("public, max-age=120"); got != 2*time.Minute {
		t.Fatalf("expected 2m, got %s", got)
	}
	if got := parseCacheMaxAge("no-store"); got != 0 {
		t.Fatalf("expected 0, got %s", got)
	}
}

func newTestVerifier(t *testing.T, url string) *Verifier {
	t.Helper()
	v, err := NewVerifier(Config{JWKSURL: url, Issuer: testIssuer, Audience: testAudience})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	return v
}

func generateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func jwksServer(t *testing.T, keys func() map[string]*rsa.PublicKey) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		var out []map[string]string
		for kid, key := range keys() {
			out = append(out, map[string]string{
				"kty": "RSA",
				"kid": kid,
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			})
		}
		w.Header().Set("Cache-Control", "public, max-age=300")
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": out})
	}))
	t.Cleanup(srv.Close)
	return srv, hits
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, overrides jwt.MapClaims) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": testIssuer,
		"aud": testAudience,
		"iat": now.Unix(),
		"exp": now.Add(time.Minute).Unix(),
	}
	for k, v := range overrides {
		claims[k] = v
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
