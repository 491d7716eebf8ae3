package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/delatte-backend/pkg/config"
	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	defaultLeeway          = 30 * time.Second
	defaultJWKSCacheTTL    = 5 * time.Minute
	defaultEmailClaim      = "email"
	minRefreshInterval     = 10 * time.Second
	defaultJWKSHTTPTimeout = 5 * time.Second
)

var (
	errUnknownKey = errors.New("unknown token key")
	// ErrMissingSubject is returned when a valid token carries no sub claim.
	ErrMissingSubject = errors.New("token subject missing")
)

// Principal is the identity asserted by the external provider.
type Principal struct {
	Subject string
	Email   string
}

// Config configures bearer-token verification against a JWKS endpoint.
type Config struct {
	JWKSURL    string
	Issuer     string
	Audience   string
	EmailClaim string
	Leeway     time.Duration
	HTTPClient *http.Client
}

// ConfigFromIdentity maps the env-driven identity settings onto verifier options.
func ConfigFromIdentity(cfg config.IdentityConfig) Config {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultJWKSHTTPTimeout
	}
	return Config{
		JWKSURL:    cfg.JWKSURL,
		Issuer:     cfg.Issuer,
		Audience:   cfg.Audience,
		EmailClaim: cfg.EmailClaim,
		Leeway:     cfg.Leeway,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Verifier validates RS256 access tokens using keys published by the identity provider.
type Verifier struct {
	issuer     string
	audience   string
	emailClaim string
	leeway     time.Duration
	jwksURL    string
	httpClient *http.Client
	now        func() time.Time

	mu          sync.RWMutex
	rsaKeys     map[string]*rsa.PublicKey
	keysExpire  time.Time
	lastRefresh time.Time
}

// NewVerifier builds a verifier. Keys are fetched lazily on first use; call Warm to prefetch.
func NewVerifier(cfg Config) (*Verifier, error) {
	jwksURL := strings.TrimSpace(cfg.JWKSURL)
	if jwksURL == "" {
		return nil, errors.New("token verifier requires jwks url")
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		return nil, errors.New("token verifier requires issuer")
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		return nil, errors.New("token verifier requires audience")
	}
	leeway := cfg.Leeway
	if leeway <= 0 {
		leeway = defaultLeeway
	}
	emailClaim := strings.TrimSpace(cfg.EmailClaim)
	if emailClaim == "" {
		emailClaim = defaultEmailClaim
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultJWKSHTTPTimeout}
	}

	return &Verifier{
		issuer:     issuer,
		audience:   audience,
		emailClaim: emailClaim,
		leeway:     leeway,
		jwksURL:    jwksURL,
		httpClient: client,
		now:        time.Now,
		rsaKeys:    map[string]*rsa.PublicKey{},
	}, nil
}

// Warm fetches the key set so the first request does not pay for it.
func (v *Verifier) Warm(ctx context.Context) error {
	return v.refreshJWKS(ctx)
}

// Verify validates the token and returns the caller identity.
func (v *Verifier) Verify(ctx context.Context, token string) (Principal, error) {
	claims, err := v.parse(token)
	if err != nil && v.shouldRefresh(err) {
		if refreshErr := v.refreshJWKS(ctx); refreshErr != nil {
			return Principal{}, fmt.Errorf("refresh jwks: %w", refreshErr)
		}
		claims, err = v.parse(token)
	}
	if err != nil {
		return Principal{}, err
	}

	subject, _ := claims.GetSubject()
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return Principal{}, ErrMissingSubject
	}
	email, _ := claims[v.emailClaim].(string)
	return Principal{
		Subject: subject,
		Email:   strings.ToLower(strings.TrimSpace(email)),
	}, nil
}

func (v *Verifier) shouldRefresh(err error) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	now := v.now().UTC()
	if now.After(v.keysExpire) {
		return true
	}
	return errors.Is(err, errUnknownKey) && now.Sub(v.lastRefresh) >= minRefreshInterval
}

func (v *Verifier) parse(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	keys := v.copyKeys()
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		key, ok := keys[strings.TrimSpace(kid)]
		if !ok {
			return nil, errUnknownKey
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (v *Verifier) copyKeys() map[string]*rsa.PublicKey {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]*rsa.PublicKey, len(v.rsaKeys))
	for kid, key := range v.rsaKeys {
		out[kid] = key
	}
	return out
}

func (v *Verifier) refreshJWKS(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch jwks: status %d", resp.StatusCode)
	}

	var payload struct {
		Keys []struct {
			Kty string `json:"kty"`
			Kid string `json:"kid"`
			Use string `json:"use"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(payload.Keys))
	for _, k := range payload.Keys {
		if !strings.EqualFold(strings.TrimSpace(k.Kty), "RSA") {
			continue
		}
		if use := strings.TrimSpace(k.Use); use != "" && use != "sig" {
			continue
		}
		kid := strings.TrimSpace(k.Kid)
		if kid == "" {
			continue
		}
		pub, err := parseRSAPublicKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[kid] = pub
	}
	if len(keys) == 0 {
		return errors.New("jwks contains no usable rsa keys")
	}

	ttl := parseCacheMaxAge(resp.Header.Get("Cache-Control"))
	if ttl <= 0 {
		ttl = defaultJWKSCacheTTL
	}

	now := v.now().UTC()
	v.mu.Lock()
	v.rsaKeys = keys
	v.keysExpire = now.Add(ttl)
	v.lastRefresh = now
	v.mu.Unlock()
	return nil
}

func parseRSAPublicKey(nRaw, eRaw string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(nRaw))
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(eRaw))
	if err != nil {
		return nil, err
	}
	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)
	if n.Sign() <= 0 || !e.IsInt64() || e.Int64() <= 0 {
		return nil, errors.New("invalid rsa key")
	}
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

func parseCacheMaxAge(cacheControl string) time.Duration {
	for _, part := range strings.Split(cacheControl, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if !strings.HasPrefix(part, "max-age=") {
			continue
		}
		secs, err := time.ParseDuration(strings.TrimPrefix(part, "max-age=") + "s")
		if err != nil {
			return 0
		}
		return secs
	}
	return 0
}
