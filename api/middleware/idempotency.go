package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/delatte-backend/api/responses"
	pkgerrors "github.com/angelmondragon/delatte-backend/pkg/errors"
	"github.com/angelmondragon/delatte-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/delatte-backend/pkg/redis"
)

// IdempotencyHeader carries the client-chosen replay key.
const IdempotencyHeader = "Idempotency-Key"

const (
	submissionReplayTTL   = 24 * time.Hour
	registrationReplayTTL = 7 * 24 * time.Hour
)

// replayWindows lists the creating writes that accept a replay key, by method
// and chi route pattern. Café registration keeps its replies longer: a manager
// retrying days later must not end up with a Conflict for their own café.
var replayWindows = map[string]time.Duration{
	"POST /api/v1/reviews":             submissionReplayTTL,
	"POST /api/v1/categories/suggest":  submissionReplayTTL,
	"POST /api/v1/cafes/{cafeId}/menu": submissionReplayTTL,
	"POST /api/v1/managers/me/reports": submissionReplayTTL,
	"POST /api/v1/managers/me/cafe":    registrationReplayTTL,
}

type storedReply struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body"`
	BodyHash    string `json:"body_hash"`
}

// Idempotency replays the first successful reply for a (caller, resource, key)
// triple. Rejected and failed attempts are not stored, so a corrected retry
// under the same key reaches the handler again.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ttl, ok := replayWindow(r.Method, routePattern(r))
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}

			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if clientKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, IdempotencyHeader+" header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			bodyHash := hashBody(body)
			key := store.IdempotencyKey(replayScope(r), clientKey)

			raw, err := store.Get(ctx, key)
			switch {
			case err != nil && !errors.Is(err, redis.Nil):
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency key"))
				return
			case raw != "":
				var reply storedReply
				if err := json.Unmarshal([]byte(raw), &reply); err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode stored reply"))
					return
				}
				if reply.BodyHash != bodyHash {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different request body"))
					return
				}
				replay(w, reply)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)
			status := capture.statusOrOK()
			if status < 200 || status >= 300 {
				return
			}

			payload, err := json.Marshal(storedReply{
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
				BodyHash:    bodyHash,
			})
			if err == nil {
				_, err = store.SetNX(ctx, key, string(payload), ttl)
			}
			if err != nil && logg != nil {
				logg.Error(ctx, "idempotency.store_failed", err)
			}
		})
	}
}

// replayScope keys replies by caller and concrete resource path, so the same
// key sent for two different cafés' menus never collides.
func replayScope(r *http.Request) string {
	return SubjectFromContext(r.Context()) + "|" + r.Method + " " + r.URL.Path
}

func replayWindow(method, pattern string) (time.Duration, bool) {
	ttl, ok := replayWindows[method+" "+pattern]
	return ttl, ok
}

func replay(w http.ResponseWriter, reply storedReply) {
	if reply.ContentType != "" {
		w.Header().Set("Content-Type", reply.ContentType)
	}
	w.Header().Set("Idempotent-Replay", "true")
	w.WriteHeader(reply.Status)
	if decoded, err := base64.StdEncoding.DecodeString(reply.Body); err == nil {
		_, _ = w.Write(decoded)
	}
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) statusOrOK() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

func (c *responseCapture) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}
