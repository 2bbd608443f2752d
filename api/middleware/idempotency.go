package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/avilesmedina/tiendita-backend/api/responses"
	pkgerrors "github.com/avilesmedina/tiendita-backend/pkg/errors"
	"github.com/avilesmedina/tiendita-backend/pkg/logger"
	pkgredis "github.com/avilesmedina/tiendita-backend/pkg/redis"
)

const (
	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
)

type routeMatcher func(string) bool

type idempotencyRule struct {
	method  string
	matcher routeMatcher
	ttl     time.Duration
}

var idempotencyRules = []idempotencyRule{
	// 24h TTL endpoints
	{method: http.MethodPost, matcher: matchExact("/api/v1/inventory/restock"), ttl: defaultIdempotencyTTL},
	{method: http.MethodPost, matcher: matchExact("/api/v1/inventory/adjust"), ttl: defaultIdempotencyTTL},
	// 7d TTL endpoints: money or stock moves
	{method: http.MethodPost, matcher: matchExact("/api/v1/checkout"), ttl: criticalIdempotencyTTL},
	{method: http.MethodPost, matcher: matchPrefixSuffix("/api/v1/orders/", "/transition"), ttl: criticalIdempotencyTTL},
	{method: http.MethodPost, matcher: matchPrefixSuffix("/api/v1/orders/", "/delivery-attempts"), ttl: criticalIdempotencyTTL},
}

// replayRecord is the stored outcome of a keyed request. Digest pins the
// request body so a reused key with a different payload is rejected instead
// of replayed.
type replayRecord struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type,omitempty"`
	Payload     string `json:"payload"`
	Digest      string `json:"digest"`
}

// Idempotency replays the stored response for repeated Idempotency-Key
// requests on mutating routes. Requests without a key pass through; checkout
// still dedupes those at the database level.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, guarded := routeTTL(r.Method, routePattern(r))
			key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			if !guarded || store == nil || key == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			digest := bodyDigest(body)
			storeKey := store.IdempotencyKey(requestScope(r), key)

			record, err := lookupRecord(r, store, storeKey)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if record != nil {
				if record.Digest != digest {
					responses.WriteError(r.Context(), logg, w,
						pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
					return
				}
				record.replay(w)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			if err := persistRecord(r, store, storeKey, capture, digest, ttl); err != nil && logg != nil {
				logg.Error(r.Context(), "persist idempotency record", err)
			}
		})
	}
}

func lookupRecord(r *http.Request, store pkgredis.IdempotencyStore, key string) (*replayRecord, error) {
	stored, err := store.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}
	var record replayRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	return &record, nil
}

func persistRecord(r *http.Request, store pkgredis.IdempotencyStore, key string, capture *responseCapture, digest string, ttl time.Duration) error {
	record := replayRecord{
		StatusCode:  capture.statusCode(),
		ContentType: capture.Header().Get("Content-Type"),
		Payload:     base64.StdEncoding.EncodeToString(capture.body.Bytes()),
		Digest:      digest,
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, err = store.SetNX(r.Context(), key, string(payload), ttl)
	return err
}

func (rec *replayRecord) replay(w http.ResponseWriter) {
	if rec.ContentType != "" {
		w.Header().Set("Content-Type", rec.ContentType)
	}
	w.WriteHeader(rec.StatusCode)
	if decoded, err := base64.StdEncoding.DecodeString(rec.Payload); err == nil {
		_, _ = w.Write(decoded)
	}
}

// requestScope keys stored responses per actor, method and concrete path so
// two clerks reusing the same key never collide.
func requestScope(r *http.Request) string {
	return strings.Join([]string{
		ActorFromContext(r.Context()),
		r.Method,
		r.URL.Path,
	}, "|")
}

func bodyDigest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func routePattern(r *http.Request) string {
	if r == nil {
		return ""
	}
	// Middleware runs before the leaf route is matched, so the chi pattern
	// can still carry a wildcard tail. Fall back to the concrete path then.
	if ctx := chi.RouteContext(r.Context()); ctx != nil {
		if pattern := ctx.RoutePattern(); pattern != "" && !strings.HasSuffix(pattern, "*") {
			return pattern
		}
	}
	return r.URL.Path
}

func routeTTL(method, pattern string) (time.Duration, bool) {
	if pattern == "" {
		return 0, false
	}
	for _, rule := range idempotencyRules {
		if rule.method == method && rule.matcher(pattern) {
			return rule.ttl, true
		}
	}
	return 0, false
}

func matchExact(path string) routeMatcher {
	return func(pattern string) bool {
		return pattern == path
	}
}

func matchPrefixSuffix(prefix, suffix string) routeMatcher {
	return func(pattern string) bool {
		return strings.HasPrefix(pattern, prefix) && strings.HasSuffix(pattern, suffix)
	}
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseCapture) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}
