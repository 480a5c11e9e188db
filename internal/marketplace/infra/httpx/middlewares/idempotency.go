package middlewares

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
	"github.com/jcmexdev/homechef-marketplace/internal/pkg/cache"
	"github.com/jcmexdev/homechef-marketplace/internal/pkg/interceptors/constants"
)

const (
	idempotencyOperation = "idempotency"
	statePending         = "pending"
	stateDone            = "done"
)

// storedResponse is the Redis value for one idempotency key.
type storedResponse struct {
	State       string `json:"state"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Body        string `json:"body,omitempty"`
}

// Idempotency replays the first successful response for a repeated
// X-Idempotency-Key. Keys are scoped to the actor, method and path. A duplicate
// that arrives while the first request is still running gets 409. Failed
// responses are not stored, so the client may retry them. With a nil cache,
// or a request without the header, it is a pass-through.
func Idempotency(c cache.Cache, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if c == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			idemKey := strings.TrimSpace(constants.IdempotencyKey(ctx))
			if idemKey == "" {
				idemKey = strings.TrimSpace(r.Header.Get(constants.HeaderXIdempotencyKey))
			}
			if idemKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			scope := ActorFrom(ctx).ID
			if scope == "" {
				scope = "anonymous"
			}
			key := c.GenerateKey(idempotencyOperation, strings.Join([]string{scope, r.Method, r.URL.Path, idemKey}, ":"))

			pending, _ := json.Marshal(storedResponse{State: statePending})
			acquired, err := c.SetNX(ctx, key, pending, ttl)
			if err != nil {
				slog.WarnContext(ctx, "idempotency store unavailable, executing request", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !acquired {
				replay(w, r, c, key)
				return
			}

			// A panicking handler must not leave the pending marker behind,
			// or every retry with this key gets 409 until the TTL expires.
			defer func() {
				if p := recover(); p != nil {
					release(ctx, c, key)
					panic(p)
				}
			}()

			var body bytes.Buffer
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&body)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status < 200 || status >= 300 {
				release(ctx, c, key)
				return
			}

			done, _ := json.Marshal(storedResponse{
				State:       stateDone,
				Status:      status,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        body.String(),
			})
			if err := c.Set(ctx, key, done, ttl); err != nil {
				slog.WarnContext(ctx, "failed to store idempotent response", "key", key, "error", err)
			}
		})
	}
}

func release(ctx context.Context, c cache.Cache, key string) {
	if err := c.Delete(context.WithoutCancel(ctx), key); err != nil {
		slog.WarnContext(ctx, "failed to release idempotency key", "key", key, "error", err)
	}
}

func replay(w http.ResponseWriter, r *http.Request, c cache.Cache, key string) {
	ctx := r.Context()
	raw, err := c.Get(ctx, key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, domain.KindPersistence, "idempotency store unavailable")
		return
	}

	var stored storedResponse
	if raw == "" || json.Unmarshal([]byte(raw), &stored) != nil || stored.State != stateDone {
		writeError(w, http.StatusConflict, domain.KindConflict, "a request with this idempotency key is already in progress")
		return
	}

	slog.InfoContext(ctx, "replaying idempotent response", "key", key, "status", stored.Status)
	if stored.ContentType != "" {
		w.Header().Set("Content-Type", stored.ContentType)
	}
	w.Header().Set(constants.HeaderIdempotentReplayed, "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write([]byte(stored.Body))
}
