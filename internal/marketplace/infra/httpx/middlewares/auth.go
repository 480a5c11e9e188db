package middlewares

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
)

type actorKey struct{}

// TokenParser resolves a bearer token to an actor.
type TokenParser interface {
	Parse(token string) (domain.Actor, error)
}

// WithActor stores actor in ctx.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the authenticated actor, or the zero Actor.
func ActorFrom(ctx context.Context) domain.Actor {
	a, _ := ctx.Value(actorKey{}).(domain.Actor)
	return a
}

// Authenticate rejects requests without a valid bearer token.
func Authenticate(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.Fields(r.Header.Get("Authorization"))
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeError(w, http.StatusUnauthorized, domain.KindNotAuthenticated, "missing or malformed bearer token")
				return
			}
			actor, err := parser.Parse(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, domain.KindNotAuthenticated, domain.MessageOf(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// RequireRole lets only the given roles through. It must run after
// Authenticate.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFrom(r.Context())
			if !actor.Authenticated() {
				writeError(w, http.StatusUnauthorized, domain.KindNotAuthenticated, "authentication required")
				return
			}
			if !slices.Contains(roles, actor.Role) {
				writeError(w, http.StatusForbidden, domain.KindForbidden, "role "+string(actor.Role)+" may not access this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeError(w http.ResponseWriter, status int, kind domain.Kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: string(kind), Message: msg})
}
