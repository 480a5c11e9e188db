package middlewares

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/homechef-marketplace/internal/pkg/interceptors/constants"
)

// AttachRequestMetadata copies chi's request id and the client's idempotency
// key into the context, where checkout stamps them onto the order. The request
// id is echoed back in the response headers.
func AttachRequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		idempotencyKey := r.Header.Get(constants.HeaderXIdempotencyKey)

		ctx := context.WithValue(r.Context(), constants.ContextKeyRequestID, requestID)
		ctx = context.WithValue(ctx, constants.ContextKeyIdempotencyKey, idempotencyKey)
		if requestID != "" {
			w.Header().Set(constants.HeaderXRequestId, requestID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
