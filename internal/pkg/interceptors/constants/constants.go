// Package constants names the request metadata shared by the HTTP
// middlewares, the gRPC interceptors and the services that read it.
package constants

import "context"

type contextKey string

const (
	HeaderXRequestId      = "x-request-id"
	HeaderXIdempotencyKey = "x-idempotency-key"
	// HeaderIdempotentReplayed marks a response served from the idempotency
	// store instead of the handler.
	HeaderIdempotentReplayed = "idempotent-replayed"

	ContextKeyRequestID      contextKey = HeaderXRequestId
	ContextKeyIdempotencyKey contextKey = HeaderXIdempotencyKey
)

// RequestID returns the request id carried by ctx, or "".
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyRequestID).(string)
	return v
}

// IdempotencyKey returns the client idempotency key carried by ctx, or "".
func IdempotencyKey(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyIdempotencyKey).(string)
	return v
}
