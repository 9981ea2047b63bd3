package middleware_http

import (
	"context"

	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id set by TraceMiddleware, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestID keeps a caller supplied id when it parses as a UUID.
func requestID(incoming string) string {
	if _, err := uuid.Parse(incoming); err == nil {
		return incoming
	}
	return uuid.NewString()
}
