// Package interceptors carries the request id and idempotency key across
// HTTP hops: a server middleware lifts them into the context and a client
// RoundTripper writes them back out on outbound calls.
package interceptors

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/comanda/internal/pkg/interceptors/constants"
)

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, constants.ContextKeyRequestID, id)
}

// RequestID returns the propagated request id, falling back to the one chi
// generated for the current request.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(constants.ContextKeyRequestID).(string); ok && id != "" {
		return id
	}
	return middleware.GetReqID(ctx)
}

func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, constants.ContextKeyIdempotencyKey, key)
}

func IdempotencyKey(ctx context.Context) string {
	key, _ := ctx.Value(constants.ContextKeyIdempotencyKey).(string)
	return key
}

// AttachRequestMetadata must run after middleware.RequestID.
func AttachRequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		ctx := WithRequestID(r.Context(), requestID)
		if key := r.Header.Get(constants.HeaderXIdempotencyKey); key != "" {
			ctx = WithIdempotencyKey(ctx, key)
		}
		if requestID != "" {
			w.Header().Set(constants.HeaderXRequestId, requestID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
