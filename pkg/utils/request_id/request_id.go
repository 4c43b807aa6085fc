package request_id

import (
	"context"

	"github.com/google/uuid"
)

type ctxRequestIDKey struct{}

func With(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey{}, requestID)
}

// FromContext returns the request ID in ctx, or "" if none was set.
func FromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ctxRequestIDKey{}).(string); ok {
		return requestID
	}
	return ""
}

// Generate attaches a new random request ID to ctx.
func Generate(ctx context.Context) (context.Context, string) {
	requestID := uuid.NewString()
	return With(ctx, requestID), requestID
}
