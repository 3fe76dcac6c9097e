package common

import (
	"context"

	"github.com/google/uuid"
)

// ContextKey represents a context key type
type ContextKey string

const (
	ContextKeyPrincipal ContextKey = "principal"
	ContextKeyRequestID ContextKey = "request_id"
)

// Principal identifies the authenticated caller for the rest of the
// request, derived from the API key the request presented.
type Principal struct {
	KeyID     uuid.UUID
	KeyName   string
	KeyType   string
	UserEmail string
}

// WithPrincipal adds the authenticated caller to the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

// GetPrincipal extracts the authenticated caller from the context.
func GetPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ContextKeyPrincipal).(Principal)
	return p, ok
}

// WithRequestID adds the request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// GetRequestID extracts the request ID from the context.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(ContextKeyRequestID).(string)
	return requestID, ok
}
