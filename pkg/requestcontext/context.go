// Package requestcontext provides HTTP-independent accessors for
// request-scoped values.
//
// Every mutating registry operation resolves "who is calling" from the
// context, never from a request parameter. The auth middleware sets the
// caller identity; services read it. Keeping this package free of net/http
// lets services and tests inject identities without an HTTP stack.
package requestcontext

import (
	"context"

	"credentry/pkg/domain"
)

type (
	callerIDKey  struct{}
	requestIDKey struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyCallerID  = callerIDKey{}
	ContextKeyRequestID = requestIDKey{}
)

// CallerID retrieves the authenticated caller identity from the context.
// Returns the zero value if the request is unauthenticated.
func CallerID(ctx context.Context) domain.AccountID {
	if id, ok := ctx.Value(ContextKeyCallerID).(domain.AccountID); ok {
		return id
	}
	return ""
}

// WithCallerID injects a caller identity into the context. Set by the auth
// middleware; also used directly by service unit tests.
func WithCallerID(ctx context.Context, id domain.AccountID) context.Context {
	return context.WithValue(ctx, ContextKeyCallerID, id)
}

// RequestID retrieves the correlation ID from the context.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a correlation ID into the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, id)
}
