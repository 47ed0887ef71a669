package testutil

import (
	"context"
	"net/http"

	"credentry/pkg/domain"
	"credentry/pkg/requestcontext"
)

// CallerContext returns a context carrying the given caller identity, as the
// auth middleware would have set it. For service unit tests that skip HTTP.
func CallerContext(id domain.AccountID) context.Context {
	return requestcontext.WithCallerID(context.Background(), id)
}

// WithCaller adds a caller identity to the request context. Simulates the
// auth middleware for handler tests that bypass token verification.
func WithCaller(req *http.Request, id domain.AccountID) *http.Request {
	ctx := requestcontext.WithCallerID(req.Context(), id)
	return req.WithContext(ctx)
}
