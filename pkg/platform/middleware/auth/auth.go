// Package auth resolves the caller identity for every mutating operation.
//
// Identity is never a request parameter: the bearer token's subject claim is
// the opaque account identity, and RequireAuth injects it into the request
// context where services read it. Token verification is HMAC over a shared
// signing key; what mints the tokens is outside this core.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"credentry/pkg/domain"
	"credentry/pkg/requestcontext"
)

// Verifier validates bearer tokens and extracts the caller identity.
type Verifier struct {
	signingKey []byte
}

func NewVerifier(signingKey string) *Verifier {
	return &Verifier{signingKey: []byte(signingKey)}
}

// CallerFromToken verifies the token and returns the subject identity.
func (v *Verifier) CallerFromToken(tokenString string) (domain.AccountID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("token subject: %w", err)
	}
	return domain.ParseAccountID(sub)
}

// Mint issues a token for an identity. Used by tests and the dev token
// endpoint; production callers bring tokens from their own issuer sharing
// the signing key.
func (v *Verifier) Mint(id domain.AccountID, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   id.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString(v.signingKey)
}

// RequireAuth rejects requests without a valid bearer token and injects the
// caller identity into the context. Mount it on mutating routes only — reads
// are public.
func RequireAuth(verifier *Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				writeUnauthorized(w)
				return
			}
			caller, err := verifier.CallerFromToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "rejected bearer token",
					"error", err,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				writeUnauthorized(w)
				return
			}
			ctx := requestcontext.WithCallerID(r.Context(), caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"valid bearer token required"}`))
}
