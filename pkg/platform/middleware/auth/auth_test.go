package auth

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credentry/pkg/domain"
	"credentry/pkg/requestcontext"
)

const testKey = "test-signing-key"

func TestMintAndVerifyRoundTrip(t *testing.T) {
	v := NewVerifier(testKey)

	token, err := v.Mint("hospital-1", time.Minute)
	require.NoError(t, err)

	caller, err := v.CallerFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountID("hospital-1"), caller)
}

func TestCallerFromTokenRejections(t *testing.T) {
	v := NewVerifier(testKey)

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewVerifier("some-other-key")
		token, err := other.Mint("hospital-1", time.Minute)
		require.NoError(t, err)

		_, err = v.CallerFromToken(token)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := v.Mint("hospital-1", -time.Minute)
		require.NoError(t, err)

		_, err = v.CallerFromToken(token)
		assert.Error(t, err)
	})

	t.Run("alg none is rejected", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "hospital-1"})
		token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = v.CallerFromToken(token)
		assert.Error(t, err)
	})

	t.Run("empty subject is rejected", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		}).SignedString([]byte(testKey))
		require.NoError(t, err)

		_, err = v.CallerFromToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := v.CallerFromToken("not.a.token")
		assert.Error(t, err)
	})
}

func TestRequireAuth(t *testing.T) {
	v := NewVerifier(testKey)
	logger := slog.New(slog.DiscardHandler)

	var gotCaller domain.AccountID
	handler := RequireAuth(v, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCaller = requestcontext.CallerID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("valid token passes through with caller injected", func(t *testing.T) {
		token, err := v.Mint("issuer-1", time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, domain.AccountID("issuer-1"), gotCaller)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "unauthorized")
	})

	t.Run("non-bearer scheme is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
