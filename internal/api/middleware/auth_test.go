package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"contract-engine/internal/config"
	"contract-engine/internal/pkg/caller"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	tokenString, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err, "failed to sign token")
	return tokenString
}

func TestAuthMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	secret := "testsecret"

	cfg := config.AuthConfig{
		Enabled:   true,
		JWTSecret: secret,
	}

	var seenCaller string
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenCaller = caller.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	serve := func(cfg config.AuthConfig, authHeader string) *httptest.ResponseRecorder {
		seenCaller = ""
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		rec := httptest.NewRecorder()
		AuthMiddleware(cfg, logger)(nextHandler).ServeHTTP(rec, req)
		return rec
	}

	t.Run("should allow request when middleware is disabled", func(t *testing.T) {
		disabled := cfg
		disabled.Enabled = false

		rec := serve(disabled, "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, caller.Anonymous, seenCaller)
	})

	t.Run("should reject request with missing Authorization header", func(t *testing.T) {
		rec := serve(cfg, "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":{"message":"Unauthorized"}}`, rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("should reject malformed header", func(t *testing.T) {
		rec := serve(cfg, "Token abc")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("should reject request with invalid token", func(t *testing.T) {
		rec := serve(cfg, "Bearer invalidtoken")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("should reject token signed with another secret", func(t *testing.T) {
		tok := signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "x"})
		rec := serve(cfg, "Bearer "+tok)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("should reject expired token", func(t *testing.T) {
		tok := signToken(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
			"sub": "x",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		rec := serve(cfg, "Bearer "+tok)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("should reject other HMAC algorithms", func(t *testing.T) {
		tok := signToken(t, jwt.SigningMethodHS512, []byte(secret), jwt.MapClaims{"sub": "x"})
		rec := serve(cfg, "Bearer "+tok)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("should attach username claim as caller", func(t *testing.T) {
		tok := signToken(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
			"username": "analyst",
			"sub":      "1234567890",
			"exp":      time.Now().Add(time.Hour).Unix(),
		})

		rec := serve(cfg, "Bearer "+tok)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "analyst", seenCaller)
	})

	t.Run("should fall back to subject claim", func(t *testing.T) {
		tok := signToken(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "1234567890"})

		rec := serve(cfg, "bearer "+tok)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "1234567890", seenCaller)
	})
}
