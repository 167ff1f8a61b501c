package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarconnect/backend/internal/infrastructure/auth"
	"github.com/scholarconnect/backend/internal/infrastructure/config"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-that-is-long-enough",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "scholarconnect-test",
		MaxRefreshCount:        10,
	})
}

func protectedRouter(cfg JWTMiddlewareConfig) *gin.Engine {
	r := gin.New()
	r.Use(JWTAuthMiddlewareWithConfig(cfg))
	r.GET("/api/v1/me", func(c *gin.Context) {
		c.String(http.StatusOK, GetJWTUserID(c))
	})
	r.GET("/api/v1/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestJWTAuthMiddleware(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()
	pair, err := svc.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:        userID,
		Email:         "student@school.edu",
		EmailVerified: true,
	})
	require.NoError(t, err)

	t.Run("valid token passes and exposes user ID", func(t *testing.T) {
		r := protectedRouter(JWTMiddlewareConfig{JWTService: svc})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, userID.String(), w.Body.String())
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		r := protectedRouter(JWTMiddlewareConfig{JWTService: svc})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		r := protectedRouter(JWTMiddlewareConfig{JWTService: svc})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("refresh token cannot access protected routes", func(t *testing.T) {
		r := protectedRouter(JWTMiddlewareConfig{JWTService: svc})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("skip paths bypass authentication", func(t *testing.T) {
		cfg := JWTMiddlewareConfig{JWTService: svc, SkipPaths: []string{"/api/v1/health"}}
		r := protectedRouter(cfg)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("blacklisted token is rejected", func(t *testing.T) {
		blacklist := auth.NewInMemoryTokenBlacklist()
		claims, err := svc.ValidateAccessToken(pair.AccessToken)
		require.NoError(t, err)
		require.NoError(t, blacklist.AddToBlacklist(context.Background(), claims.ID, time.Hour))

		r := protectedRouter(JWTMiddlewareConfig{JWTService: svc, TokenBlacklist: blacklist})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestOptionalJWTAuthMiddleware(t *testing.T) {
	svc := newTestJWTService()
	r := gin.New()
	r.Use(OptionalJWTAuthMiddleware(svc))
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetJWTUserID(c))
	})

	t.Run("anonymous request passes with empty identity", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		userID := uuid.New()
		pair, err := svc.GenerateTokenPair(auth.GenerateTokenInput{UserID: userID})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		r.ServeHTTP(w, req)

		assert.Equal(t, userID.String(), w.Body.String())
	})
}
