package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventspot/backend/internal/auth"
)

func newProtectedRouter(t *testing.T, jwtService *auth.JWTService) (*gin.Engine, *uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var seenUserID uuid.UUID
	router := gin.New()
	router.GET("/protected", JWT(jwtService), func(c *gin.Context) {
		seenUserID = c.MustGet(ContextUserID).(uuid.UUID)
		c.Status(http.StatusOK)
	})
	return router, &seenUserID
}

func TestJWTMiddlewareAllowsValidToken(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", 1)
	userID := uuid.New()
	token, err := jwtService.Generate(userID, "a@example.com")
	require.NoError(t, err)

	router, seen := newProtectedRouter(t, jwtService)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, *seen)
}

func TestJWTMiddlewareRejectsMissingHeader(t *testing.T) {
	router, _ := newProtectedRouter(t, auth.NewJWTService("test-secret", 1))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddlewareRejectsMalformedHeader(t *testing.T) {
	router, _ := newProtectedRouter(t, auth.NewJWTService("test-secret", 1))
	for _, header := range []string{"Bearer", "Basic abc", "token-without-scheme"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestJWTMiddlewareRejectsForeignToken(t *testing.T) {
	foreign, err := auth.NewJWTService("other-secret", 1).Generate(uuid.New(), "a@example.com")
	require.NoError(t, err)

	router, _ := newProtectedRouter(t, auth.NewJWTService("test-secret", 1))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+foreign)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
