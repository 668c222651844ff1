package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventspot/backend/internal/models"
	"github.com/eventspot/backend/pkg/response"
	"github.com/eventspot/backend/pkg/utils"
)

// memUsers is an in-memory UserStore.
type memUsers struct {
	byID map[uuid.UUID]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[uuid.UUID]*models.User)}
}

func (m *memUsers) add(name, email, password string) *models.User {
	hash, _ := utils.HashPassword(password)
	u := &models.User{ID: uuid.New(), Name: name, Email: email, Password: hash, CreatedAt: time.Now()}
	m.byID[u.ID] = u
	return u
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := m.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, ErrUserNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *memUsers) Create(_ context.Context, name, email, passwordHash string) (*models.User, error) {
	u := &models.User{ID: uuid.New(), Name: name, Email: email, Password: passwordHash, CreatedAt: time.Now()}
	m.byID[u.ID] = u
	return u, nil
}

func newAuthRouter(h *Handler, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auth/register", h.Register)
	router.POST("/auth/login", h.Login)
	router.GET("/auth/me", func(c *gin.Context) {
		c.Set("user_id", userID)
		h.Me(c)
	})
	return router
}

func doAuth(t *testing.T, router *gin.Engine, method, target, body string) (*httptest.ResponseRecorder, response.Body) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var parsed response.Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	return w, parsed
}

func TestMeReturnsProfile(t *testing.T) {
	users := newMemUsers()
	u := users.add("Jo", "jo@example.com", "s3cret-pass")
	h := NewHandler(users, NewJWTService("test-secret", 1), nil)

	router := newAuthRouter(h, u.ID)
	w, body := doAuth(t, router, http.MethodGet, "/auth/me", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, body.IsSuccess)
	data := body.Data.(map[string]interface{})
	assert.Equal(t, "jo@example.com", data["email"])
	assert.NotContains(t, w.Body.String(), u.Password, "password hash must never be serialized")
}

func TestMeUnknownUser(t *testing.T) {
	h := NewHandler(newMemUsers(), NewJWTService("test-secret", 1), nil)

	router := newAuthRouter(h, uuid.New())
	w, body := doAuth(t, router, http.MethodGet, "/auth/me", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", body.Message)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := newMemUsers()
	users.add("Jo", "jo@example.com", "s3cret-pass")
	h := NewHandler(users, NewJWTService("test-secret", 1), nil)

	router := newAuthRouter(h, uuid.Nil)
	w, body := doAuth(t, router, http.MethodPost, "/auth/register",
		`{"name":"Jo","email":"jo@example.com","password":"another-pass"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already exists", body.Message)
}

func TestLoginWrongPassword(t *testing.T) {
	users := newMemUsers()
	users.add("Jo", "jo@example.com", "s3cret-pass")
	h := NewHandler(users, NewJWTService("test-secret", 1), nil)

	router := newAuthRouter(h, uuid.Nil)
	w, body := doAuth(t, router, http.MethodPost, "/auth/login",
		`{"email":"jo@example.com","password":"wrong-pass"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid Credentials", body.Message)
}

func TestLoginIssuesToken(t *testing.T) {
	users := newMemUsers()
	u := users.add("Jo", "jo@example.com", "s3cret-pass")
	jwtSvc := NewJWTService("test-secret", 1)
	h := NewHandler(users, jwtSvc, nil)

	router := newAuthRouter(h, uuid.Nil)
	w, body := doAuth(t, router, http.MethodPost, "/auth/login",
		`{"email":"jo@example.com","password":"s3cret-pass"}`)

	require.Equal(t, http.StatusOK, w.Code)
	token, ok := body.Data.(string)
	require.True(t, ok)
	claims, err := jwtSvc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
}
