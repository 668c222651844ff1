package auth

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventspot/backend/internal/models"
	"github.com/eventspot/backend/pkg/response"
	"github.com/eventspot/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserStore is the persistence surface the handlers need.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, name, email, passwordHash string) (*models.User, error)
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo   UserStore
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo UserStore, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, logger: logger}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if _, err := h.repo.GetByEmail(c.Request.Context(), req.Email); err == nil {
		response.BadRequest(c, "User already exists")
		return
	} else if !errors.Is(err, ErrUserNotFound) {
		h.logger.Error("lookup user failed", zap.Error(err))
		response.Internal(c, "Server Error")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "Server Error")
		return
	}

	if _, err := h.repo.Create(c.Request.Context(), req.Name, req.Email, hash); err != nil {
		h.logger.Error("create user failed", zap.Error(err))
		response.Internal(c, "Server Error")
		return
	}

	response.OK(c, "User registered successfully", nil)
}

// Login handles POST /auth/login. The token is returned in data.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.BadRequest(c, "Invalid Credentials")
			return
		}
		h.logger.Error("lookup user failed", zap.Error(err))
		response.Internal(c, "Server Error")
		return
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		response.BadRequest(c, "Invalid Credentials")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email)
	if err != nil {
		h.logger.Error("generate token failed", zap.Error(err))
		response.Internal(c, "Server Error")
		return
	}

	response.OK(c, "Login Successful", token)
}

// Me handles GET /auth/me, returning the authenticated user's profile.
func (h *Handler) Me(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)
	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(c, "User not found")
			return
		}
		h.logger.Error("lookup user failed", zap.Error(err))
		response.Internal(c, "Server Error")
		return
	}
	response.OK(c, "User retrieved successfully", user)
}
