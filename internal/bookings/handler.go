package bookings

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventspot/backend/internal/middleware"
	"github.com/eventspot/backend/pkg/response"
)

// EventCacheInvalidator drops cached event reads after the spot counter moves.
type EventCacheInvalidator interface {
	Invalidate(ctx context.Context, eventID uuid.UUID)
}

// Handler handles booking HTTP endpoints.
type Handler struct {
	service *Service
	cache   EventCacheInvalidator
	logger  *zap.Logger
}

// NewHandler creates a bookings handler. cache may be nil.
func NewHandler(service *Service, cache EventCacheInvalidator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, cache: cache, logger: logger}
}

// Book handles POST /bookings/:eventId.
func (h *Handler) Book(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.NotFound(c, "Event not found")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	booking, err := h.service.Book(c.Request.Context(), eventID, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrEventNotFound):
			response.NotFound(c, "Event not found")
		case errors.Is(err, ErrSoldOut):
			response.BadRequest(c, "No spots available")
		case errors.Is(err, ErrPersistFailed):
			response.Internal(c, "Server Error")
		default:
			h.logger.Error("book event failed", zap.Error(err), zap.String("event_id", eventID.String()))
			response.Internal(c, "Server Error")
		}
		return
	}

	if h.cache != nil {
		h.cache.Invalidate(c.Request.Context(), eventID)
	}
	response.OK(c, "Booking confirmed", booking)
}
