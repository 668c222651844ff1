package events

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventspot/backend/internal/middleware"
	"github.com/eventspot/backend/internal/models"
	"github.com/eventspot/backend/pkg/response"
	"github.com/eventspot/backend/pkg/storage"
)

// CreateRequest is the body for POST /events. TotalSpots is a pointer so a
// zero-capacity event binds as present rather than missing.
type CreateRequest struct {
	Name       string `json:"name" binding:"required"`
	Date       string `json:"date" binding:"required"`
	Venue      string `json:"venue" binding:"required"`
	TotalSpots *int   `json:"total_spots" binding:"required,gte=0"`
}

// UpdateRequest is the body for PUT /events/:id. All fields optional; spot
// counts cannot be changed after creation.
type UpdateRequest struct {
	Name  *string `json:"name"`
	Date  *string `json:"date"`
	Venue *string `json:"venue"`
}

// Store is the event persistence surface the handlers need.
type Store interface {
	Create(ctx context.Context, e *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	List(ctx context.Context) ([]models.Event, error)
	ListByCreator(ctx context.Context, userID uuid.UUID) ([]models.Event, error)
	Update(ctx context.Context, id uuid.UUID, name, venue *string, date *time.Time) (*models.Event, error)
	UpdateImageURL(ctx context.Context, id uuid.UUID, url string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ImageStore holds event image objects and hands out short-lived download URLs.
type ImageStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error)
	GeneratePresignedDownloadURL(ctx context.Context, key string, expires time.Duration) (string, error)
	PresignExpire() time.Duration
	DeleteObject(ctx context.Context, key string) error
	KeyFromURL(rawURL string) string
}

// Handler handles event HTTP endpoints.
type Handler struct {
	store  Store
	cache  *Cache
	images ImageStore
	logger *zap.Logger
}

// NewHandler creates an events handler. cache and images may be nil.
func NewHandler(store Store, cache *Cache, images ImageStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, cache: cache, images: images, logger: logger}
}

// Create handles POST /events.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		response.BadRequest(c, "invalid date")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	e := &models.Event{
		Name:       req.Name,
		Date:       date,
		Venue:      req.Venue,
		TotalSpots: *req.TotalSpots,
		CreatedBy:  userID,
	}
	if err := h.store.Create(c.Request.Context(), e); err != nil {
		if errors.Is(err, ErrDuplicateName) {
			response.BadRequest(c, "Event already exists")
			return
		}
		h.logger.Error("create event failed", zap.Error(err))
		response.Internal(c, "Server Error")
		return
	}
	h.invalidate(c, e.ID)
	response.Created(c, "Event created successfully", e)
}

// List handles GET /events.
func (h *Handler) List(c *gin.Context) {
	if h.cache != nil {
		if list := h.cache.GetList(c.Request.Context()); list != nil {
			response.OK(c, "All your events retrieved", list)
			return
		}
	}
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list events failed", zap.Error(err))
		response.Internal(c, "Server Error")
		return
	}
	if h.cache != nil && list != nil {
		h.cache.SetList(c.Request.Context(), list)
	}
	response.OK(c, "All your events retrieved", list)
}

// ListMine handles GET /events/mine.
func (h *Handler) ListMine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.store.ListByCreator(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list events by creator failed", zap.Error(err))
		response.Internal(c, "Server Error")
		return
	}
	response.OK(c, "All your events retrieved", list)
}

// GetByID handles GET /events/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, "Event not found")
		return
	}
	if h.cache != nil {
		if e := h.cache.GetEvent(c.Request.Context(), id); e != nil {
			response.OK(c, "Event retrieved successfully", e)
			return
		}
	}
	e, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "Event not found")
			return
		}
		h.logger.Error("get event failed", zap.Error(err))
		response.Internal(c, "Server Error")
		return
	}
	if h.cache != nil {
		h.cache.SetEvent(c.Request.Context(), e)
	}
	response.OK(c, "Event retrieved successfully", e)
}

// Update handles PUT /events/:id. Only the creator may update.
func (h *Handler) Update(c *gin.Context) {
	id, _, ok := h.requireCreator(c)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	var date *time.Time
	if req.Date != nil {
		t, err := time.Parse(time.RFC3339, *req.Date)
		if err != nil {
			response.BadRequest(c, "invalid date")
			return
		}
		date = &t
	}

	updated, err := h.store.Update(c.Request.Context(), id, req.Name, req.Venue, date)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(c, "Event not found")
		case errors.Is(err, ErrDuplicateName):
			response.BadRequest(c, "Event already exists")
		default:
			h.logger.Error("update event failed", zap.Error(err))
			response.Internal(c, "Server Error")
		}
		return
	}
	h.invalidate(c, id)
	response.OK(c, "Event updated successfully", updated)
}

// Delete handles DELETE /events/:id. Only the creator may delete. The event's
// image object is removed best effort after the row is gone.
func (h *Handler) Delete(c *gin.Context) {
	id, e, ok := h.requireCreator(c)
	if !ok {
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "Event not found")
			return
		}
		h.logger.Error("delete event failed", zap.Error(err))
		response.Internal(c, "Server Error")
		return
	}
	if h.images != nil && e.ImageURL != "" {
		if key := h.images.KeyFromURL(e.ImageURL); key != "" {
			if err := h.images.DeleteObject(c.Request.Context(), key); err != nil {
				h.logger.Warn("image object cleanup failed",
					zap.Error(err), zap.String("event_id", id.String()), zap.String("key", key))
			}
		}
	}
	h.invalidate(c, id)
	response.OK(c, "Event deleted", nil)
}

// UploadImage handles POST /events/:id/image (multipart field "image").
func (h *Handler) UploadImage(c *gin.Context) {
	if h.images == nil {
		response.Internal(c, "image storage not configured")
		return
	}
	id, _, ok := h.requireCreator(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		response.BadRequest(c, "image file required")
		return
	}
	defer file.Close()

	if header.Size > storage.MaxImageFileSize {
		response.BadRequest(c, "image too large")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !storage.ValidateImageFileType(contentType, header.Filename) {
		response.BadRequest(c, "unsupported image type")
		return
	}
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(header.Filename)
	}

	key := storage.ImageKey(id.String(), header.Filename)
	url, err := h.images.Upload(c.Request.Context(), key, contentType, file, header.Size)
	if err != nil {
		h.logger.Error("image upload failed", zap.Error(err), zap.String("event_id", id.String()))
		response.Internal(c, "Server Error")
		return
	}
	if err := h.store.UpdateImageURL(c.Request.Context(), id, url); err != nil {
		h.logger.Error("save image url failed", zap.Error(err), zap.String("event_id", id.String()))
		response.Internal(c, "Server Error")
		return
	}
	h.invalidate(c, id)
	response.OK(c, "Image uploaded", gin.H{"image_url": url})
}

// GetImage handles GET /events/:id/image. It returns a short-lived pre-signed
// download URL for the event's image, so the bucket can stay private.
func (h *Handler) GetImage(c *gin.Context) {
	if h.images == nil {
		response.Internal(c, "image storage not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, "Event not found")
		return
	}
	e, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "Event not found")
			return
		}
		h.logger.Error("get event failed", zap.Error(err))
		response.Internal(c, "Server Error")
		return
	}
	if e.ImageURL == "" {
		response.NotFound(c, "Event has no image")
		return
	}
	key := h.images.KeyFromURL(e.ImageURL)
	if key == "" {
		// The stored URL is not one of ours; hand it back unsigned.
		response.OK(c, "Image URL generated", gin.H{"image_url": e.ImageURL})
		return
	}
	url, err := h.images.GeneratePresignedDownloadURL(c.Request.Context(), key, h.images.PresignExpire())
	if err != nil {
		h.logger.Error("presign image failed", zap.Error(err), zap.String("event_id", id.String()))
		response.Internal(c, "Server Error")
		return
	}
	response.OK(c, "Image URL generated", gin.H{"image_url": url})
}

// requireCreator loads the event and verifies the caller created it.
// Responds 404 when missing and 401 when the caller is not the creator.
func (h *Handler) requireCreator(c *gin.Context) (uuid.UUID, *models.Event, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, "Event not found")
		return uuid.Nil, nil, false
	}
	e, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "Event not found")
			return uuid.Nil, nil, false
		}
		h.logger.Error("get event failed", zap.Error(err))
		response.Internal(c, "Server Error")
		return uuid.Nil, nil, false
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if e.CreatedBy != userID {
		response.Unauthorized(c, "User not authorized")
		return uuid.Nil, nil, false
	}
	return id, e, true
}

func (h *Handler) invalidate(c *gin.Context, id uuid.UUID) {
	if h.cache != nil {
		h.cache.Invalidate(c.Request.Context(), id)
	}
}
