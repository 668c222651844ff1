package bookings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventspot/backend/internal/middleware"
	"github.com/eventspot/backend/pkg/response"
)

type recordedInvalidation struct {
	ids []uuid.UUID
}

func (r *recordedInvalidation) Invalidate(_ context.Context, id uuid.UUID) {
	r.ids = append(r.ids, id)
}

func newTestRouter(svc *Service, cache EventCacheInvalidator, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc, cache, nil)
	router := gin.New()
	router.POST("/bookings/:eventId", func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		h.Book(c)
	})
	return router
}

func doBook(t *testing.T, router *gin.Engine, eventID string) (*httptest.ResponseRecorder, response.Body) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/bookings/"+eventID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var body response.Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestBookHandlerConfirmed(t *testing.T) {
	inv := newMemInventory()
	store := &memStore{}
	svc := NewService(inv, store, nil, nil)
	cache := &recordedInvalidation{}

	eventID := uuid.New()
	inv.addEvent(eventID, 1)

	router := newTestRouter(svc, cache, uuid.New())
	w, body := doBook(t, router, eventID.String())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, body.IsSuccess)
	assert.Equal(t, "Booking confirmed", body.Message)
	assert.NotNil(t, body.Data)
	assert.Equal(t, []uuid.UUID{eventID}, cache.ids, "cached event must be dropped after the counter moves")
}

func TestBookHandlerSoldOut(t *testing.T) {
	inv := newMemInventory()
	svc := NewService(inv, &memStore{}, nil, nil)

	eventID := uuid.New()
	inv.addEvent(eventID, 0)

	router := newTestRouter(svc, nil, uuid.New())
	w, body := doBook(t, router, eventID.String())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, body.IsSuccess)
	assert.Equal(t, "No spots available", body.Message)
}

func TestBookHandlerEventNotFound(t *testing.T) {
	inv := newMemInventory()
	svc := NewService(inv, &memStore{}, nil, nil)

	router := newTestRouter(svc, nil, uuid.New())

	w, body := doBook(t, router, uuid.New().String())
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, body.IsSuccess)
	assert.Equal(t, "Event not found", body.Message)

	// Malformed ids behave the same as unknown ids.
	w, body = doBook(t, router, "not-a-uuid")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, body.IsSuccess)
}

func TestBookHandlerPersistFailure(t *testing.T) {
	inv := newMemInventory()
	store := &memStore{failWith: assert.AnError}
	svc := NewService(inv, store, nil, nil)

	eventID := uuid.New()
	inv.addEvent(eventID, 1)

	router := newTestRouter(svc, nil, uuid.New())
	w, body := doBook(t, router, eventID.String())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, body.IsSuccess)
	assert.Equal(t, 1, inv.spots(eventID), "spot restored before responding")
}
