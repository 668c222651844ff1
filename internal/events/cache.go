package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/eventspot/backend/internal/models"
)

// cacheTTL bounds how stale a displayed event can get. Admission never reads
// through this cache, so staleness only affects listing output.
const cacheTTL = 30 * time.Second

const listKey = "events:all"

// Cache is a short-TTL Redis cache for the event read path. Failures degrade
// to a database read; they are never surfaced to callers.
type Cache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCache creates an event read cache.
func NewCache(client *redis.Client, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{client: client, logger: logger}
}

func eventKey(id uuid.UUID) string {
	return "event:" + id.String()
}

// GetEvent returns a cached event, or nil on miss.
func (c *Cache) GetEvent(ctx context.Context, id uuid.UUID) *models.Event {
	raw, err := c.client.Get(ctx, eventKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("event cache get failed", zap.Error(err))
		}
		return nil
	}
	var e models.Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil
	}
	return &e
}

// SetEvent stores an event for the TTL window.
func (c *Cache) SetEvent(ctx context.Context, e *models.Event) {
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, eventKey(e.ID), raw, cacheTTL).Err(); err != nil {
		c.logger.Debug("event cache set failed", zap.Error(err))
	}
}

// GetList returns the cached event list, or nil on miss.
func (c *Cache) GetList(ctx context.Context) []models.Event {
	raw, err := c.client.Get(ctx, listKey).Bytes()
	if err != nil {
		return nil
	}
	var list []models.Event
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	return list
}

// SetList stores the event list for the TTL window.
func (c *Cache) SetList(ctx context.Context, list []models.Event) {
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, listKey, raw, cacheTTL).Err(); err != nil {
		c.logger.Debug("event list cache set failed", zap.Error(err))
	}
}

// Invalidate drops the cached event and the list after any mutation.
func (c *Cache) Invalidate(ctx context.Context, id uuid.UUID) {
	if err := c.client.Del(ctx, eventKey(id), listKey).Err(); err != nil {
		c.logger.Debug("event cache invalidate failed", zap.Error(err))
	}
}
