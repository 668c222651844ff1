package models

import (
	"time"

	"github.com/google/uuid"
)

// Booking records one confirmed reservation. A row exists if and only if the
// matching event's remaining spot counter was decremented for it.
type Booking struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"event_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
