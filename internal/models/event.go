package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a bookable event with a fixed spot inventory.
//
// TotalSpots is set at creation and never changes; RemainingSpots is owned by
// the booking inventory store and only moves through its conditional writes,
// so 0 <= RemainingSpots <= TotalSpots holds at all times.
type Event struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Date           time.Time `json:"date"`
	Venue          string    `json:"venue"`
	ImageURL       string    `json:"image_url,omitempty"`
	TotalSpots     int       `json:"total_spots"`
	RemainingSpots int       `json:"remaining_spots"`
	CreatedBy      uuid.UUID `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
