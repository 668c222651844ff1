package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. The password hash is never serialized.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
