package bookings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventspot/backend/internal/models"
)

// ErrEventNotFound is returned when the event id does not exist.
var ErrEventNotFound = errors.New("event not found")

// ErrSoldOut is returned when the event has no remaining spots.
var ErrSoldOut = errors.New("no spots available")

// Inventory is the sole mutation path for an event's remaining spot counter.
type Inventory interface {
	// TryReserve atomically decrements the counter if it is positive.
	// Returns nil on success, ErrSoldOut when the counter is zero, or
	// ErrEventNotFound when the event does not exist.
	TryReserve(ctx context.Context, eventID uuid.UUID) error
	// UndoReserve returns one previously reserved spot. It never raises the
	// counter above the event's total capacity and treats a missing event as
	// success (the event was deleted in the meantime).
	UndoReserve(ctx context.Context, eventID uuid.UUID) error
}

// BookingStore persists booking records.
type BookingStore interface {
	Create(ctx context.Context, b *models.Booking) error
}

// Repository implements Inventory and BookingStore on PostgreSQL.
//
// Reservation uses a conditional UPDATE rather than read-then-write, so the
// check and the decrement are one statement. The database serializes writers
// on the event row, which also coordinates multiple service instances; two
// concurrent callers can never both consume the last spot.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a bookings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TryReserve performs the compare-and-decrement. The decrement is durable
// before this returns nil.
func (r *Repository) TryReserve(ctx context.Context, eventID uuid.UUID) error {
	const q = `UPDATE events
		SET remaining_spots = remaining_spots - 1, updated_at = NOW()
		WHERE id = $1 AND remaining_spots > 0`
	tag, err := r.pool.Exec(ctx, q, eventID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	// Zero rows matched: either the event is gone or it is full.
	// Not-found takes precedence over sold-out.
	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrEventNotFound
	}
	return ErrSoldOut
}

// UndoReserve restores one spot after a failed booking persistence. The
// guard keeps remaining_spots at or below total_spots.
func (r *Repository) UndoReserve(ctx context.Context, eventID uuid.UUID) error {
	const q = `UPDATE events
		SET remaining_spots = remaining_spots + 1, updated_at = NOW()
		WHERE id = $1 AND remaining_spots < total_spots`
	_, err := r.pool.Exec(ctx, q, eventID)
	return err
}

// Create inserts a booking record.
func (r *Repository) Create(ctx context.Context, b *models.Booking) error {
	const q = `INSERT INTO bookings (event_id, user_id)
		VALUES ($1, $2)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, b.EventID, b.UserID).Scan(&b.ID, &b.CreatedAt)
}

// CountByEvent returns the number of bookings for an event.
func (r *Repository) CountByEvent(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE event_id = $1`, eventID,
	).Scan(&n)
	return n, err
}
