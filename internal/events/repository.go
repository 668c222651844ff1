package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventspot/backend/internal/models"
)

// ErrNotFound is returned when no event matches the lookup.
var ErrNotFound = errors.New("event not found")

// ErrDuplicateName is returned when an event with the same name already exists.
var ErrDuplicateName = errors.New("event already exists")

const selectColumns = `id, name, date, venue, COALESCE(image_url,''), total_spots, remaining_spots, created_by, created_at, updated_at`

// Repository handles event persistence. The remaining spot counter is written
// here only at creation; afterwards it belongs to the bookings inventory.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEvent(row pgx.Row, e *models.Event) error {
	return row.Scan(&e.ID, &e.Name, &e.Date, &e.Venue, &e.ImageURL,
		&e.TotalSpots, &e.RemainingSpots, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
}

// Create inserts a new event with remaining_spots = total_spots.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (name, date, venue, total_spots, remaining_spots, created_by)
		VALUES ($1, $2, $3, $4, $4, $5)
		RETURNING ` + selectColumns
	err := scanEvent(r.pool.QueryRow(ctx, q, e.Name, e.Date, e.Venue, e.TotalSpots, e.CreatedBy), e)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateName
		}
		return err
	}
	return nil
}

// GetByID returns an event by ID or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	const q = `SELECT ` + selectColumns + ` FROM events WHERE id = $1`
	var e models.Event
	if err := scanEvent(r.pool.QueryRow(ctx, q, id), &e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// List returns all events ordered by date.
func (r *Repository) List(ctx context.Context) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM events ORDER BY date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListByCreator returns all events created by the user.
func (r *Repository) ListByCreator(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM events WHERE created_by = $1 ORDER BY date ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func collect(rows pgx.Rows) ([]models.Event, error) {
	var list []models.Event
	for rows.Next() {
		var e models.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Update changes descriptive metadata only. Spot counts are immutable after
// creation; there is deliberately no parameter for them.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name, venue *string, date *time.Time) (*models.Event, error) {
	const q = `UPDATE events SET
		name = COALESCE($1, name),
		venue = COALESCE($2, venue),
		date = COALESCE($3, date),
		updated_at = NOW()
		WHERE id = $4
		RETURNING ` + selectColumns
	var e models.Event
	if err := scanEvent(r.pool.QueryRow(ctx, q, name, venue, date, id), &e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return &e, nil
}

// UpdateImageURL sets the event's image URL after an upload.
func (r *Repository) UpdateImageURL(ctx context.Context, id uuid.UUID, url string) error {
	const q = `UPDATE events SET image_url = $1, updated_at = NOW() WHERE id = $2`
	tag, err := r.pool.Exec(ctx, q, url, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an event. Bookings referencing it are removed by cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
