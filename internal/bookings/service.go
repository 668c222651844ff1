package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventspot/backend/internal/models"
	"github.com/eventspot/backend/pkg/queue"
)

// ErrPersistFailed is returned when the booking record could not be written
// after a spot was reserved. The reserved spot has been (or will be) restored,
// so the caller may retry, but should first read back whether the booking
// actually exists.
var ErrPersistFailed = errors.New("booking could not be persisted")

const (
	undoAttempts = 3
	undoBackoff  = 100 * time.Millisecond
)

// Reconciler receives spot restores that could not be applied inline.
type Reconciler interface {
	EnqueueSpotRestore(ctx context.Context, payload queue.SpotRestorePayload) error
}

// Service is the admission controller: it decides whether a booking request
// succeeds and keeps the spot counter and the booking records consistent.
//
// Book is deliberately not idempotent: each call consumes a spot, and the
// same user may book the same event more than once.
type Service struct {
	inventory  Inventory
	store      BookingStore
	reconciler Reconciler
	logger     *zap.Logger
}

// NewService creates the admission controller. reconciler may be nil, in
// which case failed compensations are only logged.
func NewService(inventory Inventory, store BookingStore, reconciler Reconciler, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{inventory: inventory, store: store, reconciler: reconciler, logger: logger}
}

// Book reserves a spot on the event and records the booking. Errors are
// ErrEventNotFound, ErrSoldOut, ErrPersistFailed, or an opaque storage fault;
// in every error case no spot remains consumed without a booking record.
func (s *Service) Book(ctx context.Context, eventID, userID uuid.UUID) (*models.Booking, error) {
	if err := s.inventory.TryReserve(ctx, eventID); err != nil {
		return nil, err
	}

	b := &models.Booking{EventID: eventID, UserID: userID}
	if err := s.store.Create(ctx, b); err != nil {
		s.logger.Error("booking persistence failed after reserve",
			zap.Error(err),
			zap.String("event_id", eventID.String()),
			zap.String("user_id", userID.String()),
		)
		// The compensation must run even if the request context was
		// cancelled; a cancelled caller must not strand a reserved spot.
		s.compensate(context.WithoutCancel(ctx), eventID, err)
		return nil, ErrPersistFailed
	}
	return b, nil
}

// compensate returns the reserved spot with bounded retries, handing the
// restore to the reconciliation queue when the store stays unreachable.
func (s *Service) compensate(ctx context.Context, eventID uuid.UUID, cause error) {
	var lastErr error
	for attempt := 1; attempt <= undoAttempts; attempt++ {
		lastErr = s.inventory.UndoReserve(ctx, eventID)
		if lastErr == nil {
			return
		}
		s.logger.Warn("undo reserve failed",
			zap.Error(lastErr),
			zap.String("event_id", eventID.String()),
			zap.Int("attempt", attempt),
		)
		if attempt < undoAttempts {
			time.Sleep(undoBackoff)
		}
	}

	if s.reconciler == nil {
		s.logger.Error("spot restore abandoned, no reconciler configured",
			zap.String("event_id", eventID.String()),
			zap.NamedError("cause", cause),
		)
		return
	}
	if err := s.reconciler.EnqueueSpotRestore(ctx, queue.SpotRestorePayload{
		EventID: eventID,
		Reason:  cause.Error(),
	}); err != nil {
		s.logger.Error("spot restore enqueue failed, spot lost until manual reconciliation",
			zap.Error(err),
			zap.String("event_id", eventID.String()),
		)
	}
}
