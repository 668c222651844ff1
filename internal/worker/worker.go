package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventspot/backend/internal/bookings"
	"github.com/eventspot/backend/pkg/queue"
)

// JobQueue is the queue surface the worker loop needs.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// BookingCounter reports how many bookings exist for an event.
type BookingCounter interface {
	CountByEvent(ctx context.Context, eventID uuid.UUID) (int, error)
}

// SpotRestoreProcessor drains the reconciliation queue and returns spots that
// were reserved but never matched by a booking record.
type SpotRestoreProcessor struct {
	inventory bookings.Inventory
	counter   BookingCounter
	queue     JobQueue
	logger    *zap.Logger
}

// NewSpotRestoreProcessor creates a spot-restore processor. counter may be
// nil, in which case restores are logged without the booking count.
func NewSpotRestoreProcessor(inventory bookings.Inventory, counter BookingCounter, q JobQueue, logger *zap.Logger) *SpotRestoreProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpotRestoreProcessor{inventory: inventory, counter: counter, queue: q, logger: logger}
}

// Process executes one spot-restore job.
func (p *SpotRestoreProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeSpotRestore {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.SpotRestorePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := p.inventory.UndoReserve(ctx, payload.EventID); err != nil {
		return fmt.Errorf("undo reserve: %w", err)
	}
	fields := []zap.Field{
		zap.String("event_id", payload.EventID.String()),
		zap.String("reason", payload.Reason),
	}
	if p.counter != nil {
		if n, err := p.counter.CountByEvent(ctx, payload.EventID); err == nil {
			fields = append(fields, zap.Int("bookings", n))
		} else {
			p.logger.Warn("booking count unavailable", zap.Error(err),
				zap.String("event_id", payload.EventID.String()))
		}
	}
	p.logger.Info("spot restored", fields...)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error. It returns
// when ctx is cancelled.
func (p *SpotRestoreProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("spot restore worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("spot restore worker stopping")
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			if !p.pause(ctx, queue.RetryBackoff) {
				return
			}
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			if !p.pause(ctx, queue.RetryBackoff) {
				return
			}
		}
	}
}

// pause waits d or until ctx is cancelled; returns false on cancellation.
func (p *SpotRestoreProcessor) pause(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		p.logger.Info("spot restore worker stopping")
		return false
	case <-t.C:
		return true
	}
}
