package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventspot/backend/pkg/queue"
)

type fakeInventory struct {
	restored []uuid.UUID
}

func (f *fakeInventory) TryReserve(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeInventory) UndoReserve(_ context.Context, eventID uuid.UUID) error {
	f.restored = append(f.restored, eventID)
	return nil
}

type fakeCounter struct {
	counted []uuid.UUID
}

func (f *fakeCounter) CountByEvent(_ context.Context, eventID uuid.UUID) (int, error) {
	f.counted = append(f.counted, eventID)
	return 7, nil
}

// blockedQueue blocks Dequeue until the context is cancelled, like BLPop.
type blockedQueue struct{}

func (q *blockedQueue) Dequeue(ctx context.Context) (*queue.Job, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (q *blockedQueue) Retry(_ context.Context, _ *queue.Job) error { return nil }

func spotRestoreJob(t *testing.T, eventID uuid.UUID) *queue.Job {
	t.Helper()
	payload, err := json.Marshal(queue.SpotRestorePayload{EventID: eventID, Reason: "insert failed"})
	require.NoError(t, err)
	return &queue.Job{
		ID:      uuid.New().String(),
		Type:    queue.JobTypeSpotRestore,
		Payload: payload,
	}
}

func TestProcessRestoresSpot(t *testing.T) {
	inv := &fakeInventory{}
	p := NewSpotRestoreProcessor(inv, nil, nil, nil)

	eventID := uuid.New()
	err := p.Process(context.Background(), spotRestoreJob(t, eventID))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{eventID}, inv.restored)
}

func TestProcessReportsBookingCount(t *testing.T) {
	inv := &fakeInventory{}
	counter := &fakeCounter{}
	p := NewSpotRestoreProcessor(inv, counter, nil, nil)

	eventID := uuid.New()
	err := p.Process(context.Background(), spotRestoreJob(t, eventID))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{eventID}, counter.counted)
}

func TestProcessRejectsUnknownJobType(t *testing.T) {
	p := NewSpotRestoreProcessor(&fakeInventory{}, nil, nil, nil)

	err := p.Process(context.Background(), &queue.Job{Type: "email"})
	assert.Error(t, err)
}

func TestProcessRejectsMalformedPayload(t *testing.T) {
	p := NewSpotRestoreProcessor(&fakeInventory{}, nil, nil, nil)

	err := p.Process(context.Background(), &queue.Job{
		Type:    queue.JobTypeSpotRestore,
		Payload: json.RawMessage(`{"event_id": 42`),
	})
	assert.Error(t, err)
}

func TestRunStopsPromptlyOnCancel(t *testing.T) {
	p := NewSpotRestoreProcessor(&fakeInventory{}, nil, &blockedQueue{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}
