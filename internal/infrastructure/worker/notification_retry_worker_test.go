package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AisleiAvila/HomeService-sub001/internal/application/dispatcher"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/entity"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/event"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
	"github.com/AisleiAvila/HomeService-sub001/internal/infrastructure/persistence/memory"
)

type mockPublisher struct {
	mu        sync.Mutex
	published []*event.Intent
	err       error
}

func (m *mockPublisher) Publish(ctx context.Context, intent *event.Intent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, intent)
	return nil
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}

func saveIntent(t *testing.T, outbox *memory.OutboxStore, age time.Duration) *event.Intent {
	t.Helper()
	intent := event.NewIntent(event.KindRequestCancelled, "req-1", 1, workflow.RoleRequester, nil)
	record, err := dispatcher.NewRecord(intent)
	require.NoError(t, err)
	record.CreatedAt = time.Now().Add(-age)
	record.UpdatedAt = record.CreatedAt
	require.NoError(t, outbox.Save(context.Background(), record))
	return intent
}

func newTestWorker(outbox *memory.OutboxStore, publisher *mockPublisher, minAge time.Duration) *NotificationRetryWorker {
	return NewNotificationRetryWorker(NotificationRetryWorkerConfig{
		PollInterval: 10 * time.Millisecond,
		BatchSize:    10,
		MaxAttempts:  3,
		MinAge:       minAge,
	}, outbox, publisher, zap.NewNop())
}

func TestNotificationRetryWorker_RunOnceDelivers(t *testing.T) {
	outbox := memory.NewOutboxStore()
	publisher := &mockPublisher{}
	w := newTestWorker(outbox, publisher, time.Minute)
	ctx := context.Background()

	old := saveIntent(t, outbox, time.Hour)
	saveIntent(t, outbox, time.Second) // too recent

	require.NoError(t, w.RunOnce(ctx))

	require.Equal(t, 1, publisher.count())
	assert.Equal(t, old.ID, publisher.published[0].ID)

	records, err := outbox.ListRetryable(ctx, 3, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotEqual(t, old.ID, records[0].ID)

	stats := w.GetStats()
	assert.Equal(t, 1, stats.Delivered)
	assert.Equal(t, 0, stats.Failed)
	assert.False(t, stats.LastProcessed.IsZero())
}

func TestNotificationRetryWorker_RunOnceFailures(t *testing.T) {
	outbox := memory.NewOutboxStore()
	publisher := &mockPublisher{err: errors.New("broker unavailable")}
	w := newTestWorker(outbox, publisher, 0)
	ctx := context.Background()

	intent := saveIntent(t, outbox, time.Hour)
	require.NoError(t, outbox.Save(ctx, &entity.NotificationRecord{
		ID:        "broken",
		Payload:   "{not json",
		Status:    entity.NotificationStatusPending,
		CreatedAt: time.Now().Add(-time.Hour),
		UpdatedAt: time.Now().Add(-time.Hour),
	}))

	require.NoError(t, w.RunOnce(ctx))

	records, err := outbox.ListRetryable(ctx, 3, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, entity.NotificationStatusFailed, r.Status)
		assert.Equal(t, 1, r.Attempts)
	}
	assert.Equal(t, 2, w.GetStats().Failed)

	// attempts run out
	require.NoError(t, w.RunOnce(ctx))
	require.NoError(t, w.RunOnce(ctx))
	records, err = outbox.ListRetryable(ctx, 3, 10)
	require.NoError(t, err)
	assert.Empty(t, records)

	publisher.err = nil
	require.NoError(t, w.RunOnce(ctx))
	assert.Equal(t, 0, publisher.count(), "intent %s exhausted its attempts", intent.ID)
}

func TestNotificationRetryWorker_StartStop(t *testing.T) {
	outbox := memory.NewOutboxStore()
	publisher := &mockPublisher{}
	w := newTestWorker(outbox, publisher, 0)
	saveIntent(t, outbox, time.Hour)

	manager := NewWorkerManager(zap.NewNop())
	manager.Register(w)
	assert.Equal(t, 1, manager.GetWorkerCount())

	require.NoError(t, manager.StartAll(context.Background()))
	assert.True(t, manager.IsRunning())
	assert.Error(t, w.Start(context.Background()))

	assert.Eventually(t, func() bool { return publisher.count() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, manager.StopAll())
	assert.False(t, manager.IsRunning())
	assert.False(t, w.GetStats().IsRunning)

	// stopping twice is a no-op
	require.NoError(t, manager.StopAll())
	require.NoError(t, w.Stop())
}

func TestWorkerManager_DoubleStart(t *testing.T) {
	manager := NewWorkerManager(zap.NewNop())
	require.NoError(t, manager.StartAll(context.Background()))
	assert.Error(t, manager.StartAll(context.Background()))
	require.NoError(t, manager.StopAll())
}
