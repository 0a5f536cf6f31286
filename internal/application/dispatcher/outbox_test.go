package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AisleiAvila/HomeService-sub001/internal/domain/entity"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/event"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
)

type mockOutbox struct {
	mu      sync.Mutex
	records map[string]*entity.NotificationRecord
	saveErr error
}

func newMockOutbox() *mockOutbox {
	return &mockOutbox{records: make(map[string]*entity.NotificationRecord)}
}

func (m *mockOutbox) Save(ctx context.Context, record *entity.NotificationRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = record
	return nil
}

func (m *mockOutbox) MarkSent(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return errors.New("record not found")
	}
	m.records[id].Status = entity.NotificationStatusSent
	m.records[id].Attempts++
	return nil
}

func (m *mockOutbox) MarkFailed(ctx context.Context, id string, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return errors.New("record not found")
	}
	m.records[id].Status = entity.NotificationStatusFailed
	m.records[id].LastError = errMsg
	m.records[id].Attempts++
	return nil
}

func (m *mockOutbox) ListRetryable(ctx context.Context, maxAttempts, limit int) ([]*entity.NotificationRecord, error) {
	return nil, nil
}

func (m *mockOutbox) status(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[id].Status
}

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

func TestOutboxNotifier_Delivers(t *testing.T) {
	outbox := newMockOutbox()
	publisher := &mockPublisher{}
	d := NewDispatcher()
	d.SubscribeNamed(event.KindProfessionalAssigned, "deliver", NewDeliveryHandler(publisher, outbox, 0))
	notifier := NewOutboxNotifier(d, outbox)

	intent := newTestIntent(event.KindProfessionalAssigned)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, notifier.Notify(ctx, intent))
	cancel()
	require.NoError(t, d.Close())

	require.Len(t, publisher.published, 1)
	assert.Equal(t, intent.ID, publisher.published[0].ID)
	assert.Equal(t, entity.NotificationStatusSent, outbox.status(intent.ID))
}

func TestOutboxNotifier_PublishFailureMarksRecord(t *testing.T) {
	outbox := newMockOutbox()
	publisher := &mockPublisher{err: errors.New("redis down")}
	d := NewDispatcher()
	d.Subscribe(event.KindWorkStarted, NewDeliveryHandler(publisher, outbox, 0))
	notifier := NewOutboxNotifier(d, outbox)

	intent := newTestIntent(event.KindWorkStarted)
	require.NoError(t, notifier.Notify(context.Background(), intent))
	require.NoError(t, d.Close())

	assert.Equal(t, entity.NotificationStatusFailed, outbox.status(intent.ID))
	assert.Equal(t, "redis down", outbox.records[intent.ID].LastError)
}

func TestOutboxNotifier_SaveFailureStillDispatches(t *testing.T) {
	outbox := newMockOutbox()
	outbox.saveErr = errors.New("timeout")
	d := NewDispatcher()

	var calls atomic.Int32
	d.Subscribe(event.KindProfessionalAssigned, func(ctx context.Context, intent *event.Intent) error {
		calls.Add(1)
		return nil
	})
	notifier := NewOutboxNotifier(d, outbox)

	err := notifier.Notify(context.Background(), newTestIntent(event.KindProfessionalAssigned))
	require.NoError(t, d.Close())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, outbox.records)
}

func TestOutboxNotifier_SaveFailureDeliversWithoutRecord(t *testing.T) {
	outbox := newMockOutbox()
	outbox.saveErr = errors.New("disk full")
	publisher := &mockPublisher{}
	d := NewDispatcher()
	d.Subscribe(event.KindWorkStarted, NewDeliveryHandler(publisher, outbox, 0))
	notifier := NewOutboxNotifier(d, outbox)

	intent := newTestIntent(event.KindWorkStarted)
	assert.Error(t, notifier.Notify(context.Background(), intent))
	require.NoError(t, d.Close())

	require.Len(t, publisher.published, 1)
	assert.Equal(t, intent.ID, publisher.published[0].ID)
}

func TestRecordRoundTrip(t *testing.T) {
	intent := event.NewIntent(event.KindProfessionalAssigned, "req-9", 7, workflow.RoleProfessional, map[string]interface{}{"assigned_by": int64(100)})

	record, err := NewRecord(intent)
	require.NoError(t, err)
	assert.Equal(t, intent.ID, record.ID)
	assert.Equal(t, "request.professional_assigned", record.Kind)
	assert.Equal(t, entity.NotificationStatusPending, record.Status)
	assert.Equal(t, "Professional", record.RecipientRole)

	decoded, err := DecodeRecord(record)
	require.NoError(t, err)
	assert.Equal(t, intent.RequestID, decoded.RequestID)
	assert.Equal(t, intent.CorrelationID, decoded.CorrelationID)
	assert.Equal(t, int64(100), decoded.GetDataInt("assigned_by"))

	_, err = DecodeRecord(&entity.NotificationRecord{ID: "bad", Payload: "{"})
	assert.Error(t, err)
}
