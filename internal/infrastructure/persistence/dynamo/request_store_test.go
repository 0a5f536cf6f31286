package dynamo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AisleiAvila/HomeService-sub001/internal/domain/entity"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
)

var baseTime = time.Date(2025, 2, 20, 8, 0, 0, 0, time.UTC)

func newRequest(id string) *entity.ServiceRequest {
	return &entity.ServiceRequest{
		ID:            id,
		RequesterID:   1,
		Title:         "Replace boiler",
		Status:        workflow.StatusRequested,
		PaymentStatus: entity.PaymentStatusUnpaid,
		History: []entity.StatusHistoryEntry{{
			Seq:              1,
			Status:           workflow.StatusRequested,
			Action:           workflow.ActionCreate,
			ChangedAt:        baseTime,
			ChangedByActorID: 1,
			ChangedByRole:    workflow.RoleRequester,
		}},
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
}

func nextEntry(req *entity.ServiceRequest, status workflow.Status, action workflow.Action) entity.StatusHistoryEntry {
	entry := entity.StatusHistoryEntry{
		Seq:              len(req.History) + 1,
		Status:           status,
		Action:           action,
		ChangedAt:        baseTime.Add(time.Hour),
		ChangedByActorID: 100,
		ChangedByRole:    workflow.RoleAdministrator,
		Notes:            "assigned",
	}
	req.Status = status
	req.History = append(req.History, entry)
	return entry
}

func TestRequestStore_CreateLoadCommit(t *testing.T) {
	store := NewRequestStore(newFakeDynamo(), "", zap.NewNop())
	ctx := context.Background()

	version, err := store.Create(ctx, newRequest("req-1"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	req, version, err := store.Load(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.Equal(t, "Replace boiler", req.Title)
	assert.True(t, baseTime.Equal(req.CreatedAt))
	require.Len(t, req.History, 1)

	pro := int64(7)
	start := baseTime.Add(72 * time.Hour)
	quote := decimal.RequireFromString("10.50")
	req.AssignedProfessionalID = &pro
	req.ScheduledStartAt = &start
	req.QuotedAmount = &quote
	entry := nextEntry(req, workflow.StatusAssigned, workflow.ActionAssign)

	newVersion, err := store.Commit(ctx, req, version, entry)
	require.NoError(t, err)
	assert.Equal(t, int64(2), newVersion)

	loaded, version, err := store.Load(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
	assert.Equal(t, workflow.StatusAssigned, loaded.Status)
	require.NotNil(t, loaded.AssignedProfessionalID)
	assert.Equal(t, int64(7), *loaded.AssignedProfessionalID)
	require.NotNil(t, loaded.ScheduledStartAt)
	assert.True(t, start.Equal(*loaded.ScheduledStartAt))
	require.NotNil(t, loaded.QuotedAmount)
	assert.True(t, quote.Equal(*loaded.QuotedAmount))
	assert.Nil(t, loaded.ProposedExecutionAt)
	assert.Nil(t, loaded.PaidAmount)

	require.Len(t, loaded.History, 2)
	assert.Equal(t, "assigned", loaded.History[1].Notes)
	assert.Equal(t, workflow.ActionAssign, loaded.History[1].Action)
}

func TestRequestStore_CommitAppendsMissingEntry(t *testing.T) {
	store := NewRequestStore(newFakeDynamo(), "", zap.NewNop())
	ctx := context.Background()

	_, err := store.Create(ctx, newRequest("req-1"))
	require.NoError(t, err)

	req, version, err := store.Load(ctx, "req-1")
	require.NoError(t, err)

	entry := entity.StatusHistoryEntry{Seq: 2, Status: workflow.StatusCancelled, Action: workflow.ActionCancel, ChangedAt: baseTime}
	req.Status = workflow.StatusCancelled

	_, err = store.Commit(ctx, req, version, entry)
	require.NoError(t, err)

	loaded, _, err := store.Load(ctx, "req-1")
	require.NoError(t, err)
	require.Len(t, loaded.History, 2)
	assert.Equal(t, workflow.StatusCancelled, loaded.LastEntry().Status)
}

func TestRequestStore_Conflicts(t *testing.T) {
	store := NewRequestStore(newFakeDynamo(), "", zap.NewNop())
	ctx := context.Background()

	_, err := store.Create(ctx, newRequest("req-1"))
	require.NoError(t, err)

	_, err = store.Create(ctx, newRequest("req-1"))
	assert.ErrorIs(t, err, workflow.ErrPersistenceUnavailable)

	first, version, err := store.Load(ctx, "req-1")
	require.NoError(t, err)
	second, _, err := store.Load(ctx, "req-1")
	require.NoError(t, err)

	_, err = store.Commit(ctx, first, version, nextEntry(first, workflow.StatusAssigned, workflow.ActionAssign))
	require.NoError(t, err)

	_, err = store.Commit(ctx, second, version, nextEntry(second, workflow.StatusCancelled, workflow.ActionCancel))
	assert.ErrorIs(t, err, workflow.ErrConcurrentModification)

	ghost := newRequest("ghost")
	_, err = store.Commit(ctx, ghost, 1, nextEntry(ghost, workflow.StatusCancelled, workflow.ActionCancel))
	assert.ErrorIs(t, err, workflow.ErrNotFound)

	_, _, err = store.Load(ctx, "ghost")
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestRequestStore_Unavailable(t *testing.T) {
	fake := newFakeDynamo()
	fake.failErr = errors.New("connection refused")
	store := NewRequestStore(fake, "", zap.NewNop())
	ctx := context.Background()

	_, err := store.Create(ctx, newRequest("req-1"))
	assert.ErrorIs(t, err, workflow.ErrPersistenceUnavailable)

	_, _, err = store.Load(ctx, "req-1")
	assert.ErrorIs(t, err, workflow.ErrPersistenceUnavailable)

	req := newRequest("req-1")
	_, err = store.Commit(ctx, req, 1, nextEntry(req, workflow.StatusAssigned, workflow.ActionAssign))
	assert.ErrorIs(t, err, workflow.ErrPersistenceUnavailable)

	_, err = store.ListStatuses(ctx, 10, 0)
	assert.ErrorIs(t, err, workflow.ErrPersistenceUnavailable)
}

func TestRequestStore_ListStatuses(t *testing.T) {
	store := NewRequestStore(newFakeDynamo(), "requests", zap.NewNop())
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := store.Create(ctx, newRequest(fmt.Sprintf("req-%d", i)))
		require.NoError(t, err)
	}

	page, err := store.ListStatuses(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "req-1", page[0].RequestID)
	assert.Equal(t, "req-2", page[1].RequestID)
	assert.Equal(t, "Requested", page[0].Status)
	assert.Equal(t, int64(1), page[0].Version)

	page, err = store.ListStatuses(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "req-3", page[0].RequestID)

	page, err = store.ListStatuses(ctx, 2, 3)
	require.NoError(t, err)
	assert.Empty(t, page)
}
