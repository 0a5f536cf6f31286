package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AisleiAvila/HomeService-sub001/internal/application/port"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/entity"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/migration"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*entity.ServiceRequest
	versions map[string]int64

	commitFunc func(req *entity.ServiceRequest, expectedVersion int64) error
	listErr    error
}

func newMockRequestRepo(statuses map[string]string) *mockRequestRepo {
	m := &mockRequestRepo{
		requests: make(map[string]*entity.ServiceRequest),
		versions: make(map[string]int64),
	}
	for id, status := range statuses {
		m.requests[id] = &entity.ServiceRequest{
			ID:      id,
			Status:  workflow.Status(status),
			History: []entity.StatusHistoryEntry{{Seq: 1, Status: workflow.Status(status), Action: workflow.ActionCreate}},
		}
		m.versions[id] = 3
	}
	return m
}

func (m *mockRequestRepo) Create(ctx context.Context, req *entity.ServiceRequest) (int64, error) {
	return 1, nil
}

func (m *mockRequestRepo) Load(ctx context.Context, id string) (*entity.ServiceRequest, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, 0, workflow.ErrNotFound
	}
	return req.Clone(), m.versions[id], nil
}

func (m *mockRequestRepo) Commit(ctx context.Context, req *entity.ServiceRequest, expectedVersion int64, entry entity.StatusHistoryEntry) (int64, error) {
	if m.commitFunc != nil {
		if err := m.commitFunc(req, expectedVersion); err != nil {
			return 0, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.versions[req.ID] != expectedVersion {
		return 0, workflow.ErrConcurrentModification
	}
	m.requests[req.ID] = req.Clone()
	m.versions[req.ID]++
	return m.versions[req.ID], nil
}

func (m *mockRequestRepo) ListStatuses(ctx context.Context, limit, offset int) ([]port.StoredStatus, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.requests))
	for id := range m.requests {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var page []port.StoredStatus
	for i := offset; i < len(ids) && len(page) < limit; i++ {
		id := ids[i]
		page = append(page, port.StoredStatus{RequestID: id, Status: string(m.requests[id].Status), Version: m.versions[id]})
	}
	return page, nil
}

func TestBackfillService_Report(t *testing.T) {
	repo := newMockRequestRepo(map[string]string{
		"a": "Requested",
		"b": "Orçamento aprovado",
		"c": "Orçamento enviado",
		"d": "???",
		"e": "Pago",
	})
	svc := NewBackfillService(repo, migration.NewMigrator(), nopLogger{}, WithPageSize(2))

	report, err := svc.Report(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 1, report.Canonical)
	assert.Equal(t, 3, report.Migrated)
	assert.Equal(t, 1, report.Fallback)
	assert.Equal(t, []string{"???"}, report.Unknown)

	// report never writes
	req, version, err := repo.Load(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, workflow.Status("Orçamento aprovado"), req.Status)
	assert.Equal(t, int64(3), version)
}

func TestBackfillService_Apply(t *testing.T) {
	repo := newMockRequestRepo(map[string]string{
		"a": "Requested",
		"b": "Orçamento aprovado",
		"c": "Orçamento enviado",
		"d": "???",
	})
	svc := NewBackfillService(repo, migration.NewMigrator(), nopLogger{}, WithActorID(999))

	result, err := svc.Apply(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, result.Updated)
	assert.Zero(t, result.Conflicts)
	assert.Zero(t, result.Failed)

	expected := map[string]workflow.Status{
		"a": workflow.StatusRequested,
		"b": workflow.StatusAssigned,
		"c": workflow.StatusCancelled,
		"d": workflow.StatusCancelled,
	}
	for id, status := range expected {
		req, _, err := repo.Load(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, status, req.Status, id)
		assert.Equal(t, status, req.LastEntry().Status, id)
	}

	b, version, _ := repo.Load(context.Background(), "b")
	require.Len(t, b.History, 2)
	assert.Equal(t, workflow.ActionMigrateStatus, b.LastEntry().Action)
	assert.Equal(t, int64(999), b.LastEntry().ChangedByActorID)
	assert.Contains(t, b.LastEntry().Notes, "Orçamento aprovado")
	assert.Equal(t, int64(4), version)

	a, version, _ := repo.Load(context.Background(), "a")
	assert.Len(t, a.History, 1)
	assert.Equal(t, int64(3), version)

	// a second run has nothing to do
	again, err := svc.Apply(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again.Updated)
	assert.Equal(t, 4, again.Report.Canonical)
}

func TestBackfillService_ApplyCountsConflictsAndFailures(t *testing.T) {
	repo := newMockRequestRepo(map[string]string{
		"a": "Pago",
		"b": "Agendado",
		"c": "Concluído",
	})
	repo.commitFunc = func(req *entity.ServiceRequest, expectedVersion int64) error {
		switch req.ID {
		case "a":
			return workflow.ErrConcurrentModification
		case "b":
			return errors.New("disk I/O error")
		}
		return nil
	}
	svc := NewBackfillService(repo, migration.NewMigrator(), nopLogger{})

	result, err := svc.Apply(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Conflicts)
	assert.Equal(t, 1, result.Failed)
}

func TestBackfillService_ListError(t *testing.T) {
	repo := newMockRequestRepo(nil)
	repo.listErr = errors.New("boom")
	svc := NewBackfillService(repo, migration.NewMigrator(), nopLogger{})

	_, err := svc.Report(context.Background())
	assert.Error(t, err)

	_, err = svc.Apply(context.Background())
	assert.Error(t, err)
}
