package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/AisleiAvila/HomeService-sub001/internal/application/port"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/entity"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
)

type storedRequest struct {
	req     *entity.ServiceRequest
	version int64
}

// RequestStore is a mutex-guarded port.ServiceRequestRepository. Entities
// are cloned on the way in and out.
type RequestStore struct {
	mu       sync.RWMutex
	requests map[string]*storedRequest
}

// NewRequestStore creates an empty store
func NewRequestStore() *RequestStore {
	return &RequestStore{requests: make(map[string]*storedRequest)}
}

// Create stores a new request at version 1
func (s *RequestStore) Create(ctx context.Context, req *entity.ServiceRequest) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", workflow.ErrPersistenceUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[req.ID]; ok {
		return 0, fmt.Errorf("%w: request %s already exists", workflow.ErrPersistenceUnavailable, req.ID)
	}
	s.requests[req.ID] = &storedRequest{req: req.Clone(), version: 1}
	return 1, nil
}

// Load returns a copy of the request and its version
func (s *RequestStore) Load(ctx context.Context, id string) (*entity.ServiceRequest, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", workflow.ErrPersistenceUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.requests[id]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", workflow.ErrNotFound, id)
	}
	return stored.req.Clone(), stored.version, nil
}

// Commit replaces the request when expectedVersion is current
func (s *RequestStore) Commit(ctx context.Context, req *entity.ServiceRequest, expectedVersion int64, entry entity.StatusHistoryEntry) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", workflow.ErrPersistenceUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.requests[req.ID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", workflow.ErrNotFound, req.ID)
	}
	if stored.version != expectedVersion {
		return 0, fmt.Errorf("%w: request %s is at version %d, expected %d",
			workflow.ErrConcurrentModification, req.ID, stored.version, expectedVersion)
	}

	next := req.Clone()
	// history is append-only: keep what is stored and add the entry
	next.History = append(append([]entity.StatusHistoryEntry(nil), stored.req.History...), entry)

	stored.req = next
	stored.version++
	return stored.version, nil
}

// ListStatuses pages through stored statuses ordered by id
func (s *RequestStore) ListStatuses(ctx context.Context, limit, offset int) ([]port.StoredStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", workflow.ErrPersistenceUnavailable, err)
	}

	s.mu.RLock()
	all := make([]port.StoredStatus, 0, len(s.requests))
	for id, stored := range s.requests {
		all = append(all, port.StoredStatus{
			RequestID: id,
			Status:    string(stored.req.Status),
			Version:   stored.version,
		})
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].RequestID < all[j].RequestID })

	if offset >= len(all) {
		return []port.StoredStatus{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// OutboxStore is an in-memory port.NotificationOutbox
type OutboxStore struct {
	mu      sync.Mutex
	records map[string]*entity.NotificationRecord
	now     func() time.Time
}

// NewOutboxStore creates an empty outbox
func NewOutboxStore() *OutboxStore {
	return &OutboxStore{
		records: make(map[string]*entity.NotificationRecord),
		now:     time.Now,
	}
}

// Save stores a copy of record
func (s *OutboxStore) Save(ctx context.Context, record *entity.NotificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.ID]; ok {
		return fmt.Errorf("notification %s already exists", record.ID)
	}
	c := *record
	s.records[record.ID] = &c
	return nil
}

// MarkSent marks a notification as delivered
func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return nil
	}
	now := s.now()
	record.Status = entity.NotificationStatusSent
	record.Attempts++
	record.LastError = ""
	record.SentAt = &now
	record.UpdatedAt = now
	return nil
}

// MarkFailed records a failed delivery attempt
func (s *OutboxStore) MarkFailed(ctx context.Context, id string, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return nil
	}
	record.Status = entity.NotificationStatusFailed
	record.Attempts++
	record.LastError = errMsg
	record.UpdatedAt = s.now()
	return nil
}

// ListRetryable returns undelivered notifications, oldest first
func (s *OutboxStore) ListRetryable(ctx context.Context, maxAttempts, limit int) ([]*entity.NotificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := []*entity.NotificationRecord{}
	for _, record := range s.records {
		if record.Status == entity.NotificationStatusSent || record.Attempts >= maxAttempts {
			continue
		}
		c := *record
		records = append(records, &c)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Verify interface compliance
var (
	_ port.ServiceRequestRepository = (*RequestStore)(nil)
	_ port.NotificationOutbox       = (*OutboxStore)(nil)
)
