package port

import (
	"context"

	"github.com/AisleiAvila/HomeService-sub001/internal/domain/entity"
)

// StoredStatus is the raw status column of one request, read without migration
type StoredStatus struct {
	RequestID string `db:"id"`
	Status    string `db:"status"`
	Version   int64  `db:"version"`
}

// ServiceRequestRepository persists service requests with optimistic concurrency.
// Every read carries a version; Commit succeeds only if the stored version still
// equals expectedVersion and otherwise returns workflow.ErrConcurrentModification.
// The status field and the appended history entry are written atomically.
type ServiceRequestRepository interface {
	// Create stores a new request together with its first history entry
	Create(ctx context.Context, req *entity.ServiceRequest) (int64, error)

	// Load returns the request and its current version, or workflow.ErrNotFound
	Load(ctx context.Context, id string) (*entity.ServiceRequest, int64, error)

	// Commit persists req and appends entry if the version is unchanged
	Commit(ctx context.Context, req *entity.ServiceRequest, expectedVersion int64, entry entity.StatusHistoryEntry) (int64, error)

	// ListStatuses pages through stored statuses ordered by id
	ListStatuses(ctx context.Context, limit, offset int) ([]StoredStatus, error)
}

// NotificationOutbox tracks delivery of notification intents
type NotificationOutbox interface {
	Save(ctx context.Context, record *entity.NotificationRecord) error
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error

	// ListRetryable returns pending or failed records with fewer than maxAttempts attempts
	ListRetryable(ctx context.Context, maxAttempts, limit int) ([]*entity.NotificationRecord, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
