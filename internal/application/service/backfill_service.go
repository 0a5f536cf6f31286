package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AisleiAvila/HomeService-sub001/internal/application/port"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/entity"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/migration"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
)

const defaultBackfillPageSize = 200

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// BackfillResult summarises a backfill run
type BackfillResult struct {
	Report    migration.Report `json:"report"`
	Updated   int              `json:"updated"`
	Conflicts int              `json:"conflicts"`
	Failed    int              `json:"failed"`
}

// BackfillService audits stored statuses and rewrites legacy values
type BackfillService interface {
	// Report inspects every stored status without writing
	Report(ctx context.Context) (migration.Report, error)

	// Apply rewrites every non-canonical status. Each rewrite appends one
	// history entry and is committed against the version it was loaded with;
	// requests changed concurrently are counted as conflicts and skipped.
	Apply(ctx context.Context) (*BackfillResult, error)
}

type backfillServiceImpl struct {
	repo     port.ServiceRequestRepository
	migrator *migration.Migrator
	logger   Logger
	pageSize int
	actorID  int64
	now      func() time.Time
}

// BackfillOption configures the backfill service
type BackfillOption func(*backfillServiceImpl)

// WithPageSize sets how many statuses are read per page
func WithPageSize(n int) BackfillOption {
	return func(s *backfillServiceImpl) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithActorID sets the administrator recorded on migration history entries
func WithActorID(id int64) BackfillOption {
	return func(s *backfillServiceImpl) {
		s.actorID = id
	}
}

// NewBackfillService creates a new BackfillService
func NewBackfillService(
	repo port.ServiceRequestRepository,
	migrator *migration.Migrator,
	logger Logger,
	opts ...BackfillOption,
) BackfillService {
	s := &backfillServiceImpl{
		repo:     repo,
		migrator: migrator,
		logger:   logger,
		pageSize: defaultBackfillPageSize,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Report inspects every stored status without writing
func (s *backfillServiceImpl) Report(ctx context.Context) (migration.Report, error) {
	stored, err := s.scan(ctx)
	if err != nil {
		return migration.Report{}, err
	}

	raw := make([]string, len(stored))
	for i, st := range stored {
		raw[i] = st.Status
	}

	report := s.migrator.GetMigrationReport(raw)
	s.logger.Info("Status audit completed",
		"total", report.Total,
		"canonical", report.Canonical,
		"migrated", report.Migrated,
		"fallback", report.Fallback,
	)
	return report, nil
}

// Apply rewrites every non-canonical status
func (s *backfillServiceImpl) Apply(ctx context.Context) (*BackfillResult, error) {
	stored, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}

	raw := make([]string, len(stored))
	for i, st := range stored {
		raw[i] = st.Status
	}
	result := &BackfillResult{Report: s.migrator.GetMigrationReport(raw)}

	for i, st := range stored {
		entry := result.Report.Entries[i]
		if entry.Outcome == migration.OutcomeCanonical {
			continue
		}

		err := s.rewrite(ctx, st.RequestID)
		switch {
		case err == nil:
			result.Updated++
		case errors.Is(err, workflow.ErrConcurrentModification):
			result.Conflicts++
			s.logger.Info("Skipped concurrently modified request", "request_id", st.RequestID)
		default:
			result.Failed++
			s.logger.Error("Failed to backfill status", "request_id", st.RequestID, "error", err)
		}
	}

	s.logger.Info("Status backfill completed",
		"updated", result.Updated,
		"conflicts", result.Conflicts,
		"failed", result.Failed,
	)
	return result, nil
}

// rewrite reloads one request and commits its canonical status
func (s *backfillServiceImpl) rewrite(ctx context.Context, id string) error {
	req, version, err := s.repo.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("load request %s: %w", id, err)
	}

	raw := string(req.Status)
	if s.migrator.IsCanonical(raw) {
		return nil
	}

	now := s.now().UTC()
	canonical := s.migrator.Migrate(raw)
	entry := entity.StatusHistoryEntry{
		Seq:              len(req.History) + 1,
		Status:           canonical,
		Action:           workflow.ActionMigrateStatus,
		ChangedAt:        now,
		ChangedByActorID: s.actorID,
		ChangedByRole:    workflow.RoleAdministrator,
		Notes:            fmt.Sprintf("migrated from legacy status %q", raw),
	}

	next := req.Clone()
	next.Status = canonical
	next.History = append(next.History, entry)
	next.UpdatedAt = now

	if _, err := s.repo.Commit(ctx, next, version, entry); err != nil {
		return fmt.Errorf("commit request %s: %w", id, err)
	}

	s.logger.Info("Backfilled status",
		"request_id", id,
		"raw_status", raw,
		"status", canonical.String(),
	)
	return nil
}

// scan pages through every stored status
func (s *backfillServiceImpl) scan(ctx context.Context) ([]port.StoredStatus, error) {
	var all []port.StoredStatus
	for offset := 0; ; offset += s.pageSize {
		page, err := s.repo.ListStatuses(ctx, s.pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("list statuses at offset %d: %w", offset, err)
		}
		all = append(all, page...)
		if len(page) < s.pageSize {
			return all, nil
		}
	}
}
