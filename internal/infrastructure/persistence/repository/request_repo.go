package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/AisleiAvila/HomeService-sub001/internal/application/port"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/entity"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
	"github.com/AisleiAvila/HomeService-sub001/internal/infrastructure/persistence/sqlite"
)

// requestRow mirrors one service_requests row
type requestRow struct {
	ID                       string              `db:"id"`
	RequesterID              int64               `db:"requester_id"`
	AssignedProfessionalID   *int64              `db:"assigned_professional_id"`
	Title                    string              `db:"title"`
	Description              string              `db:"description"`
	Address                  string              `db:"address"`
	Status                   string              `db:"status"`
	ProposedExecutionAt      *time.Time          `db:"proposed_execution_at"`
	ProposedByActorID        *int64              `db:"proposed_by_actor_id"`
	ProposedByRole           string              `db:"proposed_by_role"`
	ProposedDurationMinutes  *int                `db:"proposed_duration_minutes"`
	ScheduledStartAt         *time.Time          `db:"scheduled_start_at"`
	EstimatedDurationMinutes *int                `db:"estimated_duration_minutes"`
	ActualStartAt            *time.Time          `db:"actual_start_at"`
	ActualEndAt              *time.Time          `db:"actual_end_at"`
	QuotedAmount             decimal.NullDecimal `db:"quoted_amount"`
	PlatformFee              decimal.NullDecimal `db:"platform_fee"`
	ProfessionalPayout       decimal.NullDecimal `db:"professional_payout"`
	PaidAmount               decimal.NullDecimal `db:"paid_amount"`
	PaymentMethod            string              `db:"payment_method"`
	PaymentStatus            string              `db:"payment_status"`
	Version                  int64               `db:"version"`
	CreatedAt                time.Time           `db:"created_at"`
	UpdatedAt                time.Time           `db:"updated_at"`
}

// updateRow adds the version the caller read
type updateRow struct {
	requestRow
	ExpectedVersion int64 `db:"expected_version"`
}

// historyRow is one status_history row
type historyRow struct {
	RequestID string `db:"request_id"`
	entity.StatusHistoryEntry
}

const requestColumns = `
	id, requester_id, assigned_professional_id, title, description, address, status,
	proposed_execution_at, proposed_by_actor_id, proposed_by_role, proposed_duration_minutes,
	scheduled_start_at, estimated_duration_minutes, actual_start_at, actual_end_at,
	quoted_amount, platform_fee, professional_payout, paid_amount,
	payment_method, payment_status, version, created_at, updated_at`

// RequestRepository implements port.ServiceRequestRepository on sqlite
type RequestRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new service request repository
func NewRequestRepository(db *sqlite.DB, logger *zap.Logger) port.ServiceRequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new request and its initial history at version 1
func (r *RequestRepository) Create(ctx context.Context, req *entity.ServiceRequest) (int64, error) {
	row := toRow(req, 1)

	err := r.db.WithTransaction(ctx, func(ctx context.Context) error {
		exec := r.db.Executor(ctx)

		query := `INSERT INTO service_requests (` + requestColumns + `) VALUES (
			:id, :requester_id, :assigned_professional_id, :title, :description, :address, :status,
			:proposed_execution_at, :proposed_by_actor_id, :proposed_by_role, :proposed_duration_minutes,
			:scheduled_start_at, :estimated_duration_minutes, :actual_start_at, :actual_end_at,
			:quoted_amount, :platform_fee, :professional_payout, :paid_amount,
			:payment_method, :payment_status, :version, :created_at, :updated_at)`
		if _, err := sqlx.NamedExecContext(ctx, exec, query, row); err != nil {
			return fmt.Errorf("failed to insert request: %w", err)
		}

		for _, entry := range req.History {
			if err := insertHistory(ctx, exec, req.ID, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to create request", zap.String("request_id", req.ID), zap.Error(err))
		return 0, unavailable(err)
	}

	return 1, nil
}

// Load retrieves a request with its full history
func (r *RequestRepository) Load(ctx context.Context, id string) (*entity.ServiceRequest, int64, error) {
	exec := r.db.Executor(ctx)

	var row requestRow
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE id = ?`
	if err := sqlx.GetContext(ctx, exec, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, fmt.Errorf("%w: %s", workflow.ErrNotFound, id)
		}
		r.logger.Error("Failed to load request", zap.String("request_id", id), zap.Error(err))
		return nil, 0, unavailable(fmt.Errorf("failed to load request: %w", err))
	}

	var history []historyRow
	historyQuery := `
		SELECT request_id, seq, status, action, changed_at, changed_by_actor_id, changed_by_role, notes
		FROM status_history
		WHERE request_id = ?
		ORDER BY seq ASC
	`
	if err := sqlx.SelectContext(ctx, exec, &history, historyQuery, id); err != nil {
		r.logger.Error("Failed to load history", zap.String("request_id", id), zap.Error(err))
		return nil, 0, unavailable(fmt.Errorf("failed to load history: %w", err))
	}

	req := fromRow(&row)
	req.History = make([]entity.StatusHistoryEntry, 0, len(history))
	for _, h := range history {
		req.History = append(req.History, h.StatusHistoryEntry)
	}

	return req, row.Version, nil
}

// Commit writes req and appends entry when the stored version still matches
func (r *RequestRepository) Commit(ctx context.Context, req *entity.ServiceRequest, expectedVersion int64, entry entity.StatusHistoryEntry) (int64, error) {
	newVersion := expectedVersion + 1
	row := updateRow{requestRow: toRow(req, newVersion), ExpectedVersion: expectedVersion}

	err := r.db.WithTransaction(ctx, func(ctx context.Context) error {
		exec := r.db.Executor(ctx)

		query := `
			UPDATE service_requests SET
				assigned_professional_id = :assigned_professional_id,
				title = :title,
				description = :description,
				address = :address,
				status = :status,
				proposed_execution_at = :proposed_execution_at,
				proposed_by_actor_id = :proposed_by_actor_id,
				proposed_by_role = :proposed_by_role,
				proposed_duration_minutes = :proposed_duration_minutes,
				scheduled_start_at = :scheduled_start_at,
				estimated_duration_minutes = :estimated_duration_minutes,
				actual_start_at = :actual_start_at,
				actual_end_at = :actual_end_at,
				quoted_amount = :quoted_amount,
				platform_fee = :platform_fee,
				professional_payout = :professional_payout,
				paid_amount = :paid_amount,
				payment_method = :payment_method,
				payment_status = :payment_status,
				version = :version,
				updated_at = :updated_at
			WHERE id = :id AND version = :expected_version
		`
		result, err := sqlx.NamedExecContext(ctx, exec, query, row)
		if err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return r.versionMismatch(ctx, exec, req.ID, expectedVersion)
		}

		return insertHistory(ctx, exec, req.ID, entry)
	})
	if err != nil {
		if errors.Is(err, workflow.ErrConcurrentModification) || errors.Is(err, workflow.ErrNotFound) {
			r.logger.Info("Commit rejected",
				zap.String("request_id", req.ID),
				zap.Int64("expected_version", expectedVersion),
				zap.Error(err))
			return 0, err
		}
		r.logger.Error("Failed to commit request", zap.String("request_id", req.ID), zap.Error(err))
		return 0, unavailable(err)
	}

	return newVersion, nil
}

// ListStatuses pages through raw stored statuses ordered by id
func (r *RequestRepository) ListStatuses(ctx context.Context, limit, offset int) ([]port.StoredStatus, error) {
	query := `
		SELECT id, status, version
		FROM service_requests
		ORDER BY id ASC
		LIMIT ? OFFSET ?
	`

	statuses := []port.StoredStatus{}
	if err := sqlx.SelectContext(ctx, r.db.Executor(ctx), &statuses, query, limit, offset); err != nil {
		r.logger.Error("Failed to list statuses", zap.Error(err))
		return nil, unavailable(fmt.Errorf("failed to list statuses: %w", err))
	}

	return statuses, nil
}

// versionMismatch tells a missing row apart from a stale version
func (r *RequestRepository) versionMismatch(ctx context.Context, exec sqlite.Executor, id string, expected int64) error {
	var current int64
	err := sqlx.GetContext(ctx, exec, &current, `SELECT version FROM service_requests WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", workflow.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to read version: %w", err)
	}
	return fmt.Errorf("%w: request %s is at version %d, expected %d",
		workflow.ErrConcurrentModification, id, current, expected)
}

func insertHistory(ctx context.Context, exec sqlite.Executor, requestID string, entry entity.StatusHistoryEntry) error {
	query := `
		INSERT INTO status_history (
			request_id, seq, status, action, changed_at, changed_by_actor_id, changed_by_role, notes
		) VALUES (
			:request_id, :seq, :status, :action, :changed_at, :changed_by_actor_id, :changed_by_role, :notes
		)
	`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, historyRow{RequestID: requestID, StatusHistoryEntry: entry}); err != nil {
		return fmt.Errorf("failed to append history entry %d: %w", entry.Seq, err)
	}
	return nil
}

// unavailable marks a storage failure unless it already carries a domain kind
func unavailable(err error) error {
	if errors.Is(err, workflow.ErrPersistenceUnavailable) ||
		errors.Is(err, workflow.ErrNotFound) ||
		errors.Is(err, workflow.ErrConcurrentModification) {
		return err
	}
	return fmt.Errorf("%w: %w", workflow.ErrPersistenceUnavailable, err)
}

func toRow(req *entity.ServiceRequest, version int64) requestRow {
	return requestRow{
		ID:                       req.ID,
		RequesterID:              req.RequesterID,
		AssignedProfessionalID:   req.AssignedProfessionalID,
		Title:                    req.Title,
		Description:              req.Description,
		Address:                  req.Address,
		Status:                   string(req.Status),
		ProposedExecutionAt:      req.ProposedExecutionAt,
		ProposedByActorID:        req.ProposedByActorID,
		ProposedByRole:           string(req.ProposedByRole),
		ProposedDurationMinutes:  req.ProposedDurationMinutes,
		ScheduledStartAt:         req.ScheduledStartAt,
		EstimatedDurationMinutes: req.EstimatedDurationMinutes,
		ActualStartAt:            req.ActualStartAt,
		ActualEndAt:              req.ActualEndAt,
		QuotedAmount:             nullDecimal(req.QuotedAmount),
		PlatformFee:              nullDecimal(req.PlatformFee),
		ProfessionalPayout:       nullDecimal(req.ProfessionalPayout),
		PaidAmount:               nullDecimal(req.PaidAmount),
		PaymentMethod:            req.PaymentMethod,
		PaymentStatus:            string(req.PaymentStatus),
		Version:                  version,
		CreatedAt:                req.CreatedAt,
		UpdatedAt:                req.UpdatedAt,
	}
}

func fromRow(row *requestRow) *entity.ServiceRequest {
	return &entity.ServiceRequest{
		ID:                       row.ID,
		RequesterID:              row.RequesterID,
		AssignedProfessionalID:   row.AssignedProfessionalID,
		Title:                    row.Title,
		Description:              row.Description,
		Address:                  row.Address,
		Status:                   workflow.Status(row.Status),
		ProposedExecutionAt:      row.ProposedExecutionAt,
		ProposedByActorID:        row.ProposedByActorID,
		ProposedByRole:           workflow.Role(row.ProposedByRole),
		ProposedDurationMinutes:  row.ProposedDurationMinutes,
		ScheduledStartAt:         row.ScheduledStartAt,
		EstimatedDurationMinutes: row.EstimatedDurationMinutes,
		ActualStartAt:            row.ActualStartAt,
		ActualEndAt:              row.ActualEndAt,
		QuotedAmount:             decimalPtr(row.QuotedAmount),
		PlatformFee:              decimalPtr(row.PlatformFee),
		ProfessionalPayout:       decimalPtr(row.ProfessionalPayout),
		PaidAmount:               decimalPtr(row.PaidAmount),
		PaymentMethod:            row.PaymentMethod,
		PaymentStatus:            entity.PaymentStatus(row.PaymentStatus),
		CreatedAt:                row.CreatedAt,
		UpdatedAt:                row.UpdatedAt,
	}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func decimalPtr(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}

// Verify interface compliance
var _ port.ServiceRequestRepository = (*RequestRepository)(nil)
