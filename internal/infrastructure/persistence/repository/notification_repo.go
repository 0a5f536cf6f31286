package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/AisleiAvila/HomeService-sub001/internal/application/port"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/entity"
	"github.com/AisleiAvila/HomeService-sub001/internal/infrastructure/persistence/sqlite"
)

// NotificationRepository implements port.NotificationOutbox
type NotificationRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewNotificationRepository creates a new notification outbox repository
func NewNotificationRepository(db *sqlite.DB, logger *zap.Logger) port.NotificationOutbox {
	return &NotificationRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Save inserts a notification record
func (r *NotificationRepository) Save(ctx context.Context, record *entity.NotificationRecord) error {
	query := `
		INSERT INTO notification_outbox (
			id, kind, request_id, recipient_id, recipient_role, payload,
			status, attempts, last_error, sent_at, created_at, updated_at
		) VALUES (
			:id, :kind, :request_id, :recipient_id, :recipient_role, :payload,
			:status, :attempts, :last_error, :sent_at, :created_at, :updated_at
		)
	`

	if _, err := sqlx.NamedExecContext(ctx, r.db.Executor(ctx), query, record); err != nil {
		r.logger.Error("Failed to save notification",
			zap.String("id", record.ID),
			zap.String("request_id", record.RequestID),
			zap.Error(err))
		return fmt.Errorf("failed to save notification: %w", err)
	}

	return nil
}

// MarkSent marks a notification as delivered
func (r *NotificationRepository) MarkSent(ctx context.Context, id string) error {
	query := `
		UPDATE notification_outbox
		SET status = ?, attempts = attempts + 1, last_error = '', sent_at = ?, updated_at = ?
		WHERE id = ?
	`

	now := r.now()
	if _, err := r.db.Executor(ctx).ExecContext(ctx, query, entity.NotificationStatusSent, now, now, id); err != nil {
		r.logger.Error("Failed to mark notification sent",
			zap.String("id", id),
			zap.Error(err))
		return fmt.Errorf("failed to mark sent: %w", err)
	}

	return nil
}

// MarkFailed records a failed delivery attempt
func (r *NotificationRepository) MarkFailed(ctx context.Context, id string, errMsg string) error {
	query := `
		UPDATE notification_outbox
		SET status = ?, attempts = attempts + 1, last_error = ?, updated_at = ?
		WHERE id = ?
	`

	if _, err := r.db.Executor(ctx).ExecContext(ctx, query, entity.NotificationStatusFailed, errMsg, r.now(), id); err != nil {
		r.logger.Error("Failed to mark notification failed",
			zap.String("id", id),
			zap.Error(err))
		return fmt.Errorf("failed to mark failed: %w", err)
	}

	return nil
}

// ListRetryable returns undelivered notifications, oldest first
func (r *NotificationRepository) ListRetryable(ctx context.Context, maxAttempts, limit int) ([]*entity.NotificationRecord, error) {
	query := `
		SELECT id, kind, request_id, recipient_id, recipient_role, payload,
			status, attempts, last_error, sent_at, created_at, updated_at
		FROM notification_outbox
		WHERE status IN (?, ?) AND attempts < ?
		ORDER BY created_at ASC
		LIMIT ?
	`

	records := []*entity.NotificationRecord{}
	err := sqlx.SelectContext(ctx, r.db.Executor(ctx), &records, query,
		entity.NotificationStatusPending, entity.NotificationStatusFailed, maxAttempts, limit)
	if err != nil {
		r.logger.Error("Failed to list retryable notifications", zap.Error(err))
		return nil, fmt.Errorf("failed to list retryable notifications: %w", err)
	}

	return records, nil
}

// Verify interface compliance
var _ port.NotificationOutbox = (*NotificationRepository)(nil)
