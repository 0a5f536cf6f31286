package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AisleiAvila/HomeService-sub001/internal/application/dispatcher"
	"github.com/AisleiAvila/HomeService-sub001/internal/application/port"
)

// NotificationRetryWorkerConfig holds configuration for the retry worker
type NotificationRetryWorkerConfig struct {
	PollInterval    time.Duration
	BatchSize       int
	MaxAttempts     int
	DeliveryTimeout time.Duration
	// MinAge skips records touched more recently, leaving them to the
	// in-flight asynchronous delivery
	MinAge time.Duration
}

// DefaultNotificationRetryWorkerConfig returns default configuration
func DefaultNotificationRetryWorkerConfig() NotificationRetryWorkerConfig {
	return NotificationRetryWorkerConfig{
		PollInterval:    30 * time.Second,
		BatchSize:       50,
		MaxAttempts:     5,
		DeliveryTimeout: dispatcher.DefaultDeliveryTimeout,
		MinAge:          30 * time.Second,
	}
}

// RetryStats is a snapshot of the worker counters
type RetryStats struct {
	IsRunning     bool      `json:"is_running"`
	Delivered     int       `json:"delivered"`
	Failed        int       `json:"failed"`
	LastProcessed time.Time `json:"last_processed"`
	LastError     string    `json:"last_error,omitempty"`
}

// NotificationRetryWorker re-publishes outbox records whose asynchronous
// delivery failed or never completed
type NotificationRetryWorker struct {
	config    NotificationRetryWorkerConfig
	outbox    port.NotificationOutbox
	publisher port.IntentPublisher
	logger    *zap.Logger
	now       func() time.Time

	mu            sync.RWMutex
	cancel        context.CancelFunc
	done          chan struct{}
	isRunning     bool
	delivered     int
	failed        int
	lastProcessed time.Time
	lastError     error
}

// NewNotificationRetryWorker creates a new retry worker
func NewNotificationRetryWorker(
	config NotificationRetryWorkerConfig,
	outbox port.NotificationOutbox,
	publisher port.IntentPublisher,
	logger *zap.Logger,
) *NotificationRetryWorker {
	defaults := DefaultNotificationRetryWorkerConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.DeliveryTimeout <= 0 {
		config.DeliveryTimeout = defaults.DeliveryTimeout
	}

	return &NotificationRetryWorker{
		config:    config,
		outbox:    outbox,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Start begins the polling loop
func (w *NotificationRetryWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("notification retry worker already running")
	}

	var loopCtx context.Context
	loopCtx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.isRunning = true
	w.mu.Unlock()

	w.logger.Info("NotificationRetryWorker started",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize),
		zap.Int("max_attempts", w.config.MaxAttempts))

	go w.pollLoop(loopCtx, w.done)

	return nil
}

// Stop cancels the loop and waits for the current batch to finish
func (w *NotificationRetryWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}

	w.isRunning = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done

	stats := w.GetStats()
	w.logger.Info("NotificationRetryWorker stopped",
		zap.Int("delivered", stats.Delivered),
		zap.Int("failed", stats.Failed))

	return nil
}

// Name returns the worker name for identification
func (w *NotificationRetryWorker) Name() string {
	return "NotificationRetryWorker"
}

// GetStats returns a snapshot of the worker counters
func (w *NotificationRetryWorker) GetStats() RetryStats {
	w.mu.RLock()
	defer w.mu.RUnlock()

	stats := RetryStats{
		IsRunning:     w.isRunning,
		Delivered:     w.delivered,
		Failed:        w.failed,
		LastProcessed: w.lastProcessed,
	}
	if w.lastError != nil {
		stats.LastError = w.lastError.Error()
	}
	return stats
}

func (w *NotificationRetryWorker) pollLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Retry loop context cancelled")
			return

		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				w.logger.Error("Failed to retry notifications", zap.Error(err))
			}
		}
	}
}

// RunOnce processes one batch of retryable records
func (w *NotificationRetryWorker) RunOnce(ctx context.Context) error {
	records, err := w.outbox.ListRetryable(ctx, w.config.MaxAttempts, w.config.BatchSize)
	if err != nil {
		err = fmt.Errorf("failed to list retryable notifications: %w", err)
		w.mu.Lock()
		w.lastError = err
		w.mu.Unlock()
		return err
	}

	cutoff := w.now().Add(-w.config.MinAge)
	delivered, failed := 0, 0

	for _, record := range records {
		if ctx.Err() != nil {
			break
		}
		if record.UpdatedAt.After(cutoff) {
			continue
		}

		intent, err := dispatcher.DecodeRecord(record)
		if err != nil {
			w.logger.Error("Undecodable notification record",
				zap.String("id", record.ID),
				zap.Error(err))
			if markErr := w.outbox.MarkFailed(ctx, record.ID, err.Error()); markErr != nil {
				w.logger.Error("Failed to mark notification failed", zap.String("id", record.ID), zap.Error(markErr))
			}
			failed++
			continue
		}

		deliverCtx, cancel := context.WithTimeout(ctx, w.config.DeliveryTimeout)
		err = dispatcher.Deliver(deliverCtx, w.publisher, w.outbox, intent)
		cancel()

		if err != nil {
			w.logger.Warn("Notification retry failed",
				zap.String("id", record.ID),
				zap.String("request_id", record.RequestID),
				zap.Int("attempt", record.Attempts+1),
				zap.Error(err))
			failed++
			continue
		}
		delivered++
	}

	w.mu.Lock()
	w.delivered += delivered
	w.failed += failed
	w.lastProcessed = w.now()
	w.mu.Unlock()

	if delivered > 0 || failed > 0 {
		w.logger.Info("Notification retry batch processed",
			zap.Int("delivered", delivered),
			zap.Int("failed", failed))
	}
	return nil
}
