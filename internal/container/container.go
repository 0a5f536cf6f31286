package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AisleiAvila/HomeService-sub001/internal/application/dispatcher"
	"github.com/AisleiAvila/HomeService-sub001/internal/application/port"
	"github.com/AisleiAvila/HomeService-sub001/internal/application/service"
	"github.com/AisleiAvila/HomeService-sub001/internal/application/workflow"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/migration"
	"github.com/AisleiAvila/HomeService-sub001/internal/infrastructure/persistence/sqlite"
	"github.com/AisleiAvila/HomeService-sub001/internal/infrastructure/worker"
	"github.com/AisleiAvila/HomeService-sub001/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	database     *database.DB
	db           *sqlite.DB
	repositories *RepositoryBundle

	// Infrastructure - Transport
	redis     *redis.Client
	publisher port.IntentPublisher

	// Application
	migrator   *migration.Migrator
	dispatcher dispatcher.Dispatcher
	workflow   workflow.WorkflowEngine
	services   *ServiceBundle

	// Workers
	workers     *worker.WorkerManager
	retryWorker *worker.NotificationRetryWorker

	// Lifecycle
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups the persistence collaborators of the engine.
type RepositoryBundle struct {
	Requests port.ServiceRequestRepository
	Outbox   port.NotificationOutbox
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Backfill service.BackfillService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components and begins processing.
// Components are initialized in dependency order:
// 1. Storage backend and repositories
// 2. Notification transport
// 3. Dispatcher and workflow engine
// 4. Application services
// 5. Workers
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization", zap.String("backend", c.config.Backend))

	// Step 1: Initialize storage backend and repositories
	if err := c.initStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.logger.Info("Storage initialized")

	// Step 2: Initialize notification transport
	if err := c.initPublisher(); err != nil {
		c.closeStorage()
		return fmt.Errorf("failed to initialize publisher: %w", err)
	}
	c.logger.Info("Publisher initialized")

	// Step 3: Initialize dispatcher and workflow engine
	if err := c.initDispatcherAndWorkflow(); err != nil {
		c.closeStorage()
		return fmt.Errorf("failed to initialize dispatcher and workflow: %w", err)
	}
	c.logger.Info("Dispatcher and workflow engine initialized")

	// Step 4: Initialize application services
	if err := c.initServices(); err != nil {
		c.closeStorage()
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized")

	// Step 5: Initialize and start workers
	if err := c.initWorkers(); err != nil {
		c.closeStorage()
		return fmt.Errorf("failed to initialize workers: %w", err)
	}
	c.logger.Info("Workers initialized and started")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	if c.cancel != nil {
		c.cancel()
	}

	// Step 1: Stop workers (reverse of step 5)
	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			c.logger.Error("Failed to stop workers", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		} else {
			c.logger.Info("Workers stopped")
		}
	}

	// Step 2: Close dispatcher, waiting for in-flight deliveries (reverse of step 3)
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	// Step 3: Close Redis (reverse of step 2)
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.logger.Error("Failed to close redis", zap.Error(err))
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		} else {
			c.logger.Info("Redis closed")
		}
	}

	// Step 4: Close database (reverse of step 1)
	if err := c.closeStorage(); err != nil {
		errs = append(errs, err)
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors: %w", len(errs), errors.Join(errs...))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	set := func(name string, h ComponentHealth) {
		status.Components[name] = h
		if !h.Healthy {
			status.Overall = false
		}
	}

	// Check storage
	switch {
	case c.repositories == nil:
		set("storage", ComponentHealth{Healthy: false, Message: "not initialized"})
	case c.database != nil:
		if err := c.database.PingContext(ctx); err != nil {
			set("storage", ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)})
		} else {
			set("storage", ComponentHealth{Healthy: true, Message: c.config.Backend})
		}
	default:
		set("storage", ComponentHealth{Healthy: true, Message: c.config.Backend})
	}

	// Check redis
	if c.redis != nil {
		if err := c.redis.Ping(ctx).Err(); err != nil {
			set("redis", ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)})
		} else {
			set("redis", ComponentHealth{Healthy: true})
		}
	}

	// Check workers
	if c.workers != nil {
		set("workers", ComponentHealth{
			Healthy: c.workers.IsRunning(),
			Message: fmt.Sprintf("worker count: %d", c.workers.GetWorkerCount()),
		})
	} else {
		set("workers", ComponentHealth{Healthy: false, Message: "not initialized"})
	}

	// Check dispatcher
	if c.dispatcher != nil {
		set("dispatcher", ComponentHealth{Healthy: true})
	} else {
		set("dispatcher", ComponentHealth{Healthy: false, Message: "not initialized"})
	}

	return status
}

// initStorage opens the configured backend.
func (c *Container) initStorage() error {
	storage, err := OpenStorage(c.ctx, c.config, c.logger)
	if err != nil {
		return err
	}

	c.repositories = storage.Repos
	if storage.Database != nil {
		c.database = storage.Database.DB
		c.db = storage.Database.TransactionMgr
	}
	return nil
}

func (c *Container) closeStorage() error {
	if c.database == nil {
		return nil
	}

	err := c.database.Close()
	c.database = nil
	if err != nil {
		c.logger.Error("Failed to close database", zap.Error(err))
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Info("Database closed")
	return nil
}

// initPublisher connects the notification transport.
func (c *Container) initPublisher() error {
	bundle, err := ProvidePublisher(c.ctx, &c.config.Redis, c.logger)
	if err != nil {
		return err
	}

	c.publisher = bundle.Publisher
	c.redis = bundle.Redis
	return nil
}

// initDispatcherAndWorkflow initializes the intent dispatcher and workflow engine.
func (c *Container) initDispatcherAndWorkflow() error {
	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = disp
	c.migrator = ProvideMigrator(c.logger)

	engine, err := ProvideWorkflowEngine(&WorkflowDeps{
		Repos:      c.repositories,
		Publisher:  c.publisher,
		Dispatcher: c.dispatcher,
		Migrator:   c.migrator,
		Config:     &c.config.Workflow,
		Worker:     &c.config.Worker,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}
	c.workflow = engine

	return nil
}

// initServices initializes all application services.
func (c *Container) initServices() error {
	services, err := ProvideServices(c.repositories, c.migrator, c.logger)
	if err != nil {
		return err
	}

	c.services = services
	return nil
}

// initWorkers initializes and starts all background workers.
func (c *Container) initWorkers() error {
	workers, retry, err := ProvideWorkers(&WorkerDeps{
		Repos:     c.repositories,
		Publisher: c.publisher,
		WorkerCfg: &c.config.Worker,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}
	c.workers = workers
	c.retryWorker = retry

	if err := c.workers.StartAll(c.ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}

	return nil
}

// Getters for accessing container components

// DB returns the transaction manager, nil unless the sqlite backend is used.
func (c *Container) DB() port.TransactionManager {
	if c.db == nil {
		return nil
	}
	return c.db
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Publisher returns the notification transport.
func (c *Container) Publisher() port.IntentPublisher {
	return c.publisher
}

// Migrator returns the status migrator.
func (c *Container) Migrator() *migration.Migrator {
	return c.migrator
}

// Dispatcher returns the intent dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// WorkflowEngine returns the workflow engine.
func (c *Container) WorkflowEngine() workflow.WorkflowEngine {
	return c.workflow
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Workers returns the worker manager.
func (c *Container) Workers() *worker.WorkerManager {
	return c.workers
}

// RetryWorker returns the notification retry worker.
func (c *Container) RetryWorker() *worker.NotificationRetryWorker {
	return c.retryWorker
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}

// LoggerAdapter adapts zap.Logger to the key-value Logger interfaces of
// the application, domain and interface packages.
type LoggerAdapter struct {
	logger *zap.Logger
}

// NewLoggerAdapter wraps logger
func NewLoggerAdapter(logger *zap.Logger) *LoggerAdapter {
	return &LoggerAdapter{logger: logger}
}

func (a *LoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *LoggerAdapter) Warn(msg string, keysAndValues ...interface{}) {
	a.logger.Warn(msg, convertToZapFields(keysAndValues...)...)
}

func (a *LoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, ok := keysAndValues[i+1].(error); ok {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
