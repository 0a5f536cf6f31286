package container

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AisleiAvila/HomeService-sub001/internal/application/dispatcher"
	"github.com/AisleiAvila/HomeService-sub001/internal/application/port"
	"github.com/AisleiAvila/HomeService-sub001/internal/application/service"
	"github.com/AisleiAvila/HomeService-sub001/internal/application/workflow"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/event"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/fee"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/migration"
	"github.com/AisleiAvila/HomeService-sub001/internal/infrastructure/persistence/dynamo"
	"github.com/AisleiAvila/HomeService-sub001/internal/infrastructure/persistence/memory"
	"github.com/AisleiAvila/HomeService-sub001/internal/infrastructure/persistence/repository"
	"github.com/AisleiAvila/HomeService-sub001/internal/infrastructure/persistence/sqlite"
	"github.com/AisleiAvila/HomeService-sub001/internal/infrastructure/queue"
	"github.com/AisleiAvila/HomeService-sub001/internal/infrastructure/worker"
	"github.com/AisleiAvila/HomeService-sub001/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// PublisherBundle holds the notification transport.
type PublisherBundle struct {
	Publisher port.IntentPublisher
	// Redis is nil when notifications are only logged
	Redis *redis.Client
}

// ProvideDatabase opens the SQLite database and applies the embedded migrations.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if cfg.Path != database.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).Up(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideSQLiteRepositories creates the sqlx-backed request store and outbox.
func ProvideSQLiteRepositories(db *sqlite.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Requests: repository.NewRequestRepository(db, logger),
		Outbox:   repository.NewNotificationRepository(db, logger),
	}, nil
}

// ProvideDynamoRepositories creates the DynamoDB request store and outbox.
func ProvideDynamoRepositories(ctx context.Context, cfg *DynamoDBConfig, logger *zap.Logger) (*RepositoryBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("dynamodb config is required")
	}

	client, err := dynamo.NewClient(ctx, dynamo.ClientConfig{
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}

	return &RepositoryBundle{
		Requests: dynamo.NewRequestStore(client, cfg.Table, logger),
		Outbox:   dynamo.NewOutboxStore(client, cfg.OutboxTable, logger),
	}, nil
}

// ProvideMemoryRepositories creates process-local stores.
func ProvideMemoryRepositories() *RepositoryBundle {
	return &RepositoryBundle{
		Requests: memory.NewRequestStore(),
		Outbox:   memory.NewOutboxStore(),
	}
}

// StorageBundle is an opened storage backend.
type StorageBundle struct {
	Repos *RepositoryBundle
	// Database is set for the sqlite backend only
	Database *DatabaseBundle
}

// Close releases the database connection, if any.
func (b *StorageBundle) Close() error {
	if b.Database == nil {
		return nil
	}
	return b.Database.DB.Close()
}

// OpenStorage opens the backend selected by cfg.Backend. Tools that only
// need the repositories use it without starting a Container.
func OpenStorage(ctx context.Context, cfg *Config, logger *zap.Logger) (*StorageBundle, error) {
	switch cfg.Backend {
	case BackendSQLite:
		dbBundle, err := ProvideDatabase(ctx, &cfg.Database, logger)
		if err != nil {
			return nil, err
		}

		repos, err := ProvideSQLiteRepositories(dbBundle.TransactionMgr, logger)
		if err != nil {
			_ = dbBundle.DB.Close()
			return nil, err
		}
		return &StorageBundle{Repos: repos, Database: dbBundle}, nil

	case BackendDynamoDB:
		repos, err := ProvideDynamoRepositories(ctx, &cfg.DynamoDB, logger)
		if err != nil {
			return nil, err
		}
		return &StorageBundle{Repos: repos}, nil

	case BackendMemory:
		return &StorageBundle{Repos: ProvideMemoryRepositories()}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// ProvidePublisher connects to Redis when a URL is configured and falls back
// to logging intents otherwise.
func ProvidePublisher(ctx context.Context, cfg *RedisConfig, logger *zap.Logger) (*PublisherBundle, error) {
	if cfg == nil || cfg.URL == "" {
		logger.Info("Redis not configured, notifications will only be logged")
		return &PublisherBundle{Publisher: queue.NewLogPublisher(logger)}, nil
	}

	client, err := queue.NewRedisClient(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}

	return &PublisherBundle{
		Publisher: queue.NewRedisPublisher(client, cfg.QueueKey, logger),
		Redis:     client,
	}, nil
}

// ProvideDispatcher creates the intent dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(&LoggerAdapter{logger: logger}),
	), nil
}

// ProvideMigrator creates the status migrator. Fallbacks are logged at warn level.
func ProvideMigrator(logger *zap.Logger) *migration.Migrator {
	return migration.NewMigrator(migration.WithLogger(&LoggerAdapter{logger: logger}))
}

// WorkflowDeps holds dependencies for creating the workflow engine.
type WorkflowDeps struct {
	Repos      *RepositoryBundle
	Publisher  port.IntentPublisher
	Dispatcher dispatcher.Dispatcher
	Migrator   *migration.Migrator
	Config     *WorkflowConfig
	Worker     *WorkerConfig
	Logger     *zap.Logger
}

// ProvideWorkflowEngine creates the workflow engine and registers the
// delivery and confirmation handlers on the dispatcher.
func ProvideWorkflowEngine(deps *WorkflowDeps) (workflow.WorkflowEngine, error) {
	if deps == nil {
		return nil, fmt.Errorf("workflow deps are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if deps.Config == nil || deps.Worker == nil {
		return nil, fmt.Errorf("workflow and worker config are required")
	}

	calculator, err := fee.NewCalculator(deps.Config.FeeRate)
	if err != nil {
		return nil, err
	}

	logger := &LoggerAdapter{logger: deps.Logger}
	engine := workflow.NewEngine(deps.Repos.Requests,
		workflow.WithNotifier(dispatcher.NewOutboxNotifier(deps.Dispatcher, deps.Repos.Outbox)),
		workflow.WithLogger(logger),
		workflow.WithMigrator(deps.Migrator),
		workflow.WithFeeCalculator(calculator),
		workflow.WithOperationTimeout(deps.Config.OperationTimeout),
		workflow.WithNotifyTimeout(deps.Config.NotifyTimeout),
	)

	deliver := dispatcher.NewDeliveryHandler(deps.Publisher, deps.Repos.Outbox, deps.Worker.DeliveryTimeout)
	for _, kind := range event.Kinds() {
		deps.Dispatcher.SubscribeNamed(kind, "deliver", deliver)
	}
	deps.Dispatcher.SubscribeNamed(event.KindProfessionalAssigned, "open_confirmation",
		workflow.NewOpenConfirmationHandler(engine, logger))

	deps.Logger.Info("Workflow engine created",
		zap.String("fee_rate", calculator.Rate.String()),
		zap.Int("intent_kinds", len(event.Kinds())))

	return engine, nil
}

// ProvideServices creates all application services.
func ProvideServices(repos *RepositoryBundle, migrator *migration.Migrator, logger *zap.Logger) (*ServiceBundle, error) {
	if repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}

	return &ServiceBundle{
		Backfill: service.NewBackfillService(repos.Requests, migrator, &LoggerAdapter{logger: logger}),
	}, nil
}

// WorkerDeps holds dependencies for creating workers.
type WorkerDeps struct {
	Repos     *RepositoryBundle
	Publisher port.IntentPublisher
	WorkerCfg *WorkerConfig
	Logger    *zap.Logger
}

// ProvideWorkers creates the worker manager and registers every worker.
func ProvideWorkers(deps *WorkerDeps) (*worker.WorkerManager, *worker.NotificationRetryWorker, error) {
	if deps == nil {
		return nil, nil, fmt.Errorf("worker deps are required")
	}
	if deps.Repos == nil || deps.Repos.Outbox == nil {
		return nil, nil, fmt.Errorf("notification outbox is required")
	}

	manager := worker.NewWorkerManager(deps.Logger)

	cfg := worker.DefaultNotificationRetryWorkerConfig()
	if deps.WorkerCfg != nil {
		cfg.PollInterval = deps.WorkerCfg.RetryInterval
		cfg.MaxAttempts = deps.WorkerCfg.MaxAttempts
		cfg.BatchSize = deps.WorkerCfg.BatchSize
		cfg.DeliveryTimeout = deps.WorkerCfg.DeliveryTimeout
	}

	retry := worker.NewNotificationRetryWorker(cfg, deps.Repos.Outbox, deps.Publisher, deps.Logger)
	manager.Register(retry)

	return manager, retry, nil
}
