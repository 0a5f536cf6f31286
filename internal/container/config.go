// Package container provides dependency injection and lifecycle management
// for the service request workflow.
package container

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AisleiAvila/HomeService-sub001/internal/domain/fee"
)

// Storage backends
const (
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
)

// Config holds all configuration for the Container.
type Config struct {
	// Backend selects the request store: sqlite, dynamodb or memory
	Backend string

	Database DatabaseConfig
	DynamoDB DynamoDBConfig
	Redis    RedisConfig
	Workflow WorkflowConfig
	Server   ServerConfig
	Worker   WorkerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration
}

// DynamoDBConfig holds DynamoDB settings.
type DynamoDBConfig struct {
	Region          string
	Endpoint        string
	Table           string
	OutboxTable     string
	AccessKeyID     string
	SecretAccessKey string
}

// RedisConfig holds notification queue settings. An empty URL selects the
// log publisher.
type RedisConfig struct {
	URL      string
	QueueKey string
}

// WorkflowConfig holds engine settings.
type WorkflowConfig struct {
	FeeRate          decimal.Decimal
	OperationTimeout time.Duration
	NotifyTimeout    time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// WorkerConfig holds background worker settings.
type WorkerConfig struct {
	RetryInterval   time.Duration
	MaxAttempts     int
	BatchSize       int
	DeliveryTimeout time.Duration
}

// DefaultConfig returns an in-memory configuration, suitable for tests.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendMemory,
		Database: DatabaseConfig{
			Path:            "data/homeservice.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		DynamoDB: DynamoDBConfig{
			Region:      "us-east-1",
			Table:       "service_requests",
			OutboxTable: "notification_outbox",
		},
		Redis: RedisConfig{
			QueueKey: "homeservice:notifications",
		},
		Workflow: WorkflowConfig{
			FeeRate:          fee.DefaultRate,
			OperationTimeout: 5 * time.Second,
			NotifyTimeout:    2 * time.Second,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Worker: WorkerConfig{
			RetryInterval:   30 * time.Second,
			MaxAttempts:     5,
			BatchSize:       50,
			DeliveryTimeout: 10 * time.Second,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for the sqlite backend")
		}
	case BackendDynamoDB:
		if c.DynamoDB.Table == "" {
			return fmt.Errorf("dynamodb table is required for the dynamodb backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Backend)
	}

	if err := fee.ValidateRate(c.Workflow.FeeRate); err != nil {
		return err
	}

	return nil
}
