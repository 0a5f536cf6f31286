package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/AisleiAvila/HomeService-sub001/internal/domain/fee"
)

// Storage backends
const (
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Storage      StorageConfig      `mapstructure:"storage"`
	DynamoDB     DynamoDBConfig     `mapstructure:"dynamodb"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Workflow     WorkflowConfig     `mapstructure:"workflow"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logger       LoggerConfig       `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds sqlite configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// StorageConfig selects where service requests live
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

// DynamoDBConfig holds DynamoDB configuration
type DynamoDBConfig struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	Table           string `mapstructure:"table"`
	OutboxTable     string `mapstructure:"outbox_table"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// RedisConfig holds the notification queue configuration. An empty URL
// logs intents instead of publishing them.
type RedisConfig struct {
	URL      string `mapstructure:"url"`
	QueueKey string `mapstructure:"queue_key"`
}

// WorkflowConfig holds engine settings
type WorkflowConfig struct {
	FeeRate          string        `mapstructure:"fee_rate"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
	NotifyTimeout    time.Duration `mapstructure:"notify_timeout"`
}

// Rate parses the configured platform fee rate
func (w WorkflowConfig) Rate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(w.FeeRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("workflow.fee_rate %q is not a decimal: %w", w.FeeRate, err)
	}
	if err := fee.ValidateRate(rate); err != nil {
		return decimal.Zero, err
	}
	return rate, nil
}

// NotificationConfig holds outbox delivery settings
type NotificationConfig struct {
	RetryInterval   time.Duration `mapstructure:"retry_interval"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	BatchSize       int           `mapstructure:"batch_size"`
	DeliveryTimeout time.Duration `mapstructure:"delivery_timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads .env (if present), then configPath (if non-empty), then the
// environment. SERVER_PORT overrides server.port and so on.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/homeservice.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("storage.backend", BackendSQLite)

	// DynamoDB defaults
	v.SetDefault("dynamodb.region", "us-east-1")
	v.SetDefault("dynamodb.endpoint", "")
	v.SetDefault("dynamodb.table", "service_requests")
	v.SetDefault("dynamodb.outbox_table", "notification_outbox")
	v.SetDefault("dynamodb.access_key_id", "")
	v.SetDefault("dynamodb.secret_access_key", "")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.queue_key", "homeservice:notifications")

	// Workflow defaults
	v.SetDefault("workflow.fee_rate", fee.DefaultRate.String())
	v.SetDefault("workflow.operation_timeout", 5*time.Second)
	v.SetDefault("workflow.notify_timeout", 2*time.Second)

	// Notification defaults
	v.SetDefault("notification.retry_interval", 30*time.Second)
	v.SetDefault("notification.max_attempts", 5)
	v.SetDefault("notification.batch_size", 50)
	v.SetDefault("notification.delivery_timeout", 10*time.Second)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds conventional variable names to configuration keys
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"dynamodb.access_key_id":     "AWS_ACCESS_KEY_ID",
		"dynamodb.secret_access_key": "AWS_SECRET_ACCESS_KEY",
		"dynamodb.region":            "AWS_REGION",
		"dynamodb.endpoint":          "DYNAMODB_ENDPOINT",
		"redis.url":                  "REDIS_URL",
		"workflow.fee_rate":          "PLATFORM_FEE_RATE",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}

	switch c.Storage.Backend {
	case BackendSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite backend")
		}
	case BackendDynamoDB:
		if c.DynamoDB.Table == "" {
			return fmt.Errorf("dynamodb.table is required for the dynamodb backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("storage.backend %q is not one of %s, %s, %s",
			c.Storage.Backend, BackendSQLite, BackendDynamoDB, BackendMemory)
	}

	if _, err := c.Workflow.Rate(); err != nil {
		return err
	}
	if c.Workflow.OperationTimeout <= 0 {
		return fmt.Errorf("workflow.operation_timeout must be positive")
	}
	if c.Workflow.NotifyTimeout <= 0 {
		return fmt.Errorf("workflow.notify_timeout must be positive")
	}

	if c.Notification.MaxAttempts <= 0 {
		return fmt.Errorf("notification.max_attempts must be positive")
	}
	if c.Notification.BatchSize <= 0 {
		return fmt.Errorf("notification.batch_size must be positive")
	}
	if c.Notification.RetryInterval <= 0 {
		return fmt.Errorf("notification.retry_interval must be positive")
	}

	return nil
}
