package config

import (
	"github.com/AisleiAvila/HomeService-sub001/internal/container"
)

// ToContainerConfig converts the file-based Config into the container's
// runtime configuration.
func (c *Config) ToContainerConfig() (*container.Config, error) {
	rate, err := c.Workflow.Rate()
	if err != nil {
		return nil, err
	}

	return &container.Config{
		Backend: c.Storage.Backend,
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		DynamoDB: container.DynamoDBConfig{
			Region:          c.DynamoDB.Region,
			Endpoint:        c.DynamoDB.Endpoint,
			Table:           c.DynamoDB.Table,
			OutboxTable:     c.DynamoDB.OutboxTable,
			AccessKeyID:     c.DynamoDB.AccessKeyID,
			SecretAccessKey: c.DynamoDB.SecretAccessKey,
		},
		Redis: container.RedisConfig{
			URL:      c.Redis.URL,
			QueueKey: c.Redis.QueueKey,
		},
		Workflow: container.WorkflowConfig{
			FeeRate:          rate,
			OperationTimeout: c.Workflow.OperationTimeout,
			NotifyTimeout:    c.Workflow.NotifyTimeout,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
		Worker: container.WorkerConfig{
			RetryInterval:   c.Notification.RetryInterval,
			MaxAttempts:     c.Notification.MaxAttempts,
			BatchSize:       c.Notification.BatchSize,
			DeliveryTimeout: c.Notification.DeliveryTimeout,
		},
	}, nil
}
