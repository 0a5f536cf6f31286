package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AisleiAvila/HomeService-sub001/internal/application/port"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/event"
)

const (
	// DefaultQueueKey is the list consumers pop notification intents from
	DefaultQueueKey = "homeservice:notifications"

	// DefaultDedupTTL is how long a published intent id is remembered
	DefaultDedupTTL = 24 * time.Hour

	dedupPrefix = "homeservice:notifications:sent:"
)

// RedisClient is the subset of *redis.Client the publisher needs
type RedisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisPublisher pushes JSON-encoded intents onto a redis list. Each intent
// id is published at most once while its dedup key lives, so outbox retries
// after a lost acknowledgement do not duplicate messages.
type RedisPublisher struct {
	client   RedisClient
	queueKey string
	dedupTTL time.Duration
	logger   *zap.Logger
}

// NewRedisClient parses url and verifies the connection
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// NewRedisPublisher creates a publisher on queueKey
func NewRedisPublisher(client RedisClient, queueKey string, logger *zap.Logger) *RedisPublisher {
	if queueKey == "" {
		queueKey = DefaultQueueKey
	}
	return &RedisPublisher{
		client:   client,
		queueKey: queueKey,
		dedupTTL: DefaultDedupTTL,
		logger:   logger,
	}
}

// Publish implements port.IntentPublisher
func (p *RedisPublisher) Publish(ctx context.Context, intent *event.Intent) error {
	payload, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to encode intent %s: %w", intent.ID, err)
	}

	dedupKey := dedupPrefix + intent.ID
	fresh, err := p.client.SetNX(ctx, dedupKey, 1, p.dedupTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve intent %s: %w", intent.ID, err)
	}
	if !fresh {
		p.logger.Info("Intent already published",
			zap.String("intent_id", intent.ID),
			zap.String("kind", intent.Kind.String()))
		return nil
	}

	if err := p.client.LPush(ctx, p.queueKey, payload).Err(); err != nil {
		if delErr := p.client.Del(ctx, dedupKey).Err(); delErr != nil {
			p.logger.Error("Failed to release intent reservation",
				zap.String("intent_id", intent.ID),
				zap.Error(delErr))
		}
		return fmt.Errorf("failed to push intent %s: %w", intent.ID, err)
	}

	p.logger.Info("Intent published",
		zap.String("intent_id", intent.ID),
		zap.String("kind", intent.Kind.String()),
		zap.String("request_id", intent.RequestID),
		zap.Int64("recipient_id", intent.RecipientID))
	return nil
}

// LogPublisher only logs intents. It is used when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a publisher that writes intents to the log
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish implements port.IntentPublisher
func (p *LogPublisher) Publish(ctx context.Context, intent *event.Intent) error {
	p.logger.Info("Notification intent",
		zap.String("intent_id", intent.ID),
		zap.String("kind", intent.Kind.String()),
		zap.String("request_id", intent.RequestID),
		zap.Int64("recipient_id", intent.RecipientID),
		zap.String("recipient_role", intent.RecipientRole.String()),
		zap.String("correlation_id", intent.CorrelationID),
		zap.Any("data", intent.Data))
	return nil
}

// Verify interface compliance
var (
	_ port.IntentPublisher = (*RedisPublisher)(nil)
	_ port.IntentPublisher = (*LogPublisher)(nil)
)
