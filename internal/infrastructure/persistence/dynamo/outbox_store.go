package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/AisleiAvila/HomeService-sub001/internal/application/port"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/entity"
)

// DefaultOutboxTable is used when no outbox table name is configured
const DefaultOutboxTable = "notification_outbox"

type outboxItem struct {
	ID            string `dynamodbav:"id"`
	Kind          string `dynamodbav:"kind"`
	RequestID     string `dynamodbav:"request_id"`
	RecipientID   int64  `dynamodbav:"recipient_id"`
	RecipientRole string `dynamodbav:"recipient_role"`
	Payload       string `dynamodbav:"payload"`
	Status        string `dynamodbav:"status"`
	Attempts      int    `dynamodbav:"attempts"`
	LastError     string `dynamodbav:"last_error,omitempty"`
	SentAt        string `dynamodbav:"sent_at,omitempty"`
	CreatedAt     string `dynamodbav:"created_at"`
	UpdatedAt     string `dynamodbav:"updated_at"`
}

// OutboxStore implements port.NotificationOutbox on DynamoDB
type OutboxStore struct {
	ddb       API
	tableName string
	logger    *zap.Logger
	now       func() time.Time
}

// NewOutboxStore creates a DynamoDB-backed notification outbox
func NewOutboxStore(ddb API, tableName string, logger *zap.Logger) *OutboxStore {
	if tableName == "" {
		tableName = DefaultOutboxTable
	}
	return &OutboxStore{
		ddb:       ddb,
		tableName: tableName,
		logger:    logger,
		now:       time.Now,
	}
}

// Save inserts a notification record
func (s *OutboxStore) Save(ctx context.Context, record *entity.NotificationRecord) error {
	av, err := attributevalue.MarshalMap(toOutboxItem(record))
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		s.logger.Error("Failed to save notification", zap.String("id", record.ID), zap.Error(err))
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// MarkSent marks a notification as delivered
func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	return s.update(ctx, id, func(it *outboxItem, now string) {
		it.Status = entity.NotificationStatusSent
		it.LastError = ""
		it.SentAt = now
	})
}

// MarkFailed records a failed delivery attempt
func (s *OutboxStore) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return s.update(ctx, id, func(it *outboxItem, now string) {
		it.Status = entity.NotificationStatusFailed
		it.LastError = errMsg
	})
}

// update rewrites one record guarded by its attempt counter
func (s *OutboxStore) update(ctx context.Context, id string, mutate func(it *outboxItem, now string)) error {
	out, err := s.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to read notification %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil
	}

	var it outboxItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return fmt.Errorf("failed to unmarshal notification %s: %w", id, err)
	}

	previous := it.Attempts
	now := s.now().UTC().Format(time.RFC3339Nano)
	mutate(&it, now)
	it.Attempts = previous + 1
	it.UpdatedAt = now

	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String("#attempts = :attempts"),
		ExpressionAttributeNames: map[string]string{
			"#attempts": "attempts",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":attempts": &types.AttributeValueMemberN{Value: strconv.Itoa(previous)},
		},
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			s.logger.Info("Notification updated concurrently", zap.String("id", id))
			return nil
		}
		s.logger.Error("Failed to update notification", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to update notification %s: %w", id, err)
	}
	return nil
}

// ListRetryable returns undelivered notifications, oldest first
func (s *OutboxStore) ListRetryable(ctx context.Context, maxAttempts, limit int) ([]*entity.NotificationRecord, error) {
	var items []outboxItem

	paginator := dynamodb.NewScanPaginator(s.ddb, &dynamodb.ScanInput{
		TableName:        aws.String(s.tableName),
		FilterExpression: aws.String("#status <> :sent AND #attempts < :max"),
		ExpressionAttributeNames: map[string]string{
			"#status":   "status",
			"#attempts": "attempts",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sent": &types.AttributeValueMemberS{Value: entity.NotificationStatusSent},
			":max":  &types.AttributeValueMemberN{Value: strconv.Itoa(maxAttempts)},
		},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			s.logger.Error("Failed to scan notifications", zap.Error(err))
			return nil, fmt.Errorf("failed to scan notifications: %w", err)
		}

		var pageItems []outboxItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notifications: %w", err)
		}
		items = append(items, pageItems...)
	}

	records := make([]*entity.NotificationRecord, 0, len(items))
	for _, it := range items {
		records = append(records, fromOutboxItem(it))
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func toOutboxItem(r *entity.NotificationRecord) outboxItem {
	return outboxItem{
		ID:            r.ID,
		Kind:          r.Kind,
		RequestID:     r.RequestID,
		RecipientID:   r.RecipientID,
		RecipientRole: r.RecipientRole,
		Payload:       r.Payload,
		Status:        r.Status,
		Attempts:      r.Attempts,
		LastError:     r.LastError,
		SentAt:        formatTime(r.SentAt),
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     r.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func fromOutboxItem(it outboxItem) *entity.NotificationRecord {
	createdAt, _ := time.Parse(time.RFC3339Nano, it.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, it.UpdatedAt)
	sentAt, _ := parseTime(it.SentAt)
	return &entity.NotificationRecord{
		ID:            it.ID,
		Kind:          it.Kind,
		RequestID:     it.RequestID,
		RecipientID:   it.RecipientID,
		RecipientRole: it.RecipientRole,
		Payload:       it.Payload,
		Status:        it.Status,
		Attempts:      it.Attempts,
		LastError:     it.LastError,
		SentAt:        sentAt,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
}

// Verify interface compliance
var _ port.NotificationOutbox = (*OutboxStore)(nil)
