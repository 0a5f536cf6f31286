package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/AisleiAvila/HomeService-sub001/internal/application/port"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/entity"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
)

// DefaultRequestsTable is used when no table name is configured
const DefaultRequestsTable = "service_requests"

type historyItem struct {
	Seq              int    `dynamodbav:"seq"`
	Status           string `dynamodbav:"status"`
	Action           string `dynamodbav:"action"`
	ChangedAt        string `dynamodbav:"changed_at"`
	ChangedByActorID int64  `dynamodbav:"changed_by_actor_id"`
	ChangedByRole    string `dynamodbav:"changed_by_role"`
	Notes            string `dynamodbav:"notes,omitempty"`
}

type requestItem struct {
	ID                       string        `dynamodbav:"id"`
	RequesterID              int64         `dynamodbav:"requester_id"`
	AssignedProfessionalID   *int64        `dynamodbav:"assigned_professional_id,omitempty"`
	Title                    string        `dynamodbav:"title"`
	Description              string        `dynamodbav:"description,omitempty"`
	Address                  string        `dynamodbav:"address,omitempty"`
	Status                   string        `dynamodbav:"status"`
	ProposedExecutionAt      string        `dynamodbav:"proposed_execution_at,omitempty"`
	ProposedByActorID        *int64        `dynamodbav:"proposed_by_actor_id,omitempty"`
	ProposedByRole           string        `dynamodbav:"proposed_by_role,omitempty"`
	ProposedDurationMinutes  *int          `dynamodbav:"proposed_duration_minutes,omitempty"`
	ScheduledStartAt         string        `dynamodbav:"scheduled_start_at,omitempty"`
	EstimatedDurationMinutes *int          `dynamodbav:"estimated_duration_minutes,omitempty"`
	ActualStartAt            string        `dynamodbav:"actual_start_at,omitempty"`
	ActualEndAt              string        `dynamodbav:"actual_end_at,omitempty"`
	QuotedAmount             string        `dynamodbav:"quoted_amount,omitempty"`
	PlatformFee              string        `dynamodbav:"platform_fee,omitempty"`
	ProfessionalPayout       string        `dynamodbav:"professional_payout,omitempty"`
	PaidAmount               string        `dynamodbav:"paid_amount,omitempty"`
	PaymentMethod            string        `dynamodbav:"payment_method,omitempty"`
	PaymentStatus            string        `dynamodbav:"payment_status"`
	History                  []historyItem `dynamodbav:"history"`
	Version                  int64         `dynamodbav:"version"`
	CreatedAt                string        `dynamodbav:"created_at"`
	UpdatedAt                string        `dynamodbav:"updated_at"`
}

// RequestStore persists service requests in one DynamoDB table keyed by id.
// The history is stored inside the item, so the status and its entry are
// written by a single conditional put.
type RequestStore struct {
	ddb       API
	tableName string
	logger    *zap.Logger
}

// NewRequestStore creates a DynamoDB-backed request repository
func NewRequestStore(ddb API, tableName string, logger *zap.Logger) *RequestStore {
	if tableName == "" {
		tableName = DefaultRequestsTable
	}
	return &RequestStore{
		ddb:       ddb,
		tableName: tableName,
		logger:    logger,
	}
}

// Create stores a new request at version 1
func (s *RequestStore) Create(ctx context.Context, req *entity.ServiceRequest) (int64, error) {
	av, err := attributevalue.MarshalMap(toRequestItem(req, req.History, 1))
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
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
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return 0, fmt.Errorf("%w: request %s already exists", workflow.ErrPersistenceUnavailable, req.ID)
		}
		s.logger.Error("Failed to create request", zap.String("request_id", req.ID), zap.Error(err))
		return 0, fmt.Errorf("%w: failed to create request: %w", workflow.ErrPersistenceUnavailable, err)
	}

	return 1, nil
}

// Load reads a request with a consistent read
func (s *RequestStore) Load(ctx context.Context, id string) (*entity.ServiceRequest, int64, error) {
	out, err := s.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		s.logger.Error("Failed to load request", zap.String("request_id", id), zap.Error(err))
		return nil, 0, fmt.Errorf("%w: failed to load request: %w", workflow.ErrPersistenceUnavailable, err)
	}
	if len(out.Item) == 0 {
		return nil, 0, fmt.Errorf("%w: %s", workflow.ErrNotFound, id)
	}

	var it requestItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, 0, fmt.Errorf("%w: failed to unmarshal request %s: %w", workflow.ErrPersistenceUnavailable, id, err)
	}

	req, err := fromRequestItem(it)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", workflow.ErrPersistenceUnavailable, err)
	}
	return req, it.Version, nil
}

// Commit overwrites the item if its version still equals expectedVersion
func (s *RequestStore) Commit(ctx context.Context, req *entity.ServiceRequest, expectedVersion int64, entry entity.StatusHistoryEntry) (int64, error) {
	history := req.History
	if last := req.LastEntry(); last == nil || last.Seq != entry.Seq {
		history = append(append([]entity.StatusHistoryEntry(nil), req.History...), entry)
	}

	newVersion := expectedVersion + 1
	av, err := attributevalue.MarshalMap(toRequestItem(req, history, newVersion))
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_exists(#id) AND #version = :expected"),
		ExpressionAttributeNames: map[string]string{
			"#id":      "id",
			"#version": "version",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: fmt.Sprint(expectedVersion)},
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			if len(cfe.Item) == 0 {
				return 0, fmt.Errorf("%w: %s", workflow.ErrNotFound, req.ID)
			}
			return 0, fmt.Errorf("%w: request %s changed since version %d",
				workflow.ErrConcurrentModification, req.ID, expectedVersion)
		}
		s.logger.Error("Failed to commit request", zap.String("request_id", req.ID), zap.Error(err))
		return 0, fmt.Errorf("%w: failed to commit request: %w", workflow.ErrPersistenceUnavailable, err)
	}

	return newVersion, nil
}

// ListStatuses scans the table and pages the result ordered by id
func (s *RequestStore) ListStatuses(ctx context.Context, limit, offset int) ([]port.StoredStatus, error) {
	var all []port.StoredStatus

	paginator := dynamodb.NewScanPaginator(s.ddb, &dynamodb.ScanInput{
		TableName:            aws.String(s.tableName),
		ProjectionExpression: aws.String("#id, #status, #version"),
		ExpressionAttributeNames: map[string]string{
			"#id":      "id",
			"#status":  "status",
			"#version": "version",
		},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			s.logger.Error("Failed to scan statuses", zap.Error(err))
			return nil, fmt.Errorf("%w: failed to scan statuses: %w", workflow.ErrPersistenceUnavailable, err)
		}

		var items []struct {
			ID      string `dynamodbav:"id"`
			Status  string `dynamodbav:"status"`
			Version int64  `dynamodbav:"version"`
		}
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal statuses: %w", err)
		}
		for _, it := range items {
			all = append(all, port.StoredStatus{RequestID: it.ID, Status: it.Status, Version: it.Version})
		}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].RequestID < all[j].RequestID })

	if offset >= len(all) {
		return []port.StoredStatus{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func toRequestItem(req *entity.ServiceRequest, history []entity.StatusHistoryEntry, version int64) requestItem {
	it := requestItem{
		ID:                       req.ID,
		RequesterID:              req.RequesterID,
		AssignedProfessionalID:   req.AssignedProfessionalID,
		Title:                    req.Title,
		Description:              req.Description,
		Address:                  req.Address,
		Status:                   string(req.Status),
		ProposedExecutionAt:      formatTime(req.ProposedExecutionAt),
		ProposedByActorID:        req.ProposedByActorID,
		ProposedByRole:           string(req.ProposedByRole),
		ProposedDurationMinutes:  req.ProposedDurationMinutes,
		ScheduledStartAt:         formatTime(req.ScheduledStartAt),
		EstimatedDurationMinutes: req.EstimatedDurationMinutes,
		ActualStartAt:            formatTime(req.ActualStartAt),
		ActualEndAt:              formatTime(req.ActualEndAt),
		QuotedAmount:             formatDecimal(req.QuotedAmount),
		PlatformFee:              formatDecimal(req.PlatformFee),
		ProfessionalPayout:       formatDecimal(req.ProfessionalPayout),
		PaidAmount:               formatDecimal(req.PaidAmount),
		PaymentMethod:            req.PaymentMethod,
		PaymentStatus:            string(req.PaymentStatus),
		History:                  make([]historyItem, 0, len(history)),
		Version:                  version,
		CreatedAt:                req.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:                req.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	for _, h := range history {
		it.History = append(it.History, historyItem{
			Seq:              h.Seq,
			Status:           string(h.Status),
			Action:           string(h.Action),
			ChangedAt:        h.ChangedAt.UTC().Format(time.RFC3339Nano),
			ChangedByActorID: h.ChangedByActorID,
			ChangedByRole:    string(h.ChangedByRole),
			Notes:            h.Notes,
		})
	}
	return it
}

func fromRequestItem(it requestItem) (*entity.ServiceRequest, error) {
	req := &entity.ServiceRequest{
		ID:                       it.ID,
		RequesterID:              it.RequesterID,
		AssignedProfessionalID:   it.AssignedProfessionalID,
		Title:                    it.Title,
		Description:              it.Description,
		Address:                  it.Address,
		Status:                   workflow.Status(it.Status),
		ProposedByActorID:        it.ProposedByActorID,
		ProposedByRole:           workflow.Role(it.ProposedByRole),
		ProposedDurationMinutes:  it.ProposedDurationMinutes,
		EstimatedDurationMinutes: it.EstimatedDurationMinutes,
		PaymentMethod:            it.PaymentMethod,
		PaymentStatus:            entity.PaymentStatus(it.PaymentStatus),
		History:                  make([]entity.StatusHistoryEntry, 0, len(it.History)),
	}

	var err error
	if req.CreatedAt, err = time.Parse(time.RFC3339Nano, it.CreatedAt); err != nil {
		return nil, fmt.Errorf("invalid created_at on request %s: %w", it.ID, err)
	}
	if req.UpdatedAt, err = time.Parse(time.RFC3339Nano, it.UpdatedAt); err != nil {
		return nil, fmt.Errorf("invalid updated_at on request %s: %w", it.ID, err)
	}

	times := []struct {
		raw string
		dst **time.Time
	}{
		{it.ProposedExecutionAt, &req.ProposedExecutionAt},
		{it.ScheduledStartAt, &req.ScheduledStartAt},
		{it.ActualStartAt, &req.ActualStartAt},
		{it.ActualEndAt, &req.ActualEndAt},
	}
	for _, t := range times {
		if *t.dst, err = parseTime(t.raw); err != nil {
			return nil, fmt.Errorf("invalid timestamp on request %s: %w", it.ID, err)
		}
	}

	amounts := []struct {
		raw string
		dst **decimal.Decimal
	}{
		{it.QuotedAmount, &req.QuotedAmount},
		{it.PlatformFee, &req.PlatformFee},
		{it.ProfessionalPayout, &req.ProfessionalPayout},
		{it.PaidAmount, &req.PaidAmount},
	}
	for _, a := range amounts {
		if *a.dst, err = parseDecimal(a.raw); err != nil {
			return nil, fmt.Errorf("invalid amount on request %s: %w", it.ID, err)
		}
	}

	for _, h := range it.History {
		changedAt, err := time.Parse(time.RFC3339Nano, h.ChangedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid history timestamp on request %s: %w", it.ID, err)
		}
		req.History = append(req.History, entity.StatusHistoryEntry{
			Seq:              h.Seq,
			Status:           workflow.Status(h.Status),
			Action:           workflow.Action(h.Action),
			ChangedAt:        changedAt,
			ChangedByActorID: h.ChangedByActorID,
			ChangedByRole:    workflow.Role(h.ChangedByRole),
			Notes:            h.Notes,
		})
	}

	return req, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDecimal(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}

func parseDecimal(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Verify interface compliance
var _ port.ServiceRequestRepository = (*RequestStore)(nil)
