package workflow

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AisleiAvila/HomeService-sub001/internal/domain/entity"
	domainwf "github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
)

// WorkflowEngine is the only component that mutates status and history of a
// service request. Every successful operation appends exactly one history
// entry and commits it conditioned on the version that was loaded.
type WorkflowEngine interface {
	// CreateRequest stores a new request in status Requested
	CreateRequest(ctx context.Context, cmd CreateCommand) (*entity.ServiceRequest, error)

	// Assign sets the professional and moves the request to Assigned
	Assign(ctx context.Context, cmd AssignCommand) (*entity.ServiceRequest, error)

	// OpenConfirmation moves an assigned request to AwaitingProfessionalConfirmation
	OpenConfirmation(ctx context.Context, requestID string, actorID int64) (*entity.ServiceRequest, error)

	// RespondToAssignment records the assigned professional's answer
	RespondToAssignment(ctx context.Context, cmd RespondCommand) (*entity.ServiceRequest, error)

	// SubmitQuote records the quoted amount without changing status
	SubmitQuote(ctx context.Context, cmd QuoteCommand) (*entity.ServiceRequest, error)

	// ProposeExecutionDate opens or replaces the pending date proposal
	ProposeExecutionDate(ctx context.Context, cmd ProposeDateCommand) (*entity.ServiceRequest, error)

	// ConfirmExecutionDate approves or rejects the pending proposal
	ConfirmExecutionDate(ctx context.Context, cmd ConfirmDateCommand) (*entity.ServiceRequest, error)

	// StartWork moves a scheduled request to InProgress, never before the scheduled time
	StartWork(ctx context.Context, requestID string, professionalID int64) (*entity.ServiceRequest, error)

	// FinishWork moves a request in progress to AwaitingCompletion
	FinishWork(ctx context.Context, requestID string, professionalID int64, notes string) (*entity.ServiceRequest, error)

	// RecordPayment computes the fee split and moves the request to PaymentMade
	RecordPayment(ctx context.Context, cmd PaymentCommand) (*entity.ServiceRequest, error)

	// Finalize completes a paid request
	Finalize(ctx context.Context, requestID string, adminID int64) (*entity.ServiceRequest, error)

	// Cancel moves a request to Cancelled
	Cancel(ctx context.Context, cmd CancelCommand) (*entity.ServiceRequest, error)

	// GetRequest loads a request with its status migrated to the canonical vocabulary
	GetRequest(ctx context.Context, id string) (*entity.ServiceRequest, error)

	// AvailableActions lists what role may do in status
	AvailableActions(status domainwf.Status, role domainwf.Role) []domainwf.Action

	// CanTransition reports whether role may move a request from current to target
	CanTransition(current, target domainwf.Status, role domainwf.Role) bool
}

// CreateCommand carries the payload of CreateRequest
type CreateCommand struct {
	RequesterID int64  `json:"requester_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Address     string `json:"address"`
}

// AssignCommand carries the payload of Assign
type AssignCommand struct {
	RequestID      string `json:"request_id"`
	AdminID        int64  `json:"admin_id"`
	ProfessionalID int64  `json:"professional_id"`
	Notes          string `json:"notes"`
}

// RespondCommand carries the payload of RespondToAssignment
type RespondCommand struct {
	RequestID      string `json:"request_id"`
	ProfessionalID int64  `json:"professional_id"`
	Accepted       bool   `json:"accepted"`
	Reason         string `json:"reason"`
}

// QuoteCommand carries the payload of SubmitQuote
type QuoteCommand struct {
	RequestID string          `json:"request_id"`
	ActorID   int64           `json:"actor_id"`
	ActorRole domainwf.Role   `json:"actor_role"`
	Amount    decimal.Decimal `json:"amount"`
	Notes     string          `json:"notes"`
}

// ProposeDateCommand carries the payload of ProposeExecutionDate
type ProposeDateCommand struct {
	RequestID                string        `json:"request_id"`
	ActorID                  int64         `json:"actor_id"`
	ActorRole                domainwf.Role `json:"actor_role"`
	ProposedAt               time.Time     `json:"proposed_at"`
	EstimatedDurationMinutes *int          `json:"estimated_duration_minutes"`
	Notes                    string        `json:"notes"`
}

// ConfirmDateCommand carries the payload of ConfirmExecutionDate
type ConfirmDateCommand struct {
	RequestID       string `json:"request_id"`
	RequesterID     int64  `json:"requester_id"`
	Approved        bool   `json:"approved"`
	RejectionReason string `json:"rejection_reason"`
}

// PaymentCommand carries the payload of RecordPayment
type PaymentCommand struct {
	RequestID string          `json:"request_id"`
	AdminID   int64           `json:"admin_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Notes     string          `json:"notes"`
}

// CancelCommand carries the payload of Cancel
type CancelCommand struct {
	RequestID string        `json:"request_id"`
	ActorID   int64         `json:"actor_id"`
	ActorRole domainwf.Role `json:"actor_role"`
	Reason    string        `json:"reason"`
}
