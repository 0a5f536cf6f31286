package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AisleiAvila/HomeService-sub001/internal/application/port"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/entity"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/event"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/fee"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/migration"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/scheduling"
	domainwf "github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
)

const (
	DefaultOperationTimeout = 5 * time.Second
	DefaultNotifyTimeout    = 2 * time.Second
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// engineImpl is the concrete implementation of WorkflowEngine
type engineImpl struct {
	repo     port.ServiceRequestRepository
	policy   domainwf.Policy
	migrator *migration.Migrator
	fees     *fee.Calculator
	notifier port.Notifier
	logger   Logger
	now      func() time.Time

	operationTimeout time.Duration
	notifyTimeout    time.Duration
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithNotifier sets the collaborator that receives notification intents
func WithNotifier(n port.Notifier) EngineOption {
	return func(e *engineImpl) {
		e.notifier = n
	}
}

// WithLogger sets a logger for the engine
func WithLogger(logger Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = logger
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// WithPolicy replaces the service request policy
func WithPolicy(p domainwf.Policy) EngineOption {
	return func(e *engineImpl) {
		e.policy = p
	}
}

// WithMigrator sets the migrator applied to stored statuses
func WithMigrator(m *migration.Migrator) EngineOption {
	return func(e *engineImpl) {
		e.migrator = m
	}
}

// WithFeeCalculator sets the calculator used by RecordPayment
func WithFeeCalculator(c *fee.Calculator) EngineOption {
	return func(e *engineImpl) {
		e.fees = c
	}
}

// WithOperationTimeout bounds each load and commit
func WithOperationTimeout(d time.Duration) EngineOption {
	return func(e *engineImpl) {
		e.operationTimeout = d
	}
}

// WithNotifyTimeout bounds the notification hand-off
func WithNotifyTimeout(d time.Duration) EngineOption {
	return func(e *engineImpl) {
		e.notifyTimeout = d
	}
}

// NewEngine creates a new workflow engine
func NewEngine(repo port.ServiceRequestRepository, opts ...EngineOption) WorkflowEngine {
	e := &engineImpl{
		repo:             repo,
		policy:           BuildServiceRequestPolicy(),
		migrator:         migration.NewMigrator(),
		fees:             &fee.Calculator{Rate: fee.DefaultRate},
		now:              time.Now,
		operationTimeout: DefaultOperationTimeout,
		notifyTimeout:    DefaultNotifyTimeout,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// notice is a notification to emit once a transition is committed
type notice struct {
	kind        event.Kind
	recipientID int64
	role        domainwf.Role
	data        map[string]interface{}
}

// transition describes one engine operation on an existing request
type transition struct {
	requestID string
	actorID   int64
	role      domainwf.Role
	action    domainwf.Action
	notes     string

	// authorize returns a denial reason when the actor may not act on req
	authorize func(req *entity.ServiceRequest) string

	// apply mutates a copy of the request after the policy allowed the action
	apply func(req *entity.ServiceRequest, now time.Time) error

	// notices lists notifications for the committed request
	notices func(req *entity.ServiceRequest) []notice
}

// CreateRequest stores a new request in status Requested
func (e *engineImpl) CreateRequest(ctx context.Context, cmd CreateCommand) (*entity.ServiceRequest, error) {
	if cmd.RequesterID <= 0 {
		return nil, domainwf.NewPayloadError("requester_id", "is required")
	}
	if strings.TrimSpace(cmd.Title) == "" {
		return nil, domainwf.NewPayloadError("title", "is required")
	}

	opCtx, cancel := e.operationContext(ctx)
	defer cancel()

	now := e.now().UTC()
	entry := entity.StatusHistoryEntry{
		Seq:              1,
		Status:           domainwf.StatusRequested,
		Action:           domainwf.ActionCreate,
		ChangedAt:        now,
		ChangedByActorID: cmd.RequesterID,
		ChangedByRole:    domainwf.RoleRequester,
	}
	req := &entity.ServiceRequest{
		ID:            uuid.NewString(),
		RequesterID:   cmd.RequesterID,
		Title:         strings.TrimSpace(cmd.Title),
		Description:   cmd.Description,
		Address:       cmd.Address,
		Status:        domainwf.StatusRequested,
		History:       []entity.StatusHistoryEntry{entry},
		PaymentStatus: entity.PaymentStatusUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	version, err := e.repo.Create(opCtx, req)
	if err != nil {
		return nil, persistenceError("create", req.ID, err)
	}

	e.logInfo("Service request created",
		"request_id", req.ID,
		"requester_id", req.RequesterID,
		"version", version,
	)

	return req, nil
}

// Assign sets the professional and moves the request to Assigned
func (e *engineImpl) Assign(ctx context.Context, cmd AssignCommand) (*entity.ServiceRequest, error) {
	if cmd.ProfessionalID <= 0 {
		return nil, domainwf.NewPayloadError("professional_id", "is required")
	}

	return e.execute(ctx, transition{
		requestID: cmd.RequestID,
		actorID:   cmd.AdminID,
		role:      domainwf.RoleAdministrator,
		action:    domainwf.ActionAssign,
		notes:     cmd.Notes,
		apply: func(req *entity.ServiceRequest, _ time.Time) error {
			professionalID := cmd.ProfessionalID
			req.AssignedProfessionalID = &professionalID
			return nil
		},
		notices: func(req *entity.ServiceRequest) []notice {
			return []notice{{
				kind:        event.KindProfessionalAssigned,
				recipientID: cmd.ProfessionalID,
				role:        domainwf.RoleProfessional,
				data:        map[string]interface{}{"assigned_by": cmd.AdminID, "title": req.Title},
			}}
		},
	})
}

// OpenConfirmation moves an assigned request to AwaitingProfessionalConfirmation
func (e *engineImpl) OpenConfirmation(ctx context.Context, requestID string, actorID int64) (*entity.ServiceRequest, error) {
	return e.execute(ctx, transition{
		requestID: requestID,
		actorID:   actorID,
		role:      domainwf.RoleAdministrator,
		action:    domainwf.ActionOpenConfirmation,
	})
}

// RespondToAssignment records the assigned professional's answer
func (e *engineImpl) RespondToAssignment(ctx context.Context, cmd RespondCommand) (*entity.ServiceRequest, error) {
	action := domainwf.ActionAccept
	kind := event.KindAssignmentAccepted
	if !cmd.Accepted {
		action = domainwf.ActionDecline
		kind = event.KindAssignmentDeclined
	}

	return e.execute(ctx, transition{
		requestID: cmd.RequestID,
		actorID:   cmd.ProfessionalID,
		role:      domainwf.RoleProfessional,
		action:    action,
		notes:     cmd.Reason,
		authorize: requireAssignee(cmd.ProfessionalID),
		apply: func(req *entity.ServiceRequest, _ time.Time) error {
			if !cmd.Accepted {
				req.AssignedProfessionalID = nil
			}
			return nil
		},
		notices: func(req *entity.ServiceRequest) []notice {
			data := map[string]interface{}{"professional_id": cmd.ProfessionalID}
			if cmd.Reason != "" {
				data["reason"] = cmd.Reason
			}
			notices := administratorNotices(req, kind, data)
			if cmd.Accepted {
				notices = append(notices, notice{kind: kind, recipientID: req.RequesterID, role: domainwf.RoleRequester, data: data})
			}
			return notices
		},
	})
}

// SubmitQuote records the quoted amount without changing status
func (e *engineImpl) SubmitQuote(ctx context.Context, cmd QuoteCommand) (*entity.ServiceRequest, error) {
	if err := fee.ValidateAmount("amount", cmd.Amount); err != nil {
		return nil, err
	}

	return e.execute(ctx, transition{
		requestID: cmd.RequestID,
		actorID:   cmd.ActorID,
		role:      cmd.ActorRole,
		action:    domainwf.ActionSubmitQuote,
		notes:     cmd.Notes,
		authorize: requireAssigneeIfProfessional(cmd.ActorRole, cmd.ActorID),
		apply: func(req *entity.ServiceRequest, _ time.Time) error {
			if req.PaymentStatus == entity.PaymentStatusPaid {
				return domainwf.NewPayloadError("amount", "quote cannot change after payment")
			}
			amount := cmd.Amount.Round(fee.CurrencyPlaces)
			req.QuotedAmount = &amount
			return nil
		},
		notices: func(req *entity.ServiceRequest) []notice {
			return []notice{{
				kind:        event.KindQuoteSubmitted,
				recipientID: req.RequesterID,
				role:        domainwf.RoleRequester,
				data:        map[string]interface{}{"amount": req.QuotedAmount.StringFixed(fee.CurrencyPlaces)},
			}}
		},
	})
}

// ProposeExecutionDate opens or replaces the pending date proposal
func (e *engineImpl) ProposeExecutionDate(ctx context.Context, cmd ProposeDateCommand) (*entity.ServiceRequest, error) {
	return e.execute(ctx, transition{
		requestID: cmd.RequestID,
		actorID:   cmd.ActorID,
		role:      cmd.ActorRole,
		action:    domainwf.ActionProposeDate,
		notes:     cmd.Notes,
		authorize: requireAssigneeIfProfessional(cmd.ActorRole, cmd.ActorID),
		apply: func(req *entity.ServiceRequest, now time.Time) error {
			return scheduling.Propose(req, scheduling.Proposal{
				At:              cmd.ProposedAt,
				DurationMinutes: cmd.EstimatedDurationMinutes,
				ActorID:         cmd.ActorID,
				Role:            cmd.ActorRole,
			}, now)
		},
		notices: func(req *entity.ServiceRequest) []notice {
			return []notice{{
				kind:        event.KindExecutionDateProposed,
				recipientID: req.RequesterID,
				role:        domainwf.RoleRequester,
				data:        map[string]interface{}{"proposed_at": req.ProposedExecutionAt.Format(time.RFC3339)},
			}}
		},
	})
}

// ConfirmExecutionDate approves or rejects the pending proposal
func (e *engineImpl) ConfirmExecutionDate(ctx context.Context, cmd ConfirmDateCommand) (*entity.ServiceRequest, error) {
	action := domainwf.ActionApproveDate
	kind := event.KindExecutionDateApproved
	if !cmd.Approved {
		action = domainwf.ActionRejectDate
		kind = event.KindExecutionDateRejected
	}

	// the proposal is cleared by apply, so its author is captured for notices
	var proposer notice

	return e.execute(ctx, transition{
		requestID: cmd.RequestID,
		actorID:   cmd.RequesterID,
		role:      domainwf.RoleRequester,
		action:    action,
		notes:     cmd.RejectionReason,
		authorize: requireRequester(cmd.RequesterID),
		apply: func(req *entity.ServiceRequest, _ time.Time) error {
			if scheduling.State(req) != scheduling.Proposed {
				return scheduling.ErrNoPendingProposal
			}
			if req.ProposedByActorID != nil {
				proposer = notice{kind: kind, recipientID: *req.ProposedByActorID, role: req.ProposedByRole}
			}

			if !cmd.Approved {
				return scheduling.Reject(req)
			}
			_, err := scheduling.Approve(req)
			return err
		},
		notices: func(req *entity.ServiceRequest) []notice {
			if proposer.recipientID == 0 {
				return nil
			}
			proposer.data = map[string]interface{}{}
			if cmd.Approved {
				proposer.data["scheduled_start_at"] = req.ScheduledStartAt.Format(time.RFC3339)
			} else if cmd.RejectionReason != "" {
				proposer.data["reason"] = cmd.RejectionReason
			}
			return []notice{proposer}
		},
	})
}

// StartWork moves a scheduled request to InProgress, never before the scheduled time
func (e *engineImpl) StartWork(ctx context.Context, requestID string, professionalID int64) (*entity.ServiceRequest, error) {
	return e.execute(ctx, transition{
		requestID: requestID,
		actorID:   professionalID,
		role:      domainwf.RoleProfessional,
		action:    domainwf.ActionStartWork,
		authorize: requireAssignee(professionalID),
		apply: func(req *entity.ServiceRequest, now time.Time) error {
			if req.ScheduledStartAt == nil {
				return domainwf.NewPayloadError("scheduled_start_at", "is not set")
			}
			if now.Before(*req.ScheduledStartAt) {
				return &domainwf.TemporalError{Action: domainwf.ActionStartWork, Now: now, NotBefore: *req.ScheduledStartAt}
			}
			started := now
			req.ActualStartAt = &started
			return nil
		},
		notices: func(req *entity.ServiceRequest) []notice {
			return []notice{{
				kind:        event.KindWorkStarted,
				recipientID: req.RequesterID,
				role:        domainwf.RoleRequester,
				data:        map[string]interface{}{"actual_start_at": req.ActualStartAt.Format(time.RFC3339)},
			}}
		},
	})
}

// FinishWork moves a request in progress to AwaitingCompletion
func (e *engineImpl) FinishWork(ctx context.Context, requestID string, professionalID int64, notes string) (*entity.ServiceRequest, error) {
	return e.execute(ctx, transition{
		requestID: requestID,
		actorID:   professionalID,
		role:      domainwf.RoleProfessional,
		action:    domainwf.ActionFinishWork,
		notes:     notes,
		authorize: requireAssignee(professionalID),
		apply: func(req *entity.ServiceRequest, now time.Time) error {
			if req.ActualStartAt == nil {
				return domainwf.NewPayloadError("actual_start_at", "is not set")
			}
			if now.Before(*req.ActualStartAt) {
				return &domainwf.TemporalError{Action: domainwf.ActionFinishWork, Now: now, NotBefore: *req.ActualStartAt}
			}
			ended := now
			req.ActualEndAt = &ended
			return nil
		},
		notices: func(req *entity.ServiceRequest) []notice {
			data := map[string]interface{}{"actual_end_at": req.ActualEndAt.Format(time.RFC3339)}
			notices := []notice{{kind: event.KindWorkFinished, recipientID: req.RequesterID, role: domainwf.RoleRequester, data: data}}
			return append(notices, administratorNotices(req, event.KindWorkFinished, data)...)
		},
	})
}

// RecordPayment computes the fee split and moves the request to PaymentMade
func (e *engineImpl) RecordPayment(ctx context.Context, cmd PaymentCommand) (*entity.ServiceRequest, error) {
	if strings.TrimSpace(cmd.Method) == "" {
		return nil, domainwf.NewPayloadError("method", "is required")
	}
	if err := fee.ValidateAmount("amount", cmd.Amount); err != nil {
		return nil, err
	}

	return e.execute(ctx, transition{
		requestID: cmd.RequestID,
		actorID:   cmd.AdminID,
		role:      domainwf.RoleAdministrator,
		action:    domainwf.ActionRecordPayment,
		notes:     cmd.Notes,
		apply: func(req *entity.ServiceRequest, _ time.Time) error {
			if req.QuotedAmount == nil {
				return domainwf.NewPayloadError("quoted_amount", "must be set before payment")
			}
			if !cmd.Amount.Equal(*req.QuotedAmount) {
				return domainwf.NewPayloadError("amount", fmt.Sprintf("must equal the quoted amount %s", req.QuotedAmount.StringFixed(fee.CurrencyPlaces)))
			}

			platformFee, payout, err := e.fees.Compute(*req.QuotedAmount)
			if err != nil {
				return err
			}

			paid := cmd.Amount
			req.PlatformFee = &platformFee
			req.ProfessionalPayout = &payout
			req.PaidAmount = &paid
			req.PaymentMethod = strings.TrimSpace(cmd.Method)
			req.PaymentStatus = entity.PaymentStatusPaid
			return nil
		},
		notices: func(req *entity.ServiceRequest) []notice {
			notices := []notice{{
				kind:        event.KindPaymentRecorded,
				recipientID: req.RequesterID,
				role:        domainwf.RoleRequester,
				data:        map[string]interface{}{"amount": req.PaidAmount.StringFixed(fee.CurrencyPlaces)},
			}}
			if req.AssignedProfessionalID != nil {
				notices = append(notices, notice{
					kind:        event.KindPaymentRecorded,
					recipientID: *req.AssignedProfessionalID,
					role:        domainwf.RoleProfessional,
					data:        map[string]interface{}{"payout": req.ProfessionalPayout.StringFixed(fee.CurrencyPlaces)},
				})
			}
			return notices
		},
	})
}

// Finalize completes a paid request
func (e *engineImpl) Finalize(ctx context.Context, requestID string, adminID int64) (*entity.ServiceRequest, error) {
	return e.execute(ctx, transition{
		requestID: requestID,
		actorID:   adminID,
		role:      domainwf.RoleAdministrator,
		action:    domainwf.ActionFinalize,
		notices: func(req *entity.ServiceRequest) []notice {
			return partyNotices(req, event.KindRequestCompleted, adminID, nil)
		},
	})
}

// Cancel moves a request to Cancelled
func (e *engineImpl) Cancel(ctx context.Context, cmd CancelCommand) (*entity.ServiceRequest, error) {
	if strings.TrimSpace(cmd.Reason) == "" {
		return nil, domainwf.NewPayloadError("reason", "is required")
	}

	return e.execute(ctx, transition{
		requestID: cmd.RequestID,
		actorID:   cmd.ActorID,
		role:      cmd.ActorRole,
		action:    domainwf.ActionCancel,
		notes:     cmd.Reason,
		authorize: func(req *entity.ServiceRequest) string {
			switch cmd.ActorRole {
			case domainwf.RoleRequester:
				return requireRequester(cmd.ActorID)(req)
			case domainwf.RoleProfessional:
				return requireAssignee(cmd.ActorID)(req)
			}
			return ""
		},
		notices: func(req *entity.ServiceRequest) []notice {
			data := map[string]interface{}{"reason": cmd.Reason, "cancelled_by_role": cmd.ActorRole.String()}
			notices := partyNotices(req, event.KindRequestCancelled, cmd.ActorID, data)
			if cmd.ActorRole != domainwf.RoleAdministrator {
				notices = append(notices, administratorNotices(req, event.KindRequestCancelled, data)...)
			}
			return notices
		},
	})
}

// GetRequest loads a request with its status migrated to the canonical vocabulary
func (e *engineImpl) GetRequest(ctx context.Context, id string) (*entity.ServiceRequest, error) {
	opCtx, cancel := e.operationContext(ctx)
	defer cancel()

	req, _, err := e.repo.Load(opCtx, id)
	if err != nil {
		return nil, persistenceError("load", id, err)
	}

	req.Status = e.migrator.Migrate(string(req.Status))
	return req, nil
}

// AvailableActions lists what role may do in status
func (e *engineImpl) AvailableActions(status domainwf.Status, role domainwf.Role) []domainwf.Action {
	return e.policy.AvailableActions(status, role)
}

// CanTransition reports whether role may move a request from current to target
func (e *engineImpl) CanTransition(current, target domainwf.Status, role domainwf.Role) bool {
	return e.policy.CanTransition(current, target, role)
}

// execute loads the request, resolves the action against the policy, applies
// the mutation to a copy and commits it with one new history entry. Nothing
// is committed when any step fails.
func (e *engineImpl) execute(ctx context.Context, t transition) (*entity.ServiceRequest, error) {
	if t.requestID == "" {
		return nil, domainwf.NewPayloadError("request_id", "is required")
	}
	if !t.role.IsValid() {
		return nil, domainwf.NewPayloadError("actor_role", fmt.Sprintf("unknown role %q", t.role))
	}

	opCtx, cancel := e.operationContext(ctx)
	defer cancel()

	current, version, err := e.repo.Load(opCtx, t.requestID)
	if err != nil {
		return nil, persistenceError("load", t.requestID, err)
	}

	status := e.migrator.Migrate(string(current.Status))
	target, err := e.policy.Resolve(status, t.role, t.action)
	if err != nil {
		return nil, err
	}

	if t.authorize != nil {
		if reason := t.authorize(current); reason != "" {
			return nil, &domainwf.InvalidTransitionError{
				Current: status,
				Role:    t.role,
				Action:  t.action,
				Reason:  reason,
				Allowed: e.policy.Permissions(status, t.role),
			}
		}
	}

	now := e.now().UTC()
	next := current.Clone()
	next.Status = status
	if t.apply != nil {
		if err := t.apply(next, now); err != nil {
			return nil, err
		}
	}

	entry := entity.StatusHistoryEntry{
		Seq:              len(next.History) + 1,
		Status:           target,
		Action:           t.action,
		ChangedAt:        now,
		ChangedByActorID: t.actorID,
		ChangedByRole:    t.role,
		Notes:            t.notes,
	}
	next.Status = target
	next.History = append(next.History, entry)
	next.UpdatedAt = now

	newVersion, err := e.repo.Commit(opCtx, next, version, entry)
	if err != nil {
		return nil, persistenceError("commit", t.requestID, err)
	}

	e.logInfo("Transition committed",
		"request_id", next.ID,
		"action", t.action.String(),
		"from", status.String(),
		"to", target.String(),
		"actor_id", t.actorID,
		"actor_role", t.role.String(),
		"version", newVersion,
	)

	if t.notices != nil {
		e.notify(ctx, next, t.action, t.notices(next))
	}

	return next, nil
}

// notify hands intents to the notifier. Failures are logged and never undo
// the committed transition.
func (e *engineImpl) notify(ctx context.Context, req *entity.ServiceRequest, action domainwf.Action, notices []notice) {
	if e.notifier == nil || len(notices) == 0 {
		return
	}

	baseCtx := context.WithoutCancel(ctx)
	correlationID := uuid.NewString()
	for _, n := range notices {
		data := make(map[string]interface{}, len(n.data)+2)
		for k, v := range n.data {
			data[k] = v
		}
		data["status"] = req.Status.String()
		data["action"] = action.String()

		intent := event.NewIntentWithCorrelation(n.kind, req.ID, n.recipientID, n.role, data, correlationID)
		if err := e.notifyOne(baseCtx, intent); err != nil {
			e.logError("Failed to hand off notification",
				"request_id", req.ID,
				"kind", n.kind.String(),
				"recipient_id", n.recipientID,
				"error", err,
			)
		}
	}
}

// notifyOne bounds each hand-off by its own timeout
func (e *engineImpl) notifyOne(ctx context.Context, intent *event.Intent) error {
	notifyCtx, cancel := context.WithTimeout(ctx, e.notifyTimeout)
	defer cancel()
	return e.notifier.Notify(notifyCtx, intent)
}

func (e *engineImpl) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.operationTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.operationTimeout)
}

func (e *engineImpl) logInfo(msg string, keysAndValues ...interface{}) {
	if e.logger != nil {
		e.logger.Info(msg, keysAndValues...)
	}
}

func (e *engineImpl) logError(msg string, keysAndValues ...interface{}) {
	if e.logger != nil {
		e.logger.Error(msg, keysAndValues...)
	}
}

// persistenceError keeps the typed persistence failures and classifies any
// other repository error, timeouts included, as PersistenceUnavailable.
func persistenceError(op, id string, err error) error {
	if errors.Is(err, domainwf.ErrNotFound) ||
		errors.Is(err, domainwf.ErrConcurrentModification) ||
		errors.Is(err, domainwf.ErrPersistenceUnavailable) {
		return fmt.Errorf("failed to %s request %s: %w", op, id, err)
	}
	return fmt.Errorf("failed to %s request %s: %w: %w", op, id, domainwf.ErrPersistenceUnavailable, err)
}

func requireAssignee(actorID int64) func(req *entity.ServiceRequest) string {
	return func(req *entity.ServiceRequest) string {
		if !req.IsAssignee(actorID) {
			return fmt.Sprintf("actor %d is not the assigned professional", actorID)
		}
		return ""
	}
}

func requireAssigneeIfProfessional(role domainwf.Role, actorID int64) func(req *entity.ServiceRequest) string {
	return func(req *entity.ServiceRequest) string {
		if role != domainwf.RoleProfessional {
			return ""
		}
		return requireAssignee(actorID)(req)
	}
}

func requireRequester(actorID int64) func(req *entity.ServiceRequest) string {
	return func(req *entity.ServiceRequest) string {
		if req.RequesterID != actorID {
			return fmt.Sprintf("actor %d is not the requester", actorID)
		}
		return ""
	}
}

// administratorNotices addresses the administrator who last acted on req
func administratorNotices(req *entity.ServiceRequest, kind event.Kind, data map[string]interface{}) []notice {
	adminID, ok := req.LastActorWithRole(domainwf.RoleAdministrator)
	if !ok {
		return nil
	}
	return []notice{{kind: kind, recipientID: adminID, role: domainwf.RoleAdministrator, data: data}}
}

// partyNotices addresses the requester and the assigned professional, skipping the actor
func partyNotices(req *entity.ServiceRequest, kind event.Kind, actorID int64, data map[string]interface{}) []notice {
	var notices []notice
	if req.RequesterID != actorID {
		notices = append(notices, notice{kind: kind, recipientID: req.RequesterID, role: domainwf.RoleRequester, data: data})
	}
	if req.AssignedProfessionalID != nil && *req.AssignedProfessionalID != actorID {
		notices = append(notices, notice{kind: kind, recipientID: *req.AssignedProfessionalID, role: domainwf.RoleProfessional, data: data})
	}
	return notices
}
