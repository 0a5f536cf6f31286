package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/AisleiAvila/HomeService-sub001/internal/application/service"
	"github.com/AisleiAvila/HomeService-sub001/internal/application/workflow"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/entity"
	domainwf "github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
)

// Identity headers set by the upstream gateway
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

const (
	actorIDKey   = "actor_id"
	actorRoleKey = "actor_role"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	engine   workflow.WorkflowEngine
	backfill service.BackfillService
	health   HealthReporter
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	engine workflow.WorkflowEngine,
	backfill service.BackfillService,
	health HealthReporter,
	logger Logger,
) *Handlers {
	return &Handlers{
		engine:   engine,
		backfill: backfill,
		health:   health,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	// Allowed lists the permitted actions when a transition is rejected
	Allowed   []domainwf.Permission `json:"allowed,omitempty"`
	Retryable bool                  `json:"retryable,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Components interface{} `json:"components,omitempty"`
}

// RequestResponse is a request together with what the caller may do next
type RequestResponse struct {
	Request          *entity.ServiceRequest `json:"request"`
	AvailableActions []domainwf.Action      `json:"available_actions"`
}

// CreateRequestBody is the payload of POST /api/requests
type CreateRequestBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Address     string `json:"address"`
}

// AssignBody is the payload of POST /api/requests/:id/assign
type AssignBody struct {
	ProfessionalID int64  `json:"professional_id"`
	Notes          string `json:"notes"`
}

// RespondBody is the payload of POST /api/requests/:id/respond
type RespondBody struct {
	Accepted *bool  `json:"accepted" binding:"required"`
	Reason   string `json:"reason"`
}

// QuoteBody is the payload of POST /api/requests/:id/quote
type QuoteBody struct {
	Amount decimal.Decimal `json:"amount"`
	Notes  string          `json:"notes"`
}

// ProposeDateBody is the payload of POST /api/requests/:id/propose-date
type ProposeDateBody struct {
	ProposedAt               time.Time `json:"proposed_at"`
	EstimatedDurationMinutes *int      `json:"estimated_duration_minutes"`
	Notes                    string    `json:"notes"`
}

// ConfirmDateBody is the payload of POST /api/requests/:id/confirm-date
type ConfirmDateBody struct {
	Approved        *bool  `json:"approved" binding:"required"`
	RejectionReason string `json:"rejection_reason"`
}

// NotesBody is the optional payload of POST /api/requests/:id/finish
type NotesBody struct {
	Notes string `json:"notes"`
}

// PaymentBody is the payload of POST /api/requests/:id/payment
type PaymentBody struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
	Notes  string          `json:"notes"`
}

// CancelBody is the payload of POST /api/requests/:id/cancel
type CancelBody struct {
	Reason string `json:"reason"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	healthy := true
	if h.health != nil {
		healthy, response.Components = h.health(c.Request.Context())
	}

	if !healthy {
		response.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Data: response})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: response})
}

// ListActions handles GET /api/actions?status=&role=
func (h *Handlers) ListActions(c *gin.Context) {
	status := domainwf.Status(c.Query("status"))
	role := domainwf.Role(c.Query("role"))

	if !status.IsValid() || !role.IsValid() {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "status and role must be canonical values",
			Code:    "invalid_payload",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    h.engine.AvailableActions(status, role),
	})
}

// RequireActor resolves the caller from the identity headers
func (h *Handlers) RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.GetHeader(HeaderActorID), 10, 64)
		role := domainwf.Role(c.GetHeader(HeaderActorRole))

		if err != nil || id <= 0 || !role.IsValid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing or invalid actor identity",
				Code:    "unauthenticated",
			})
			return
		}

		c.Set(actorIDKey, id)
		c.Set(actorRoleKey, role)
		c.Next()
	}
}

// CreateRequest handles POST /api/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	actorID, ok := h.requireRole(c, domainwf.RoleRequester)
	if !ok {
		return
	}

	var body CreateRequestBody
	if !h.bind(c, &body) {
		return
	}

	req, err := h.engine.CreateRequest(c.Request.Context(), workflow.CreateCommand{
		RequesterID: actorID,
		Title:       body.Title,
		Description: body.Description,
		Address:     body.Address,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.writeRequest(c, http.StatusCreated, req)
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	req, err := h.engine.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.writeRequest(c, http.StatusOK, req)
}

// Assign handles POST /api/requests/:id/assign
func (h *Handlers) Assign(c *gin.Context) {
	actorID, ok := h.requireRole(c, domainwf.RoleAdministrator)
	if !ok {
		return
	}

	var body AssignBody
	if !h.bind(c, &body) {
		return
	}

	h.respond(c)(h.engine.Assign(c.Request.Context(), workflow.AssignCommand{
		RequestID:      c.Param("id"),
		AdminID:        actorID,
		ProfessionalID: body.ProfessionalID,
		Notes:          body.Notes,
	}))
}

// OpenConfirmation handles POST /api/requests/:id/open-confirmation
func (h *Handlers) OpenConfirmation(c *gin.Context) {
	actorID, ok := h.requireRole(c, domainwf.RoleAdministrator)
	if !ok {
		return
	}

	h.respond(c)(h.engine.OpenConfirmation(c.Request.Context(), c.Param("id"), actorID))
}

// RespondToAssignment handles POST /api/requests/:id/respond
func (h *Handlers) RespondToAssignment(c *gin.Context) {
	actorID, ok := h.requireRole(c, domainwf.RoleProfessional)
	if !ok {
		return
	}

	var body RespondBody
	if !h.bind(c, &body) {
		return
	}

	h.respond(c)(h.engine.RespondToAssignment(c.Request.Context(), workflow.RespondCommand{
		RequestID:      c.Param("id"),
		ProfessionalID: actorID,
		Accepted:       *body.Accepted,
		Reason:         body.Reason,
	}))
}

// SubmitQuote handles POST /api/requests/:id/quote
func (h *Handlers) SubmitQuote(c *gin.Context) {
	actorID, role := actor(c)

	var body QuoteBody
	if !h.bind(c, &body) {
		return
	}

	h.respond(c)(h.engine.SubmitQuote(c.Request.Context(), workflow.QuoteCommand{
		RequestID: c.Param("id"),
		ActorID:   actorID,
		ActorRole: role,
		Amount:    body.Amount,
		Notes:     body.Notes,
	}))
}

// ProposeExecutionDate handles POST /api/requests/:id/propose-date
func (h *Handlers) ProposeExecutionDate(c *gin.Context) {
	actorID, role := actor(c)

	var body ProposeDateBody
	if !h.bind(c, &body) {
		return
	}

	h.respond(c)(h.engine.ProposeExecutionDate(c.Request.Context(), workflow.ProposeDateCommand{
		RequestID:                c.Param("id"),
		ActorID:                  actorID,
		ActorRole:                role,
		ProposedAt:               body.ProposedAt,
		EstimatedDurationMinutes: body.EstimatedDurationMinutes,
		Notes:                    body.Notes,
	}))
}

// ConfirmExecutionDate handles POST /api/requests/:id/confirm-date
func (h *Handlers) ConfirmExecutionDate(c *gin.Context) {
	actorID, ok := h.requireRole(c, domainwf.RoleRequester)
	if !ok {
		return
	}

	var body ConfirmDateBody
	if !h.bind(c, &body) {
		return
	}

	h.respond(c)(h.engine.ConfirmExecutionDate(c.Request.Context(), workflow.ConfirmDateCommand{
		RequestID:       c.Param("id"),
		RequesterID:     actorID,
		Approved:        *body.Approved,
		RejectionReason: body.RejectionReason,
	}))
}

// StartWork handles POST /api/requests/:id/start
func (h *Handlers) StartWork(c *gin.Context) {
	actorID, ok := h.requireRole(c, domainwf.RoleProfessional)
	if !ok {
		return
	}

	h.respond(c)(h.engine.StartWork(c.Request.Context(), c.Param("id"), actorID))
}

// FinishWork handles POST /api/requests/:id/finish
func (h *Handlers) FinishWork(c *gin.Context) {
	actorID, ok := h.requireRole(c, domainwf.RoleProfessional)
	if !ok {
		return
	}

	var body NotesBody
	if !h.bindOptional(c, &body) {
		return
	}

	h.respond(c)(h.engine.FinishWork(c.Request.Context(), c.Param("id"), actorID, body.Notes))
}

// RecordPayment handles POST /api/requests/:id/payment
func (h *Handlers) RecordPayment(c *gin.Context) {
	actorID, ok := h.requireRole(c, domainwf.RoleAdministrator)
	if !ok {
		return
	}

	var body PaymentBody
	if !h.bind(c, &body) {
		return
	}

	h.respond(c)(h.engine.RecordPayment(c.Request.Context(), workflow.PaymentCommand{
		RequestID: c.Param("id"),
		AdminID:   actorID,
		Amount:    body.Amount,
		Method:    body.Method,
		Notes:     body.Notes,
	}))
}

// Finalize handles POST /api/requests/:id/finalize
func (h *Handlers) Finalize(c *gin.Context) {
	actorID, ok := h.requireRole(c, domainwf.RoleAdministrator)
	if !ok {
		return
	}

	h.respond(c)(h.engine.Finalize(c.Request.Context(), c.Param("id"), actorID))
}

// Cancel handles POST /api/requests/:id/cancel
func (h *Handlers) Cancel(c *gin.Context) {
	actorID, role := actor(c)

	var body CancelBody
	if !h.bindOptional(c, &body) {
		return
	}

	h.respond(c)(h.engine.Cancel(c.Request.Context(), workflow.CancelCommand{
		RequestID: c.Param("id"),
		ActorID:   actorID,
		ActorRole: role,
		Reason:    body.Reason,
	}))
}

// StatusReport handles GET /api/admin/status-report
func (h *Handlers) StatusReport(c *gin.Context) {
	if _, ok := h.requireRole(c, domainwf.RoleAdministrator); !ok {
		return
	}
	if !h.requireBackfill(c) {
		return
	}

	report, err := h.backfill.Report(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: report})
}

// StatusBackfill handles POST /api/admin/status-backfill
func (h *Handlers) StatusBackfill(c *gin.Context) {
	if _, ok := h.requireRole(c, domainwf.RoleAdministrator); !ok {
		return
	}
	if !h.requireBackfill(c) {
		return
	}

	result, err := h.backfill.Apply(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// respond writes the outcome of an engine operation
func (h *Handlers) respond(c *gin.Context) func(*entity.ServiceRequest, error) {
	return func(req *entity.ServiceRequest, err error) {
		if err != nil {
			h.writeError(c, err)
			return
		}
		h.writeRequest(c, http.StatusOK, req)
	}
}

func (h *Handlers) writeRequest(c *gin.Context, code int, req *entity.ServiceRequest) {
	_, role := actor(c)
	c.JSON(code, Response{
		Success: true,
		Data: RequestResponse{
			Request:          req,
			AvailableActions: h.engine.AvailableActions(req.Status, role),
		},
	})
}

// writeError maps engine errors to HTTP status codes
func (h *Handlers) writeError(c *gin.Context, err error) {
	resp := Response{
		Success:   false,
		Error:     err.Error(),
		Retryable: domainwf.IsRetryable(err),
	}

	var code int
	switch {
	case errors.Is(err, domainwf.ErrInvalidPayload):
		code, resp.Code = http.StatusBadRequest, "invalid_payload"
	case errors.Is(err, domainwf.ErrNotFound):
		code, resp.Code = http.StatusNotFound, "not_found"
	case errors.Is(err, domainwf.ErrInvalidTransition):
		code, resp.Code = http.StatusConflict, "invalid_transition"
		var ite *domainwf.InvalidTransitionError
		if errors.As(err, &ite) {
			resp.Allowed = ite.Allowed
		}
	case errors.Is(err, domainwf.ErrConcurrentModification):
		code, resp.Code = http.StatusConflict, "concurrent_modification"
	case errors.Is(err, domainwf.ErrTemporalViolation):
		code, resp.Code = http.StatusUnprocessableEntity, "temporal_violation"
	case errors.Is(err, domainwf.ErrPersistenceUnavailable):
		code, resp.Code = http.StatusServiceUnavailable, "persistence_unavailable"
	default:
		code, resp.Code = http.StatusInternalServerError, "internal"
	}

	if code >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			"path", c.Request.URL.Path,
			"request_id", c.Param("id"),
			"error", err,
		)
	}

	c.JSON(code, resp)
}

func (h *Handlers) bind(c *gin.Context, body interface{}) bool {
	if err := c.ShouldBindJSON(body); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body: " + err.Error(),
			Code:    "invalid_payload",
		})
		return false
	}
	return true
}

// bindOptional accepts an empty body
func (h *Handlers) bindOptional(c *gin.Context, body interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return h.bind(c, body)
}

func (h *Handlers) requireRole(c *gin.Context, want domainwf.Role) (int64, bool) {
	actorID, role := actor(c)
	if role != want {
		c.JSON(http.StatusForbidden, Response{
			Success: false,
			Error:   "operation requires role " + want.String(),
			Code:    "forbidden",
		})
		return 0, false
	}
	return actorID, true
}

func (h *Handlers) requireBackfill(c *gin.Context) bool {
	if h.backfill == nil {
		c.JSON(http.StatusNotImplemented, Response{
			Success: false,
			Error:   "status backfill is not configured",
		})
		return false
	}
	return true
}

// actor returns the identity stored by RequireActor
func actor(c *gin.Context) (int64, domainwf.Role) {
	id := c.GetInt64(actorIDKey)
	role, _ := c.Get(actorRoleKey)
	r, _ := role.(domainwf.Role)
	return id, r
}
