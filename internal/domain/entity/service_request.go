package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
)

// ServiceRequest is a unit of work moving between a requester, an
// administrator and an assigned professional.
type ServiceRequest struct {
	ID                     string `json:"id"`
	RequesterID            int64  `json:"requester_id"`
	AssignedProfessionalID *int64 `json:"assigned_professional_id,omitempty"`
	Title                  string `json:"title"`
	Description            string `json:"description,omitempty"`
	Address                string `json:"address,omitempty"`

	Status  workflow.Status      `json:"status"`
	History []StatusHistoryEntry `json:"history"`

	// Scheduling sub-flow: a non-nil ProposedExecutionAt means a proposal is pending
	ProposedExecutionAt      *time.Time    `json:"proposed_execution_at,omitempty"`
	ProposedByActorID        *int64        `json:"proposed_by_actor_id,omitempty"`
	ProposedByRole           workflow.Role `json:"proposed_by_role,omitempty"`
	ProposedDurationMinutes  *int          `json:"proposed_duration_minutes,omitempty"`
	ScheduledStartAt         *time.Time    `json:"scheduled_start_at,omitempty"`
	EstimatedDurationMinutes *int          `json:"estimated_duration_minutes,omitempty"`
	ActualStartAt            *time.Time    `json:"actual_start_at,omitempty"`
	ActualEndAt              *time.Time    `json:"actual_end_at,omitempty"`

	QuotedAmount       *decimal.Decimal `json:"quoted_amount,omitempty"`
	PlatformFee        *decimal.Decimal `json:"platform_fee,omitempty"`
	ProfessionalPayout *decimal.Decimal `json:"professional_payout,omitempty"`
	PaidAmount         *decimal.Decimal `json:"paid_amount,omitempty"`
	PaymentMethod      string           `json:"payment_method,omitempty"`
	PaymentStatus      PaymentStatus    `json:"payment_status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAssignee reports whether actorID is the currently assigned professional
func (r *ServiceRequest) IsAssignee(actorID int64) bool {
	return r.AssignedProfessionalID != nil && *r.AssignedProfessionalID == actorID
}

// LastEntry returns the most recent history entry, or nil for an empty history
func (r *ServiceRequest) LastEntry() *StatusHistoryEntry {
	if len(r.History) == 0 {
		return nil
	}
	return &r.History[len(r.History)-1]
}

// LastActorWithRole returns the most recent actor that acted with the given role
func (r *ServiceRequest) LastActorWithRole(role workflow.Role) (int64, bool) {
	for i := len(r.History) - 1; i >= 0; i-- {
		if r.History[i].ChangedByRole == role {
			return r.History[i].ChangedByActorID, true
		}
	}
	return 0, false
}

// Clone returns a deep copy so a transition can be prepared without touching
// the loaded entity.
func (r *ServiceRequest) Clone() *ServiceRequest {
	c := *r
	c.History = append([]StatusHistoryEntry(nil), r.History...)
	c.AssignedProfessionalID = cloneInt64(r.AssignedProfessionalID)
	c.ProposedByActorID = cloneInt64(r.ProposedByActorID)
	c.ProposedExecutionAt = cloneTime(r.ProposedExecutionAt)
	c.ProposedDurationMinutes = cloneInt(r.ProposedDurationMinutes)
	c.ScheduledStartAt = cloneTime(r.ScheduledStartAt)
	c.EstimatedDurationMinutes = cloneInt(r.EstimatedDurationMinutes)
	c.ActualStartAt = cloneTime(r.ActualStartAt)
	c.ActualEndAt = cloneTime(r.ActualEndAt)
	c.QuotedAmount = cloneDecimal(r.QuotedAmount)
	c.PlatformFee = cloneDecimal(r.PlatformFee)
	c.ProfessionalPayout = cloneDecimal(r.ProfessionalPayout)
	c.PaidAmount = cloneDecimal(r.PaidAmount)
	return &c
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneDecimal(v *decimal.Decimal) *decimal.Decimal {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
