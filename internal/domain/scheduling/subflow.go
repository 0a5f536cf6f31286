// Package scheduling implements the execution-date negotiation nested inside
// the Accepted status. Its state lives on the request: a non-nil
// ProposedExecutionAt means a proposal is pending.
package scheduling

import (
	"fmt"
	"time"

	"github.com/AisleiAvila/HomeService-sub001/internal/domain/entity"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
)

// SubState is the negotiation state of a request
type SubState string

const (
	NoProposal SubState = "NoProposal"
	Proposed   SubState = "Proposed"
)

var (
	ErrNoPendingProposal = fmt.Errorf("%w: no pending execution date proposal", workflow.ErrInvalidPayload)
	ErrProposalInPast    = fmt.Errorf("%w: proposed execution date must be in the future", workflow.ErrInvalidPayload)
)

// Proposal carries the fields of a new execution date proposal
type Proposal struct {
	At              time.Time
	DurationMinutes *int
	ActorID         int64
	Role            workflow.Role
}

// State returns the negotiation state of req
func State(req *entity.ServiceRequest) SubState {
	if req.ProposedExecutionAt != nil {
		return Proposed
	}
	return NoProposal
}

// Propose records p on req, replacing any pending proposal. Re-proposals are
// unlimited.
func Propose(req *entity.ServiceRequest, p Proposal, now time.Time) error {
	if p.At.IsZero() {
		return workflow.NewPayloadError("proposed_at", "is required")
	}
	if !p.At.After(now) {
		return ErrProposalInPast
	}
	if p.DurationMinutes != nil && *p.DurationMinutes <= 0 {
		return workflow.NewPayloadError("estimated_duration_minutes", "must be positive")
	}

	at := p.At.UTC()
	actorID := p.ActorID
	req.ProposedExecutionAt = &at
	req.ProposedByActorID = &actorID
	req.ProposedByRole = p.Role
	req.ProposedDurationMinutes = copyInt(p.DurationMinutes)
	return nil
}

// Approve promotes the pending proposal to the schedule and returns the
// parent status the request moves to.
func Approve(req *entity.ServiceRequest) (workflow.Status, error) {
	if State(req) != Proposed {
		return "", ErrNoPendingProposal
	}

	at := *req.ProposedExecutionAt
	req.ScheduledStartAt = &at
	req.EstimatedDurationMinutes = copyInt(req.ProposedDurationMinutes)
	clearProposal(req)
	return workflow.StatusDateSet, nil
}

// Reject discards the pending proposal so a new one can be made
func Reject(req *entity.ServiceRequest) error {
	if State(req) != Proposed {
		return ErrNoPendingProposal
	}
	clearProposal(req)
	return nil
}

func clearProposal(req *entity.ServiceRequest) {
	req.ProposedExecutionAt = nil
	req.ProposedByActorID = nil
	req.ProposedByRole = ""
	req.ProposedDurationMinutes = nil
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
