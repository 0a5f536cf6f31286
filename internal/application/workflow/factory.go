package workflow

import (
	domainwf "github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
)

// BuildServiceRequestPolicy creates the transition policy for service requests
func BuildServiceRequestPolicy() domainwf.Policy {
	builder := domainwf.NewBuilder()

	var (
		requester    = domainwf.RoleRequester
		professional = domainwf.RoleProfessional
		admin        = domainwf.RoleAdministrator
	)

	// Requested
	builder.Configure(domainwf.StatusRequested).
		Permit(requester, domainwf.ActionCancel, domainwf.StatusCancelled).
		Permit(admin, domainwf.ActionAssign, domainwf.StatusAssigned).
		Permit(admin, domainwf.ActionCancel, domainwf.StatusCancelled)

	// Assigned: the professional may answer before the confirmation window opens
	builder.Configure(domainwf.StatusAssigned).
		Permit(requester, domainwf.ActionCancel, domainwf.StatusCancelled).
		Permit(professional, domainwf.ActionAccept, domainwf.StatusAccepted).
		Permit(professional, domainwf.ActionDecline, domainwf.StatusDeclined).
		Permit(professional, domainwf.ActionCancel, domainwf.StatusCancelled).
		Permit(admin, domainwf.ActionOpenConfirmation, domainwf.StatusAwaitingProfessionalConfirmation).
		Permit(admin, domainwf.ActionCancel, domainwf.StatusCancelled)

	// AwaitingProfessionalConfirmation
	builder.Configure(domainwf.StatusAwaitingProfessionalConfirmation).
		Permit(professional, domainwf.ActionAccept, domainwf.StatusAccepted).
		Permit(professional, domainwf.ActionDecline, domainwf.StatusDeclined).
		Permit(admin, domainwf.ActionCancel, domainwf.StatusCancelled)

	// Declined: never reassigned automatically
	builder.Configure(domainwf.StatusDeclined).
		Permit(admin, domainwf.ActionAssign, domainwf.StatusAssigned).
		Permit(admin, domainwf.ActionCancel, domainwf.StatusCancelled)

	// Accepted hosts the execution date negotiation
	builder.Configure(domainwf.StatusAccepted).
		Permit(requester, domainwf.ActionApproveDate, domainwf.StatusDateSet).
		Permit(requester, domainwf.ActionRejectDate, domainwf.StatusAccepted).
		Permit(professional, domainwf.ActionProposeDate, domainwf.StatusAccepted).
		Permit(professional, domainwf.ActionSubmitQuote, domainwf.StatusAccepted).
		Permit(admin, domainwf.ActionProposeDate, domainwf.StatusAccepted).
		Permit(admin, domainwf.ActionSubmitQuote, domainwf.StatusAccepted).
		Permit(admin, domainwf.ActionCancel, domainwf.StatusCancelled)

	// DateSet
	builder.Configure(domainwf.StatusDateSet).
		Permit(professional, domainwf.ActionStartWork, domainwf.StatusInProgress).
		Permit(professional, domainwf.ActionSubmitQuote, domainwf.StatusDateSet).
		Permit(admin, domainwf.ActionSubmitQuote, domainwf.StatusDateSet).
		Permit(admin, domainwf.ActionCancel, domainwf.StatusCancelled)

	// InProgress
	builder.Configure(domainwf.StatusInProgress).
		Permit(professional, domainwf.ActionFinishWork, domainwf.StatusAwaitingCompletion).
		Permit(professional, domainwf.ActionSubmitQuote, domainwf.StatusInProgress).
		Permit(admin, domainwf.ActionSubmitQuote, domainwf.StatusInProgress).
		Permit(admin, domainwf.ActionCancel, domainwf.StatusCancelled)

	// AwaitingCompletion
	builder.Configure(domainwf.StatusAwaitingCompletion).
		Permit(admin, domainwf.ActionRecordPayment, domainwf.StatusPaymentMade).
		Permit(admin, domainwf.ActionSubmitQuote, domainwf.StatusAwaitingCompletion).
		Permit(admin, domainwf.ActionCancel, domainwf.StatusCancelled)

	// PaymentMade
	builder.Configure(domainwf.StatusPaymentMade).
		Permit(admin, domainwf.ActionFinalize, domainwf.StatusCompleted).
		Permit(admin, domainwf.ActionCancel, domainwf.StatusCancelled)

	// Completed and Cancelled are terminal - no outgoing transitions

	policy := builder.Build()
	if err := policy.Validate(); err != nil {
		panic(err)
	}
	return policy
}
