package event

// Kind identifies the type of notification intent
type Kind string

const (
	KindProfessionalAssigned  Kind = "request.professional_assigned"
	KindAssignmentAccepted    Kind = "request.assignment_accepted"
	KindAssignmentDeclined    Kind = "request.assignment_declined"
	KindQuoteSubmitted        Kind = "request.quote_submitted"
	KindExecutionDateProposed Kind = "request.execution_date_proposed"
	KindExecutionDateApproved Kind = "request.execution_date_approved"
	KindExecutionDateRejected Kind = "request.execution_date_rejected"
	KindWorkStarted           Kind = "request.work_started"
	KindWorkFinished          Kind = "request.work_finished"
	KindPaymentRecorded       Kind = "request.payment_recorded"
	KindRequestCompleted      Kind = "request.completed"
	KindRequestCancelled      Kind = "request.cancelled"
)

// String returns the string representation of the intent kind
func (k Kind) String() string {
	return string(k)
}

// IsValid checks if the kind is one of the defined constants
func (k Kind) IsValid() bool {
	switch k {
	case KindProfessionalAssigned,
		KindAssignmentAccepted,
		KindAssignmentDeclined,
		KindQuoteSubmitted,
		KindExecutionDateProposed,
		KindExecutionDateApproved,
		KindExecutionDateRejected,
		KindWorkStarted,
		KindWorkFinished,
		KindPaymentRecorded,
		KindRequestCompleted,
		KindRequestCancelled:
		return true
	default:
		return false
	}
}

// Kinds returns every defined intent kind
func Kinds() []Kind {
	return []Kind{
		KindProfessionalAssigned,
		KindAssignmentAccepted,
		KindAssignmentDeclined,
		KindQuoteSubmitted,
		KindExecutionDateProposed,
		KindExecutionDateApproved,
		KindExecutionDateRejected,
		KindWorkStarted,
		KindWorkFinished,
		KindPaymentRecorded,
		KindRequestCompleted,
		KindRequestCancelled,
	}
}
