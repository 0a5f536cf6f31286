package workflow

// Status is a canonical service request status. It carries no display text;
// presentation layers resolve labels keyed by the value.
type Status string

const (
	StatusRequested                        Status = "Requested"
	StatusAssigned                         Status = "Assigned"
	StatusAwaitingProfessionalConfirmation Status = "AwaitingProfessionalConfirmation"
	StatusAccepted                         Status = "Accepted"
	StatusDeclined                         Status = "Declined"
	StatusDateSet                          Status = "DateSet"
	StatusInProgress                       Status = "InProgress"
	StatusAwaitingCompletion               Status = "AwaitingCompletion"
	StatusPaymentMade                      Status = "PaymentMade"
	StatusCompleted                        Status = "Completed"
	StatusCancelled                        Status = "Cancelled"
)

// canonicalOrder lists the canonical statuses in lifecycle order
var canonicalOrder = []Status{
	StatusRequested,
	StatusAssigned,
	StatusAwaitingProfessionalConfirmation,
	StatusAccepted,
	StatusDeclined,
	StatusDateSet,
	StatusInProgress,
	StatusAwaitingCompletion,
	StatusPaymentMade,
	StatusCompleted,
	StatusCancelled,
}

var validStatuses = func() map[Status]bool {
	m := make(map[Status]bool, len(canonicalOrder))
	for _, s := range canonicalOrder {
		m[s] = true
	}
	return m
}()

var terminalStatuses = map[Status]bool{
	StatusCompleted: true,
	StatusCancelled: true,
}

// CanonicalStatuses returns every canonical status in lifecycle order
func CanonicalStatuses() []Status {
	out := make([]Status, len(canonicalOrder))
	copy(out, canonicalOrder)
	return out
}

// IsTerminal returns true if the status admits no further transitions
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if the status is a member of the canonical set
func (s Status) IsValid() bool {
	return validStatuses[s]
}
