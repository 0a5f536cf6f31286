package workflow

// Action is a named business operation. Several actions may lead to the same
// target status but differ in intent and payload (Accept vs Decline).
type Action string

const (
	ActionCreate           Action = "CREATE"
	ActionAssign           Action = "ASSIGN"
	ActionOpenConfirmation Action = "OPEN_CONFIRMATION"
	ActionAccept           Action = "ACCEPT"
	ActionDecline          Action = "DECLINE"
	ActionSubmitQuote      Action = "SUBMIT_QUOTE"
	ActionProposeDate      Action = "PROPOSE_DATE"
	ActionApproveDate      Action = "APPROVE_DATE"
	ActionRejectDate       Action = "REJECT_DATE"
	ActionStartWork        Action = "START_WORK"
	ActionFinishWork       Action = "FINISH_WORK"
	ActionRecordPayment    Action = "RECORD_PAYMENT"
	ActionFinalize         Action = "FINALIZE"
	ActionCancel           Action = "CANCEL"

	// ActionMigrateStatus records a stored legacy status rewritten to its
	// canonical value. It is never granted by a policy.
	ActionMigrateStatus Action = "MIGRATE_STATUS"
)

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}

