package entity

// PaymentStatus tracks whether the requester's payment was recorded
type PaymentStatus string

// Payment status constants for ServiceRequest
const (
	PaymentStatusUnpaid PaymentStatus = "Unpaid"
	PaymentStatusPaid   PaymentStatus = "Paid"
)

// Notification delivery status constants
const (
	NotificationStatusPending = "PENDING"
	NotificationStatusSent    = "SENT"
	NotificationStatusFailed  = "FAILED"
)
