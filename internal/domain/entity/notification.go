package entity

import "time"

// NotificationRecord is the outbox row tracking delivery of one notification intent
type NotificationRecord struct {
	ID            string     `json:"id" db:"id"`
	Kind          string     `json:"kind" db:"kind"`
	RequestID     string     `json:"request_id" db:"request_id"`
	RecipientID   int64      `json:"recipient_id" db:"recipient_id"`
	RecipientRole string     `json:"recipient_role" db:"recipient_role"`
	Payload       string     `json:"payload" db:"payload"`
	Status        string     `json:"status" db:"status"`
	Attempts      int        `json:"attempts" db:"attempts"`
	LastError     string     `json:"last_error,omitempty" db:"last_error"`
	SentAt        *time.Time `json:"sent_at,omitempty" db:"sent_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}
