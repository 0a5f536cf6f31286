package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
)

// Intent asks the notification collaborator to tell a recipient that
// something happened to a service request. Delivery is at-least-once.
type Intent struct {
	ID            string                 `json:"id"`
	Kind          Kind                   `json:"kind"`
	RequestID     string                 `json:"request_id"`
	RecipientID   int64                  `json:"recipient_id"`
	RecipientRole workflow.Role          `json:"recipient_role"`
	Data          map[string]interface{} `json:"data"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewIntent creates an intent with a generated ID and timestamp
func NewIntent(kind Kind, requestID string, recipientID int64, recipientRole workflow.Role, data map[string]interface{}) *Intent {
	return NewIntentWithCorrelation(kind, requestID, recipientID, recipientRole, data, uuid.NewString())
}

// NewIntentWithCorrelation creates an intent linked to a correlation chain,
// typically every intent produced by one transition
func NewIntentWithCorrelation(kind Kind, requestID string, recipientID int64, recipientRole workflow.Role, data map[string]interface{}, correlationID string) *Intent {
	if data == nil {
		data = map[string]interface{}{}
	}
	return &Intent{
		ID:            uuid.NewString(),
		Kind:          kind,
		RequestID:     requestID,
		RecipientID:   recipientID,
		RecipientRole: recipientRole,
		Data:          data,
		Timestamp:     time.Now(),
		CorrelationID: correlationID,
	}
}

// WithData returns a copy of the intent with an added data key (immutable operation)
func (i *Intent) WithData(key string, value interface{}) *Intent {
	newData := make(map[string]interface{}, len(i.Data)+1)
	for k, v := range i.Data {
		newData[k] = v
	}
	newData[key] = value

	c := *i
	c.Data = newData
	return &c
}

// GetDataString retrieves a string value from the data map
func (i *Intent) GetDataString(key string) string {
	if val, ok := i.Data[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetDataInt retrieves an int64 value from the data map
func (i *Intent) GetDataInt(key string) int64 {
	if val, ok := i.Data[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}
