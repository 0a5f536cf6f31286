package entity

import (
	"time"

	"github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
)

// StatusHistoryEntry is one immutable record of a transition. Seq is the
// 1-based append position within its service request.
type StatusHistoryEntry struct {
	Seq              int             `json:"seq" db:"seq"`
	Status           workflow.Status `json:"status" db:"status"`
	Action           workflow.Action `json:"action" db:"action"`
	ChangedAt        time.Time       `json:"changed_at" db:"changed_at"`
	ChangedByActorID int64           `json:"changed_by_actor_id" db:"changed_by_actor_id"`
	ChangedByRole    workflow.Role   `json:"changed_by_role" db:"changed_by_role"`
	Notes            string          `json:"notes,omitempty" db:"notes"`
}
