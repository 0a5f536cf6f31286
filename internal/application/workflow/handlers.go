package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/AisleiAvila/HomeService-sub001/internal/domain/event"
	domainwf "github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
)

// NewOpenConfirmationHandler returns a handler that opens the confirmation
// window once a ProfessionalAssigned intent has been handed off. A request the
// professional already answered is left alone.
func NewOpenConfirmationHandler(engine WorkflowEngine, logger Logger) func(ctx context.Context, intent *event.Intent) error {
	return func(ctx context.Context, intent *event.Intent) error {
		if intent.Kind != event.KindProfessionalAssigned {
			return nil
		}

		adminID := intent.GetDataInt("assigned_by")
		if adminID == 0 {
			return fmt.Errorf("intent %s has no assigned_by", intent.ID)
		}

		_, err := engine.OpenConfirmation(ctx, intent.RequestID, adminID)
		if errors.Is(err, domainwf.ErrInvalidTransition) {
			if logger != nil {
				logger.Info("Confirmation window not opened, request moved on",
					"request_id", intent.RequestID,
					"error", err,
				)
			}
			return nil
		}
		return err
	}
}
