package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AisleiAvila/HomeService-sub001/internal/application/port"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/entity"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/event"
)

// DefaultDeliveryTimeout bounds one publish attempt
const DefaultDeliveryTimeout = 10 * time.Second

// OutboxNotifier implements port.Notifier. Each intent is saved to the
// outbox and then dispatched asynchronously; undelivered records are picked
// up again by the retry worker.
type OutboxNotifier struct {
	dispatcher Dispatcher
	outbox     port.NotificationOutbox
}

// NewOutboxNotifier creates a notifier. outbox may be nil, in which case
// intents are only dispatched.
func NewOutboxNotifier(d Dispatcher, outbox port.NotificationOutbox) *OutboxNotifier {
	return &OutboxNotifier{
		dispatcher: d,
		outbox:     outbox,
	}
}

// Notify saves the intent and hands it to the dispatcher. The intent is
// dispatched even when the outbox save fails; the save error is returned so
// the caller can log that the record has no retry backing.
func (n *OutboxNotifier) Notify(ctx context.Context, intent *event.Intent) error {
	var saveErr error
	if n.outbox != nil {
		record, err := NewRecord(intent)
		if err != nil {
			return err
		}
		if err := n.outbox.Save(ctx, record); err != nil {
			saveErr = fmt.Errorf("failed to save notification %s: %w", intent.ID, err)
		}
	}

	// delivery outlives the caller's request
	n.dispatcher.DispatchAsync(context.WithoutCancel(ctx), intent)
	return saveErr
}

// NewDeliveryHandler returns a handler that publishes intents and records the
// outcome in the outbox
func NewDeliveryHandler(publisher port.IntentPublisher, outbox port.NotificationOutbox, timeout time.Duration) Handler {
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}
	return func(ctx context.Context, intent *event.Intent) error {
		deliverCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return Deliver(deliverCtx, publisher, outbox, intent)
	}
}

// Deliver publishes one intent and marks its outbox record
func Deliver(ctx context.Context, publisher port.IntentPublisher, outbox port.NotificationOutbox, intent *event.Intent) error {
	if err := publisher.Publish(ctx, intent); err != nil {
		if outbox != nil {
			if markErr := outbox.MarkFailed(ctx, intent.ID, err.Error()); markErr != nil {
				return fmt.Errorf("failed to publish intent %s: %w (mark failed: %v)", intent.ID, err, markErr)
			}
		}
		return fmt.Errorf("failed to publish intent %s: %w", intent.ID, err)
	}

	if outbox != nil {
		if err := outbox.MarkSent(ctx, intent.ID); err != nil {
			return fmt.Errorf("failed to mark intent %s sent: %w", intent.ID, err)
		}
	}
	return nil
}

// NewRecord builds the pending outbox row for an intent
func NewRecord(intent *event.Intent) (*entity.NotificationRecord, error) {
	payload, err := json.Marshal(intent)
	if err != nil {
		return nil, fmt.Errorf("failed to encode intent %s: %w", intent.ID, err)
	}

	now := time.Now()
	return &entity.NotificationRecord{
		ID:            intent.ID,
		Kind:          intent.Kind.String(),
		RequestID:     intent.RequestID,
		RecipientID:   intent.RecipientID,
		RecipientRole: intent.RecipientRole.String(),
		Payload:       string(payload),
		Status:        entity.NotificationStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// DecodeRecord restores the intent stored in an outbox row
func DecodeRecord(record *entity.NotificationRecord) (*event.Intent, error) {
	var intent event.Intent
	if err := json.Unmarshal([]byte(record.Payload), &intent); err != nil {
		return nil, fmt.Errorf("failed to decode notification %s: %w", record.ID, err)
	}
	return &intent, nil
}
