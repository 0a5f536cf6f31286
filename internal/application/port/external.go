package port

import (
	"context"

	"github.com/AisleiAvila/HomeService-sub001/internal/domain/event"
)

// Notifier accepts notification intents for asynchronous delivery. A nil
// error means the intent was handed off, not that it was delivered.
type Notifier interface {
	Notify(ctx context.Context, intent *event.Intent) error
}

// IntentPublisher delivers an intent to the push/chat transport
type IntentPublisher interface {
	Publish(ctx context.Context, intent *event.Intent) error
}
