package dispatcher

import (
	"context"

	"github.com/AisleiAvila/HomeService-sub001/internal/domain/event"
)

// Handler processes notification intents
type Handler func(ctx context.Context, intent *event.Intent) error

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Name        string
	Kind        event.Kind
	Handler     Handler
	Description string
}
