package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/AisleiAvila/HomeService-sub001/internal/domain/event"
)

// Dispatcher routes notification intents to registered handlers by kind
type Dispatcher interface {
	// Subscribe registers a handler for an intent kind
	Subscribe(kind event.Kind, handler Handler)

	// SubscribeNamed registers a handler with a name for debugging
	SubscribeNamed(kind event.Kind, name string, handler Handler)

	// Unsubscribe removes a handler by name
	Unsubscribe(kind event.Kind, name string)

	// Dispatch sends the intent to all handlers synchronously, in order,
	// stopping at the first error
	Dispatch(ctx context.Context, intent *event.Intent) error

	// DispatchAsync sends the intent to handlers without waiting for them
	DispatchAsync(ctx context.Context, intent *event.Intent)

	// ListHandlers returns registered handlers for a kind
	ListHandlers(kind event.Kind) []HandlerInfo

	// Close shuts down the dispatcher and waits for async handlers
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// intentDispatcher is the concrete implementation of Dispatcher
type intentDispatcher struct {
	mu       sync.RWMutex
	handlers map[event.Kind][]HandlerInfo
	seq      int
	logger   Logger

	wg     sync.WaitGroup
	closed atomic.Bool
}

// Option configures the dispatcher
type Option func(*intentDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *intentDispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a new intent dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &intentDispatcher{
		handlers: make(map[event.Kind][]HandlerInfo),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Subscribe registers a handler for a kind with an auto-generated name
func (d *intentDispatcher) Subscribe(kind event.Kind, handler Handler) {
	d.register(kind, "", handler)
}

// SubscribeNamed registers a handler with a specific name
func (d *intentDispatcher) SubscribeNamed(kind event.Kind, name string, handler Handler) {
	d.register(kind, name, handler)
}

// register appends a handler; an empty name is generated under the same lock
// so concurrent registrations never share one
func (d *intentDispatcher) register(kind event.Kind, name string, handler Handler) {
	d.mu.Lock()
	if name == "" {
		d.seq++
		name = fmt.Sprintf("handler-%d", d.seq)
	}
	d.handlers[kind] = append(d.handlers[kind], HandlerInfo{
		Name:    name,
		Kind:    kind,
		Handler: handler,
	})
	d.mu.Unlock()

	d.logInfo("Handler registered",
		"kind", kind.String(),
		"handler_name", name,
	)
}

// Unsubscribe removes a handler by name
func (d *intentDispatcher) Unsubscribe(kind event.Kind, name string) {
	d.mu.Lock()
	handlers := d.handlers[kind]
	filtered := make([]HandlerInfo, 0, len(handlers))
	for _, h := range handlers {
		if h.Name != name {
			filtered = append(filtered, h)
		}
	}
	d.handlers[kind] = filtered
	d.mu.Unlock()

	d.logInfo("Handler unregistered",
		"kind", kind.String(),
		"handler_name", name,
	)
}

// Dispatch sends the intent to all registered handlers synchronously
func (d *intentDispatcher) Dispatch(ctx context.Context, intent *event.Intent) error {
	if d.closed.Load() {
		return fmt.Errorf("dispatcher is closed")
	}

	handlers := d.handlersFor(intent.Kind)

	d.logInfo("Dispatching intent",
		"kind", intent.Kind.String(),
		"intent_id", intent.ID,
		"handler_count", len(handlers),
	)

	for _, info := range handlers {
		if err := d.safeExecute(ctx, intent, info); err != nil {
			d.logError("Handler error",
				"kind", intent.Kind.String(),
				"intent_id", intent.ID,
				"handler_name", info.Name,
				"error", err,
			)
			return fmt.Errorf("handler %s failed: %w", info.Name, err)
		}
	}

	return nil
}

// DispatchAsync sends the intent to handlers asynchronously
func (d *intentDispatcher) DispatchAsync(ctx context.Context, intent *event.Intent) {
	if d.closed.Load() {
		d.logError("Cannot dispatch async intent, dispatcher is closed",
			"kind", intent.Kind.String(),
			"intent_id", intent.ID,
		)
		return
	}

	handlers := d.handlersFor(intent.Kind)

	d.logInfo("Dispatching intent asynchronously",
		"kind", intent.Kind.String(),
		"intent_id", intent.ID,
		"handler_count", len(handlers),
	)

	for _, info := range handlers {
		d.wg.Add(1)
		go func(h HandlerInfo) {
			defer d.wg.Done()

			if err := d.safeExecute(ctx, intent, h); err != nil {
				d.logError("Async handler error",
					"kind", intent.Kind.String(),
					"intent_id", intent.ID,
					"handler_name", h.Name,
					"error", err,
				)
			}
		}(info)
	}
}

// ListHandlers returns registered handlers for a kind, without their functions
func (d *intentDispatcher) ListHandlers(kind event.Kind) []HandlerInfo {
	handlers := d.handlersFor(kind)
	result := make([]HandlerInfo, len(handlers))
	for i, h := range handlers {
		result[i] = HandlerInfo{
			Name:        h.Name,
			Kind:        h.Kind,
			Description: h.Description,
		}
	}
	return result
}

// Close shuts down the dispatcher and waits for async handlers to complete
func (d *intentDispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("dispatcher already closed")
	}

	d.logInfo("Closing dispatcher, waiting for async handlers")
	d.wg.Wait()
	d.logInfo("Dispatcher closed")

	return nil
}

func (d *intentDispatcher) handlersFor(kind event.Kind) []HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]HandlerInfo(nil), d.handlers[kind]...)
}

// safeExecute runs a handler with panic recovery
func (d *intentDispatcher) safeExecute(ctx context.Context, intent *event.Intent, info HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			d.logError("Handler panic recovered",
				"kind", intent.Kind.String(),
				"intent_id", intent.ID,
				"handler_name", info.Name,
				"panic", r,
			)
		}
	}()

	return info.Handler(ctx, intent)
}

func (d *intentDispatcher) logInfo(msg string, keysAndValues ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, keysAndValues...)
	}
}

func (d *intentDispatcher) logError(msg string, keysAndValues ...interface{}) {
	if d.logger != nil {
		d.logger.Error(msg, keysAndValues...)
	}
}
