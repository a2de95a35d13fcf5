// Package dispatcher routes order lifecycle events to registered handlers.
package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/scribeworks/orderflow/internal/domain/event"
)

// Dispatcher routes events to registered handlers by event key.
type Dispatcher interface {
	// Subscribe registers a handler with an auto-generated name.
	Subscribe(key string, handler Handler)

	// SubscribeNamed registers a handler under a name for debugging.
	SubscribeNamed(key, name string, handler Handler)

	// Unsubscribe removes a handler by name.
	Unsubscribe(key, name string)

	// Dispatch sends the event to all handlers synchronously, in
	// registration order. The first error stops the chain.
	Dispatch(ctx context.Context, evt *event.Event) error

	// DispatchAsync sends the event to handlers without waiting.
	DispatchAsync(ctx context.Context, evt *event.Event)

	// ListHandlers returns registered handler metadata for a key.
	ListHandlers(key string) []HandlerInfo

	// Close shuts down the dispatcher and waits for async handlers.
	Close() error
}

type eventDispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]HandlerInfo
	logger   *zap.Logger

	wg     sync.WaitGroup
	closed atomic.Bool
}

// New creates an event dispatcher. A nil logger disables dispatch logging.
func New(logger *zap.Logger) Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &eventDispatcher{
		handlers: make(map[string][]HandlerInfo),
		logger:   logger,
	}
}

func (d *eventDispatcher) Subscribe(key string, handler Handler) {
	d.mu.RLock()
	name := fmt.Sprintf("handler-%d", len(d.handlers[key]))
	d.mu.RUnlock()
	d.SubscribeNamed(key, name, handler)
}

func (d *eventDispatcher) SubscribeNamed(key, name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[key] = append(d.handlers[key], HandlerInfo{
		Name:    name,
		Key:     key,
		Handler: handler,
	})

	d.logger.Debug("event handler registered",
		zap.String("event_key", key),
		zap.String("handler", name))
}

func (d *eventDispatcher) Unsubscribe(key, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	handlers := d.handlers[key]
	filtered := make([]HandlerInfo, 0, len(handlers))
	for _, h := range handlers {
		if h.Name != name {
			filtered = append(filtered, h)
		}
	}
	d.handlers[key] = filtered
}

func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	if d.closed.Load() {
		return fmt.Errorf("dispatcher is closed")
	}

	d.mu.RLock()
	handlers := d.handlers[evt.Key]
	d.mu.RUnlock()

	for _, info := range handlers {
		if err := d.safeExecute(ctx, evt, info); err != nil {
			d.logger.Error("event handler failed",
				zap.String("event_key", evt.Key),
				zap.String("event_id", evt.ID),
				zap.String("handler", info.Name),
				zap.Error(err))
			return fmt.Errorf("handler %s failed: %w", info.Name, err)
		}
	}
	return nil
}

func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	if d.closed.Load() {
		d.logger.Error("async dispatch on closed dispatcher",
			zap.String("event_key", evt.Key),
			zap.String("event_id", evt.ID))
		return
	}

	d.mu.RLock()
	handlers := d.handlers[evt.Key]
	d.mu.RUnlock()

	for _, info := range handlers {
		d.wg.Add(1)
		go func(h HandlerInfo) {
			defer d.wg.Done()
			if err := d.safeExecute(ctx, evt, h); err != nil {
				d.logger.Error("async event handler failed",
					zap.String("event_key", evt.Key),
					zap.String("event_id", evt.ID),
					zap.String("handler", h.Name),
					zap.Error(err))
			}
		}(info)
	}
}

func (d *eventDispatcher) ListHandlers(key string) []HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	handlers := d.handlers[key]
	result := make([]HandlerInfo, len(handlers))
	for i, h := range handlers {
		result[i] = HandlerInfo{Name: h.Name, Key: h.Key, Description: h.Description}
	}
	return result
}

func (d *eventDispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("dispatcher already closed")
	}
	d.wg.Wait()
	return nil
}

// safeExecute runs a handler with panic recovery.
func (d *eventDispatcher) safeExecute(ctx context.Context, evt *event.Event, info HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return info.Handler(ctx, evt)
}
