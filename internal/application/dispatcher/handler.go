package dispatcher

import (
	"context"

	"github.com/scribeworks/orderflow/internal/domain/event"
)

// Handler processes an order lifecycle event.
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo carries handler metadata for debugging. ListHandlers omits the
// function itself.
type HandlerInfo struct {
	Name        string
	Key         string
	Handler     Handler
	Description string
}
