package dispatcher

import (
	"context"

	"github.com/scribeworks/orderflow/internal/domain/event"
	"github.com/scribeworks/orderflow/internal/domain/order"
)

// Emitter adapts a Dispatcher to the event emitter port used by the
// transition executor. Emission is synchronous so handler failures surface
// to the executor's best-effort logging.
type Emitter struct {
	dispatcher Dispatcher
}

func NewEmitter(d Dispatcher) *Emitter {
	return &Emitter{dispatcher: d}
}

func (e *Emitter) Emit(ctx context.Context, key string, o *order.Order, actor *order.Actor, extra map[string]any) error {
	return e.dispatcher.Dispatch(ctx, event.New(key, o, actor, extra))
}
