package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scribeworks/orderflow/internal/domain/order"
	"github.com/scribeworks/orderflow/internal/domain/transition"
)

// runHooks executes an ordered hook list with best-effort semantics. Hook
// failures never fail the transition.
func (e *Executor) runHooks(ctx context.Context, phase string, hooks []transition.NamedHook, edge transition.Edge, o *order.Order, req Request) {
	for _, h := range hooks {
		hook := h
		e.runBestEffort(ctx, phase+"_hook", hook.Name, edge, o.ID, func(cctx context.Context) error {
			return hook.Run(cctx, o, req.Actor, req.Metadata)
		})
	}
}

// runBestEffort is the single place the non-fatal side-effect contract is
// enforced: bounded execution time, panic recovery, warning log with the edge
// and order identifier. Hooks, the audit collaborator and event emission all
// go through here.
func (e *Executor) runBestEffort(ctx context.Context, kind, name string, edge transition.Edge, orderID uuid.UUID, fn func(context.Context) error) {
	cctx, cancel := context.WithTimeout(ctx, e.sideEffectTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- fn(cctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			e.logger.Warn("side effect failed",
				zap.String("kind", kind),
				zap.String("name", name),
				zap.String("order_id", orderID.String()),
				zap.String("from", edge.From.String()),
				zap.String("to", edge.To.String()),
				zap.Error(err),
			)
		}
	case <-cctx.Done():
		e.logger.Warn("side effect timed out",
			zap.String("kind", kind),
			zap.String("name", name),
			zap.String("order_id", orderID.String()),
			zap.String("from", edge.From.String()),
			zap.String("to", edge.To.String()),
			zap.Duration("timeout", e.sideEffectTimeout),
		)
	}
}
