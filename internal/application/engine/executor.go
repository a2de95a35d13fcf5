// Package engine implements the order status transition executor: the single
// path through which order statuses change. A transition is validated against
// the state graph and the guard registry, then the status update and the
// transition-log append are committed atomically; hooks, the audit
// collaborator and event emission run afterwards on a best-effort basis.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scribeworks/orderflow/internal/application/port"
	"github.com/scribeworks/orderflow/internal/domain/order"
	"github.com/scribeworks/orderflow/internal/domain/transition"
)

// Request describes a single transition attempt.
// Actor is nil and IsAutomatic true for system-triggered transitions.
type Request struct {
	OrderID          uuid.UUID
	Target           order.Status
	Actor            *order.Actor
	Reason           string
	Action           string
	IsAutomatic      bool
	SkipPaymentCheck bool
	SkipWriterCheck  bool
	Metadata         map[string]any
}

// Executor orchestrates guarded, audited, atomic status changes.
type Executor struct {
	graph    *transition.Graph
	guards   *transition.GuardRegistry
	hooks    *transition.HookRegistry
	orders   port.OrderRepository
	translog port.TransitionLogRepository
	tx       port.TransactionManager
	audit    port.AuditLogger
	emitter  port.EventEmitter
	logger   *zap.Logger

	sideEffectTimeout time.Duration
	auditEnabled      bool
}

// Option configures the executor.
type Option func(*Executor)

// WithAuditLogger attaches the optional higher-level audit collaborator.
func WithAuditLogger(a port.AuditLogger) Option {
	return func(e *Executor) {
		e.audit = a
	}
}

// WithEventEmitter attaches the domain event emitter.
func WithEventEmitter(em port.EventEmitter) Option {
	return func(e *Executor) {
		e.emitter = em
	}
}

// WithSideEffectTimeout bounds the execution time of each hook, audit call
// and event emission.
func WithSideEffectTimeout(d time.Duration) Option {
	return func(e *Executor) {
		e.sideEffectTimeout = d
	}
}

// WithAuditDisabled turns off the named audit collaborator. The engine's own
// transition log is written regardless.
func WithAuditDisabled() Option {
	return func(e *Executor) {
		e.auditEnabled = false
	}
}

// New creates a transition executor.
func New(
	graph *transition.Graph,
	guards *transition.GuardRegistry,
	hooks *transition.HookRegistry,
	orders port.OrderRepository,
	translog port.TransitionLogRepository,
	tx port.TransactionManager,
	logger *zap.Logger,
	opts ...Option,
) *Executor {
	e := &Executor{
		graph:             graph,
		guards:            guards,
		hooks:             hooks,
		orders:            orders,
		translog:          translog,
		tx:                tx,
		logger:            logger,
		sideEffectTimeout: 5 * time.Second,
		auditEnabled:      true,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// AvailableTransitions returns the legal targets from a status.
func (e *Executor) AvailableTransitions(from order.Status) []order.Status {
	return e.graph.AvailableTransitions(from)
}

// Transition performs a single guarded status change and returns the updated
// order. Steps 1-3 (idempotency, legality, guards) are the only fatal
// validation paths; hook, audit and event failures are downgraded to logged
// warnings. The status write and the transition-log append commit atomically;
// the transaction aborts with ErrTransitionConflict if the status moved
// between validation and the write, so of N concurrent attempts at most one
// wins and the rest observe a conflict.
func (e *Executor) Transition(ctx context.Context, req Request) (*order.Order, error) {
	o, err := e.orders.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	if o.Status == req.Target {
		return nil, &transition.AlreadyInTargetStatusError{Status: o.Status}
	}

	if !e.graph.IsLegalEdge(o.Status, req.Target) {
		return nil, &transition.InvalidTransitionError{
			From:    o.Status,
			To:      req.Target,
			Allowed: e.graph.AvailableTransitions(o.Status),
		}
	}

	gc := &transition.GuardContext{
		Order:            o,
		Actor:            req.Actor,
		IsAutomatic:      req.IsAutomatic,
		SkipPaymentCheck: req.SkipPaymentCheck,
		SkipWriterCheck:  req.SkipWriterCheck,
		Metadata:         req.Metadata,
	}
	if err := e.guards.Evaluate(ctx, o.Status, req.Target, gc); err != nil {
		return nil, err
	}

	edge := transition.Edge{From: o.Status, To: req.Target}
	e.runHooks(ctx, "before", e.hooks.Before(o.Status, req.Target), edge, o, req)

	now := time.Now().UTC()
	var oldStatus order.Status

	err = e.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		fresh, err := e.orders.GetByID(txCtx, req.OrderID)
		if err != nil {
			return err
		}

		// The guards and before-hooks ran against the status of the first
		// read. If a concurrent transition moved the order since, this
		// attempt must abort rather than commit an edge that was never
		// validated.
		if fresh.Status != o.Status {
			return fmt.Errorf("order %s moved from %s to %s concurrently: %w",
				req.OrderID, o.Status, fresh.Status, transition.ErrTransitionConflict)
		}

		if err := e.orders.UpdateStatusFrom(txCtx, req.OrderID, fresh.Status, req.Target, now); err != nil {
			if errors.Is(err, port.ErrNoRowsUpdated) {
				return fmt.Errorf("order %s, edge %s -> %s: %w",
					req.OrderID, fresh.Status, req.Target, transition.ErrTransitionConflict)
			}
			return err
		}

		oldStatus = fresh.Status

		entry := &order.TransitionLogEntry{
			OrderID:     req.OrderID,
			OldStatus:   fresh.Status,
			NewStatus:   req.Target,
			Action:      req.Action,
			Reason:      req.Reason,
			Metadata:    req.Metadata,
			IsAutomatic: req.IsAutomatic,
			CreatedAt:   now,
		}
		if req.Actor != nil {
			id := req.Actor.ID
			entry.ActorID = &id
		}
		return e.translog.Append(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	o.Status = req.Target
	o.UpdatedAt = now

	e.runHooks(ctx, "after", e.hooks.After(oldStatus, req.Target), edge, o, req)

	if e.audit != nil && e.auditEnabled {
		e.runBestEffort(ctx, "audit", "audit_logger", edge, o.ID, func(cctx context.Context) error {
			return e.audit.Log(cctx, req.Actor, req.Action, "order:"+o.ID.String(), map[string]any{
				"old_status": oldStatus.String(),
				"new_status": req.Target.String(),
				"reason":     req.Reason,
			})
		})
	}

	e.emitEvent(ctx, oldStatus, o, req)

	e.logger.Info("order status changed",
		zap.String("order_id", o.ID.String()),
		zap.String("old_status", oldStatus.String()),
		zap.String("new_status", req.Target.String()),
		zap.String("action", req.Action),
		zap.Bool("is_automatic", req.IsAutomatic),
	)

	return o, nil
}

// emitEvent translates the executed edge into a domain event and publishes
// it best-effort. Edges without a mapped event emit nothing.
func (e *Executor) emitEvent(ctx context.Context, oldStatus order.Status, o *order.Order, req Request) {
	if e.emitter == nil {
		return
	}

	key, ok := transition.EventForTransition(oldStatus, o.Status)
	if !ok {
		return
	}

	edge := transition.Edge{From: oldStatus, To: o.Status}
	e.runBestEffort(ctx, "event", key, edge, o.ID, func(cctx context.Context) error {
		return e.emitter.Emit(cctx, key, o, req.Actor, map[string]any{
			"old_status":   oldStatus.String(),
			"new_status":   o.Status.String(),
			"action":       req.Action,
			"is_automatic": req.IsAutomatic,
		})
	})
}
