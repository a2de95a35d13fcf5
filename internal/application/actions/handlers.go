package actions

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/scribeworks/orderflow/internal/application/engine"
	"github.com/scribeworks/orderflow/internal/application/port"
	"github.com/scribeworks/orderflow/internal/domain/order"
	"github.com/scribeworks/orderflow/internal/domain/transition"
)

// AssignmentHandler records the writer on the order, then moves it either
// straight into in_progress or into pending_writer_assignment, whichever the
// graph allows from the current status.
type AssignmentHandler struct {
	orders   port.OrderRepository
	executor *engine.Executor
	graph    *transition.Graph
}

func NewAssignmentHandler(orders port.OrderRepository, executor *engine.Executor, graph *transition.Graph) *AssignmentHandler {
	return &AssignmentHandler{orders: orders, executor: executor, graph: graph}
}

func (h *AssignmentHandler) Execute(ctx context.Context, o *order.Order, actor *order.Actor, reason string, params map[string]any) (*order.Order, error) {
	raw, ok := params["writer_id"].(string)
	if !ok || raw == "" {
		return nil, fmt.Errorf("writer_id parameter is required")
	}
	writerID, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid writer_id %q: %w", raw, err)
	}

	var target order.Status
	switch {
	case h.graph.IsLegalEdge(o.Status, order.StatusInProgress):
		target = order.StatusInProgress
	case h.graph.IsLegalEdge(o.Status, order.StatusPendingWriterAssignment):
		target = order.StatusPendingWriterAssignment
	default:
		return nil, &transition.InvalidTransitionError{
			From:    o.Status,
			To:      order.StatusInProgress,
			Allowed: h.graph.AvailableTransitions(o.Status),
		}
	}

	if err := h.orders.AssignWriter(ctx, o.ID, writerID); err != nil {
		return nil, fmt.Errorf("assign writer: %w", err)
	}

	return h.executor.Transition(ctx, engine.Request{
		OrderID:  o.ID,
		Target:   target,
		Actor:    actor,
		Reason:   reason,
		Action:   ActionAssignOrder,
		Metadata: map[string]any{"writer_id": writerID.String()},
	})
}

// ResumeHandler returns an on-hold order to the status it held before the
// hold, read from the transition log. Orders with no usable pre-hold status
// fall back to the writer pool.
type ResumeHandler struct {
	translog port.TransitionLogRepository
	executor *engine.Executor
	graph    *transition.Graph
}

func NewResumeHandler(translog port.TransitionLogRepository, executor *engine.Executor, graph *transition.Graph) *ResumeHandler {
	return &ResumeHandler{translog: translog, executor: executor, graph: graph}
}

func (h *ResumeHandler) Execute(ctx context.Context, o *order.Order, actor *order.Actor, reason string, params map[string]any) (*order.Order, error) {
	target := order.StatusAvailable
	entry, err := h.translog.LastEntryInto(ctx, o.ID, order.StatusOnHold)
	if err != nil {
		return nil, fmt.Errorf("resolve pre-hold status: %w", err)
	}
	if entry != nil && h.graph.IsLegalEdge(o.Status, entry.OldStatus) {
		target = entry.OldStatus
	}

	return h.executor.Transition(ctx, engine.Request{
		OrderID:  o.ID,
		Target:   target,
		Actor:    actor,
		Reason:   reason,
		Action:   ActionResumeOrder,
		Metadata: params,
	})
}

// DefaultHandlers wires the dynamic-target actions to their handlers.
func DefaultHandlers(orders port.OrderRepository, translog port.TransitionLogRepository, executor *engine.Executor, graph *transition.Graph) map[string]ActionHandler {
	return map[string]ActionHandler{
		ActionAssignOrder: NewAssignmentHandler(orders, executor, graph),
		ActionResumeOrder: NewResumeHandler(translog, executor, graph),
	}
}
