// Package actions translates human-facing action names into guarded status
// transitions, with role-based visibility.
package actions

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/scribeworks/orderflow/internal/application/engine"
	"github.com/scribeworks/orderflow/internal/domain/order"
	"github.com/scribeworks/orderflow/internal/domain/transition"
)

// ActionHandler performs the side work for an action whose destination is
// resolved dynamically. A handler that returns a nil order delegates the
// status change to the descriptor's target.
type ActionHandler interface {
	Execute(ctx context.Context, o *order.Order, actor *order.Actor, reason string, params map[string]any) (*order.Order, error)
}

// Catalog resolves named actions against an order's current status and the
// caller's role.
type Catalog struct {
	executor *engine.Executor
	graph    *transition.Graph
	byStatus map[order.Status][]Descriptor
	handlers map[string]ActionHandler
	logger   *zap.Logger
}

// New builds the catalog with the default descriptor table. It rejects any
// descriptor whose target equals the status it is attached to, since such an
// action could only ever produce an idempotency error.
func New(executor *engine.Executor, graph *transition.Graph, handlers map[string]ActionHandler, logger *zap.Logger) (*Catalog, error) {
	byStatus := defaultDescriptors()
	for status, descriptors := range byStatus {
		for _, d := range descriptors {
			if d.Target != nil && *d.Target == status {
				return nil, fmt.Errorf("action %q in status %q targets its own status", d.Action, status)
			}
			if d.Target == nil {
				if _, ok := handlers[d.Action]; !ok {
					return nil, fmt.Errorf("action %q in status %q has no target and no handler", d.Action, status)
				}
			}
		}
	}
	return &Catalog{
		executor: executor,
		graph:    graph,
		byStatus: byStatus,
		handlers: handlers,
		logger:   logger,
	}, nil
}

func (c *Catalog) descriptor(status order.Status, action string) (Descriptor, bool) {
	for _, d := range c.byStatus[status] {
		if d.Action == action {
			return d, true
		}
	}
	return Descriptor{}, false
}

func roleAllowed(d Descriptor, role order.Role) bool {
	if role == order.RoleSuperadmin {
		return true
	}
	for _, r := range d.AllowedRoles {
		if r == role {
			return true
		}
	}
	return false
}

// AvailableActions returns the actions the role may perform from the order's
// current status, each annotated with whether its edge is currently legal.
// Superadmin sees every action regardless of the role filter.
func (c *Catalog) AvailableActions(o *order.Order, role order.Role) []Availability {
	out := make([]Availability, 0)
	for _, d := range c.byStatus[o.Status] {
		if !roleAllowed(d, role) {
			continue
		}
		a := Availability{Descriptor: d, Legal: true}
		if d.Target != nil && !c.graph.IsLegalEdge(o.Status, *d.Target) {
			a.Legal = false
			a.Reason = fmt.Sprintf("no transition from %q to %q", o.Status, *d.Target)
		}
		out = append(out, a)
	}
	return out
}

// CanPerformAction is the read-only permission and edge-legality check.
func (c *Catalog) CanPerformAction(o *order.Order, action string, role order.Role) (bool, string) {
	d, ok := c.descriptor(o.Status, action)
	if !ok {
		return false, fmt.Sprintf("action %q is not available in status %q", action, o.Status)
	}
	if !roleAllowed(d, role) {
		return false, fmt.Sprintf("role %q is not allowed to perform %q", role, action)
	}
	if d.Target != nil && !c.graph.IsLegalEdge(o.Status, *d.Target) {
		return false, fmt.Sprintf("no transition from %q to %q", o.Status, *d.Target)
	}
	return true, ""
}

// ExecuteAction resolves the named action for the order's current status and
// performs it. Actions with a registered handler dispatch to it; the rest
// fall back to a direct transition to the descriptor target. When a handler
// succeeds but the follow-up fallback transition fails, the failure is logged
// rather than raised, since the handler's side effects already stand.
func (c *Catalog) ExecuteAction(ctx context.Context, o *order.Order, action string, actor *order.Actor, reason string, params map[string]any) (*order.Order, error) {
	d, ok := c.descriptor(o.Status, action)
	if !ok {
		return nil, &transition.ActionNotAvailableError{Action: action, Status: o.Status}
	}
	if actor == nil {
		return nil, &transition.PermissionDeniedError{Action: action, Role: ""}
	}
	if !roleAllowed(d, actor.Role) {
		return nil, &transition.PermissionDeniedError{Action: action, Role: actor.Role}
	}
	if d.Target != nil && *d.Target == o.Status {
		return nil, fmt.Errorf("action %q: %w", action,
			&transition.AlreadyInTargetStatusError{Status: o.Status})
	}

	if handler, ok := c.handlers[action]; ok {
		updated, err := handler.Execute(ctx, o, actor, reason, params)
		if err != nil {
			return nil, fmt.Errorf("action %q: %w", action, err)
		}
		if updated != nil {
			return updated, nil
		}
		if d.Target == nil {
			return o, nil
		}
		updated, err = c.transition(ctx, o, *d.Target, actor, reason, action, params)
		if err != nil {
			c.logger.Warn("fallback transition failed after action handler",
				zap.String("action", action),
				zap.String("order_id", o.ID.String()),
				zap.String("target", d.Target.String()),
				zap.Error(err))
			return o, nil
		}
		return updated, nil
	}

	return c.transition(ctx, o, *d.Target, actor, reason, action, params)
}

func (c *Catalog) transition(ctx context.Context, o *order.Order, to order.Status, actor *order.Actor, reason, action string, params map[string]any) (*order.Order, error) {
	return c.executor.Transition(ctx, engine.Request{
		OrderID:  o.ID,
		Target:   to,
		Actor:    actor,
		Reason:   reason,
		Action:   action,
		Metadata: params,
	})
}
