package transition

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/scribeworks/orderflow/internal/domain/order"
)

// Rule names for the built-in guards. Error messages reference these so
// callers can tell which rule blocked a transition.
const (
	RulePaymentRequired     = "payment_required"
	RuleWriterRequired      = "writer_required"
	RulePaidCancellation    = "paid_order_cancellation"
	RuleStatusPrecondition  = "status_precondition"
	MetaSkipCancellationKey = "skip_cancellation_check"
)

// PaymentChecker reports whether the external payment collaborator has
// recorded at least one completed payment for the order.
type PaymentChecker interface {
	HasCompletedPayment(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// activeWorkStatuses are statuses that presuppose collected payment.
var activeWorkStatuses = []order.Status{
	order.StatusInProgress,
	order.StatusAvailable,
	order.StatusPendingWriterAssignment,
	order.StatusSubmitted,
}

// writerBoundStatuses are statuses that presuppose an assigned writer.
var writerBoundStatuses = []order.Status{
	order.StatusInProgress,
	order.StatusSubmitted,
	order.StatusRevisionInProgress,
	order.StatusRevised,
}

// paidCancellationSources are statuses from which cancelling requires an
// elevated role, because payment has already been collected.
var paidCancellationSources = []order.Status{
	order.StatusPaid,
	order.StatusInProgress,
	order.StatusSubmitted,
}

// NewDefaultGuardRegistry builds the registry with every built-in
// domain guard attached to its edges.
func NewDefaultGuardRegistry(g *Graph, payments PaymentChecker) *GuardRegistry {
	r := NewGuardRegistry()

	for _, to := range activeWorkStatuses {
		for _, edge := range g.IncomingEdges(to) {
			r.Register(edge.From, edge.To, RulePaymentRequired, paymentRequiredGuard(payments))
		}
	}

	for _, to := range writerBoundStatuses {
		for _, edge := range g.IncomingEdges(to) {
			r.Register(edge.From, edge.To, RuleWriterRequired, writerRequiredGuard)
		}
	}

	for _, from := range paidCancellationSources {
		r.Register(from, order.StatusCancelled, RulePaidCancellation, paidCancellationGuard)
	}

	// Re-asserted preconditions for statuses reachable from multiple
	// predecessor branches.
	for _, edge := range g.IncomingEdges(order.StatusArchived) {
		r.Register(edge.From, edge.To, RuleStatusPrecondition,
			statusPreconditionGuard(order.StatusApproved, order.StatusCompleted))
	}
	r.Register(order.StatusReviewed, order.StatusRated, RuleStatusPrecondition,
		statusPreconditionGuard(order.StatusReviewed))

	return r
}

// paymentRequiredGuard fails unless the order has a completed payment on
// record or its paid flag is set. An administrative override skips the check.
func paymentRequiredGuard(payments PaymentChecker) GuardFunc {
	return func(ctx context.Context, gc *GuardContext) error {
		if gc.SkipPaymentCheck {
			return nil
		}
		if gc.Order.IsPaid {
			return nil
		}
		if payments != nil {
			paid, err := payments.HasCompletedPayment(ctx, gc.Order.ID)
			if err != nil {
				return fmt.Errorf("payment check: %w", err)
			}
			if paid {
				return nil
			}
		}
		return &GuardViolationError{
			Rule:    RulePaymentRequired,
			Message: "order has no completed payment and is not marked paid",
		}
	}
}

// writerRequiredGuard fails unless a writer is assigned, modulo the skip flag.
func writerRequiredGuard(_ context.Context, gc *GuardContext) error {
	if gc.SkipWriterCheck {
		return nil
	}
	if gc.Order.HasWriter() {
		return nil
	}
	return &GuardViolationError{
		Rule:    RuleWriterRequired,
		Message: "order has no assigned writer",
	}
}

// paidCancellationGuard protects paid orders from being cancelled by the
// client. Automatic transitions pass: system processes are not clients.
func paidCancellationGuard(_ context.Context, gc *GuardContext) error {
	if skip, ok := gc.Metadata[MetaSkipCancellationKey].(bool); ok && skip {
		return nil
	}
	if gc.IsAutomatic {
		return nil
	}
	if gc.Actor != nil && gc.Actor.Role.IsElevated() {
		return nil
	}
	return &GuardViolationError{
		Rule:    RulePaidCancellation,
		Message: "only administrators can cancel paid orders",
	}
}

// statusPreconditionGuard re-asserts that the order currently sits in one of
// the expected source statuses.
func statusPreconditionGuard(allowed ...order.Status) GuardFunc {
	return func(_ context.Context, gc *GuardContext) error {
		for _, s := range allowed {
			if gc.Order.Status == s {
				return nil
			}
		}
		return &GuardViolationError{
			Rule:    RuleStatusPrecondition,
			Message: fmt.Sprintf("order must be in one of %v, currently %q", allowed, gc.Order.Status),
		}
	}
}
