package transition

import (
	"context"

	"github.com/scribeworks/orderflow/internal/domain/order"
)

// GuardContext carries everything a guard may inspect when deciding whether
// an edge may be taken. Actor is nil for automatic transitions.
type GuardContext struct {
	Order            *order.Order
	Actor            *order.Actor
	IsAutomatic      bool
	SkipPaymentCheck bool
	SkipWriterCheck  bool
	Metadata         map[string]any
}

// GuardFunc evaluates a single business rule for an edge. Returning a non-nil
// error aborts the transition before any mutation occurs; the error should be
// a *GuardViolationError so callers can render the violated rule.
type GuardFunc func(ctx context.Context, gc *GuardContext) error

// Guard pairs a rule name with its predicate.
type Guard struct {
	Rule  string
	Check GuardFunc
}

// GuardRegistry attaches ordered fatal predicates to specific edges.
// Construct one registry per process and pass it into the executor; tests
// build isolated registries of their own.
type GuardRegistry struct {
	guards map[Edge][]Guard
}

// NewGuardRegistry creates an empty guard registry.
func NewGuardRegistry() *GuardRegistry {
	return &GuardRegistry{
		guards: make(map[Edge][]Guard),
	}
}

// Register appends a guard to the edge's list. Guards run in registration
// order; the first failure aborts evaluation.
func (r *GuardRegistry) Register(from, to order.Status, rule string, check GuardFunc) {
	edge := Edge{From: from, To: to}
	r.guards[edge] = append(r.guards[edge], Guard{Rule: rule, Check: check})
}

// Evaluate runs every guard registered for the edge, in order, stopping at
// the first failure. Edges with no guards pass.
func (r *GuardRegistry) Evaluate(ctx context.Context, from, to order.Status, gc *GuardContext) error {
	for _, g := range r.guards[Edge{From: from, To: to}] {
		if err := g.Check(ctx, gc); err != nil {
			return err
		}
	}
	return nil
}

// Guards returns the guards registered for an edge, in registration order.
func (r *GuardRegistry) Guards(from, to order.Status) []Guard {
	return append([]Guard{}, r.guards[Edge{From: from, To: to}]...)
}
