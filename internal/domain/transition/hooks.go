package transition

import (
	"context"

	"github.com/scribeworks/orderflow/internal/domain/order"
)

// Hook is a best-effort side-effect callback attached to an edge. Hooks are
// auxiliary by contract: the executor catches and logs their failures and
// never aborts or rolls back a transition because of one. Load-bearing rules
// belong in guards.
type Hook func(ctx context.Context, o *order.Order, actor *order.Actor, metadata map[string]any) error

// NamedHook pairs a hook with the name it was registered under, so failures
// can be logged with an identifiable source.
type NamedHook struct {
	Name string
	Run  Hook
}

// HookRegistry holds ordered before/after hook lists keyed by edge. Like the
// guard registry it is built once at process start and injected, so tests can
// construct isolated registries.
type HookRegistry struct {
	before map[Edge][]NamedHook
	after  map[Edge][]NamedHook
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry() *HookRegistry {
	return &HookRegistry{
		before: make(map[Edge][]NamedHook),
		after:  make(map[Edge][]NamedHook),
	}
}

// RegisterBefore appends a hook to run before the mutation on the given edge.
func (r *HookRegistry) RegisterBefore(from, to order.Status, name string, h Hook) {
	edge := Edge{From: from, To: to}
	r.before[edge] = append(r.before[edge], NamedHook{Name: name, Run: h})
}

// RegisterAfter appends a hook to run after the mutation on the given edge.
func (r *HookRegistry) RegisterAfter(from, to order.Status, name string, h Hook) {
	edge := Edge{From: from, To: to}
	r.after[edge] = append(r.after[edge], NamedHook{Name: name, Run: h})
}

// Before returns the before-hooks for an edge, in registration order.
func (r *HookRegistry) Before(from, to order.Status) []NamedHook {
	return append([]NamedHook{}, r.before[Edge{From: from, To: to}]...)
}

// After returns the after-hooks for an edge, in registration order.
func (r *HookRegistry) After(from, to order.Status) []NamedHook {
	return append([]NamedHook{}, r.after[Edge{From: from, To: to}]...)
}
