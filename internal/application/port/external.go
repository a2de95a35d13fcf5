package port

import (
	"context"
	"time"

	"github.com/scribeworks/orderflow/internal/domain/order"
)

// AuditLogger is the optional higher-level audit collaborator. Failures must
// never abort a transition; the engine's own transition log is the
// load-bearing trail.
type AuditLogger interface {
	Log(ctx context.Context, actor *order.Actor, action string, target string, metadata map[string]any) error
}

// AuditEntry is a persisted audit record.
type AuditEntry struct {
	ID        int64          `json:"id"`
	ActorID   *string        `json:"actor_id,omitempty"`
	ActorRole *string        `json:"actor_role,omitempty"`
	Action    string         `json:"action"`
	Target    string         `json:"target"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditReader lists the audit trail recorded for a target, newest first.
type AuditReader interface {
	ListByTarget(ctx context.Context, target string) ([]AuditEntry, error)
}

// EventEmitter publishes domain events after successful transitions.
// Best-effort: failures are caught and logged, never propagated.
type EventEmitter interface {
	Emit(ctx context.Context, key string, o *order.Order, actor *order.Actor, extra map[string]any) error
}
