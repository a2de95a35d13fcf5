package order

import (
	"time"

	"github.com/google/uuid"
)

// TransitionLogEntry is the append-only forensic record of a single status
// change. One entry is written per successful transition, inside the same
// transaction as the status update, regardless of whether the named audit
// collaborator is enabled. Entries are never mutated or deleted.
type TransitionLogEntry struct {
	ID          int64          `json:"id"`
	OrderID     uuid.UUID      `json:"order_id"`
	OldStatus   Status         `json:"old_status"`
	NewStatus   Status         `json:"new_status"`
	ActorID     *uuid.UUID     `json:"actor_id,omitempty"`
	Action      string         `json:"action"`
	Reason      string         `json:"reason,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	IsAutomatic bool           `json:"is_automatic"`
	CreatedAt   time.Time      `json:"created_at"`
}
