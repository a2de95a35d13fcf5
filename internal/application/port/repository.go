package port

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/scribeworks/orderflow/internal/domain/order"
)

// ErrNoRowsUpdated is returned by conditional updates when the row no longer
// matches the expected state.
var ErrNoRowsUpdated = errors.New("no rows updated")

// OrderRepository defines persistence operations for orders. The engine only
// touches the fields it owns; everything else belongs to other subsystems.
type OrderRepository interface {
	Create(ctx context.Context, o *order.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error)

	// UpdateStatusFrom sets the status only if the row still holds the
	// expected current status. Returns ErrNoRowsUpdated when a concurrent
	// transition got there first; the executor maps that to a conflict.
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to order.Status, at time.Time) error

	SetPaid(ctx context.Context, id uuid.UUID, paid bool) error
	AssignWriter(ctx context.Context, id uuid.UUID, writerID uuid.UUID) error
	ListByStatus(ctx context.Context, status order.Status) ([]*order.Order, error)
	ListByStatusOlderThan(ctx context.Context, status order.Status, cutoff time.Time) ([]*order.Order, error)
}

// TransitionLogRepository defines persistence for the engine's append-only
// forensic trail. Entries are never updated or deleted.
type TransitionLogRepository interface {
	Append(ctx context.Context, entry *order.TransitionLogEntry) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*order.TransitionLogEntry, error)

	// LastEntryInto returns the most recent entry whose new status is the
	// given one, or nil when the order never entered it. Used to resolve
	// which status a held order should resume to.
	LastEntryInto(ctx context.Context, orderID uuid.UUID, status order.Status) (*order.TransitionLogEntry, error)
}

// TransactionManager scopes a function to a database transaction. The
// transaction is carried in the returned context; repository calls made with
// that context join it.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
