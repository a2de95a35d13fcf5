package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scribeworks/orderflow/internal/application/port"
	"github.com/scribeworks/orderflow/internal/domain/order"
)

// TransitionLogRepository handles the append-only transition trail.
type TransitionLogRepository struct {
	db     *DB
	logger *zap.Logger
}

func NewTransitionLogRepository(db *DB, logger *zap.Logger) *TransitionLogRepository {
	return &TransitionLogRepository{db: db, logger: logger}
}

const transitionColumns = `id, order_id, old_status, new_status, actor_id, action, reason, metadata, is_automatic, created_at`

func (r *TransitionLogRepository) Append(ctx context.Context, entry *order.TransitionLogEntry) error {
	query := `
		INSERT INTO order_transitions (order_id, old_status, new_status, actor_id, action, reason, metadata, is_automatic, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var actorID any
	if entry.ActorID != nil {
		actorID = entry.ActorID.String()
	}

	metadata, err := marshalMetadata(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal transition metadata: %w", err)
	}

	result, err := r.db.querier(ctx).ExecContext(ctx, query,
		entry.OrderID.String(),
		string(entry.OldStatus),
		string(entry.NewStatus),
		actorID,
		entry.Action,
		entry.Reason,
		metadata,
		entry.IsAutomatic,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to append transition log entry",
			zap.String("order_id", entry.OrderID.String()), zap.Error(err))
		return fmt.Errorf("append transition log entry: %w", err)
	}

	if entry.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	return nil
}

func (r *TransitionLogRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*order.TransitionLogEntry, error) {
	query := `
		SELECT ` + transitionColumns + `
		FROM order_transitions
		WHERE order_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.querier(ctx).QueryContext(ctx, query, orderID.String())
	if err != nil {
		r.logger.Error("failed to list transition log",
			zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, fmt.Errorf("list transition log: %w", err)
	}
	defer rows.Close()

	var entries []*order.TransitionLogEntry
	for rows.Next() {
		entry, err := scanTransition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transition log entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *TransitionLogRepository) LastEntryInto(ctx context.Context, orderID uuid.UUID, status order.Status) (*order.TransitionLogEntry, error) {
	query := `
		SELECT ` + transitionColumns + `
		FROM order_transitions
		WHERE order_id = ? AND new_status = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	entry, err := scanTransition(r.db.querier(ctx).QueryRowContext(ctx, query, orderID.String(), string(status)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last transition into %s: %w", status, err)
	}
	return entry, nil
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

func scanTransition(row rowScanner) (*order.TransitionLogEntry, error) {
	var (
		entry     order.TransitionLogEntry
		orderID   string
		oldStatus string
		newStatus string
		actorID   sql.NullString
		metadata  []byte
	)

	err := row.Scan(&entry.ID, &orderID, &oldStatus, &newStatus, &actorID,
		&entry.Action, &entry.Reason, &metadata, &entry.IsAutomatic, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}

	if entry.OrderID, err = uuid.Parse(orderID); err != nil {
		return nil, fmt.Errorf("parse order id: %w", err)
	}
	entry.OldStatus = order.Status(oldStatus)
	entry.NewStatus = order.Status(newStatus)

	if actorID.Valid {
		a, err := uuid.Parse(actorID.String)
		if err != nil {
			return nil, fmt.Errorf("parse actor id: %w", err)
		}
		entry.ActorID = &a
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal transition metadata: %w", err)
		}
	}
	return &entry, nil
}

var _ port.TransitionLogRepository = (*TransitionLogRepository)(nil)
