package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scribeworks/orderflow/internal/application/port"
	"github.com/scribeworks/orderflow/internal/domain/order"
)

// OrderRepository handles order persistence.
type OrderRepository struct {
	db     *DB
	logger *zap.Logger
}

func NewOrderRepository(db *DB, logger *zap.Logger) *OrderRepository {
	return &OrderRepository{db: db, logger: logger}
}

const orderColumns = `id, client_id, topic, pages, status, is_paid, assigned_writer, created_at, updated_at`

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	query := `
		INSERT INTO orders (id, client_id, topic, pages, status, is_paid, assigned_writer, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	var writer any
	if o.AssignedWriter != nil {
		writer = o.AssignedWriter.String()
	}

	_, err := r.db.querier(ctx).ExecContext(ctx, query,
		o.ID.String(),
		o.ClientID.String(),
		o.Topic,
		o.Pages,
		string(o.Status),
		o.IsPaid,
		writer,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create order", zap.String("order_id", o.ID.String()), zap.Error(err))
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`

	o, err := scanOrder(r.db.querier(ctx).QueryRowContext(ctx, query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, sql.ErrNoRows)
	}
	if err != nil {
		r.logger.Error("failed to get order", zap.String("order_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// UpdateStatusFrom performs the conditional status write that decides which
// of several concurrent transitions wins. Zero affected rows means the status
// no longer matches what the caller read.
func (r *OrderRepository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to order.Status, at time.Time) error {
	query := `UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`

	result, err := r.db.querier(ctx).ExecContext(ctx, query,
		string(to), at, id.String(), string(from))
	if err != nil {
		r.logger.Error("failed to update order status",
			zap.String("order_id", id.String()),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
			zap.Error(err))
		return fmt.Errorf("update order status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return port.ErrNoRowsUpdated
	}
	return nil
}

func (r *OrderRepository) SetPaid(ctx context.Context, id uuid.UUID, paid bool) error {
	query := `UPDATE orders SET is_paid = ?, updated_at = ? WHERE id = ?`

	_, err := r.db.querier(ctx).ExecContext(ctx, query, paid, time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("set order paid: %w", err)
	}
	return nil
}

func (r *OrderRepository) AssignWriter(ctx context.Context, id uuid.UUID, writerID uuid.UUID) error {
	query := `UPDATE orders SET assigned_writer = ?, updated_at = ? WHERE id = ?`

	_, err := r.db.querier(ctx).ExecContext(ctx, query, writerID.String(), time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("assign writer: %w", err)
	}
	return nil
}

func (r *OrderRepository) ListByStatus(ctx context.Context, status order.Status) ([]*order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = ? ORDER BY created_at ASC`
	return r.list(ctx, query, string(status))
}

func (r *OrderRepository) ListByStatusOlderThan(ctx context.Context, status order.Status, cutoff time.Time) ([]*order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = ? AND updated_at < ? ORDER BY updated_at ASC`
	return r.list(ctx, query, string(status), cutoff)
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]*order.Order, error) {
	rows, err := r.db.querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list orders", zap.Error(err))
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var (
		o        order.Order
		id       string
		clientID string
		status   string
		writer   sql.NullString
	)

	err := row.Scan(&id, &clientID, &o.Topic, &o.Pages, &status, &o.IsPaid, &writer, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if o.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse order id: %w", err)
	}
	if o.ClientID, err = uuid.Parse(clientID); err != nil {
		return nil, fmt.Errorf("parse client id: %w", err)
	}
	o.Status = order.Status(status)

	if writer.Valid {
		w, err := uuid.Parse(writer.String)
		if err != nil {
			return nil, fmt.Errorf("parse writer id: %w", err)
		}
		o.AssignedWriter = &w
	}
	return &o, nil
}

var _ port.OrderRepository = (*OrderRepository)(nil)
