package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/scribeworks/orderflow/internal/domain/transition"
)

// PaymentChecker reads the externally-recorded payments table. The payment
// subsystem writes order_payments; the engine only ever asks whether a
// completed payment exists.
type PaymentChecker struct {
	db *DB
}

func NewPaymentChecker(db *DB) *PaymentChecker {
	return &PaymentChecker{db: db}
}

func (c *PaymentChecker) HasCompletedPayment(ctx context.Context, orderID uuid.UUID) (bool, error) {
	query := `SELECT COUNT(1) FROM order_payments WHERE order_id = ? AND status = 'completed'`

	var count int
	err := c.db.querier(ctx).QueryRowContext(ctx, query, orderID.String()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check completed payment: %w", err)
	}
	return count > 0, nil
}

var _ transition.PaymentChecker = (*PaymentChecker)(nil)
