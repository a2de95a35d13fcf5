package transition

import (
	"context"
	"testing"

	"github.com/scribeworks/orderflow/internal/domain/order"
)

func TestHookRegistry_RegistrationOrder(t *testing.T) {
	r := NewHookRegistry()
	var calls []string

	record := func(name string) Hook {
		return func(context.Context, *order.Order, *order.Actor, map[string]any) error {
			calls = append(calls, name)
			return nil
		}
	}

	r.RegisterBefore(order.StatusUnpaid, order.StatusPaid, "warm_cache", record("warm_cache"))
	r.RegisterBefore(order.StatusUnpaid, order.StatusPaid, "count_metric", record("count_metric"))
	r.RegisterAfter(order.StatusUnpaid, order.StatusPaid, "notify_wallet", record("notify_wallet"))

	before := r.Before(order.StatusUnpaid, order.StatusPaid)
	if len(before) != 2 {
		t.Fatalf("Before() returned %d hooks, want 2", len(before))
	}
	if before[0].Name != "warm_cache" || before[1].Name != "count_metric" {
		t.Errorf("Before() order = [%s, %s], want registration order", before[0].Name, before[1].Name)
	}

	after := r.After(order.StatusUnpaid, order.StatusPaid)
	if len(after) != 1 || after[0].Name != "notify_wallet" {
		t.Errorf("After() = %v, want single notify_wallet hook", after)
	}

	for _, h := range before {
		_ = h.Run(context.Background(), nil, nil, nil)
	}
	if len(calls) != 2 || calls[0] != "warm_cache" {
		t.Errorf("hooks ran as %v, want registration order", calls)
	}
}

func TestHookRegistry_UnknownEdgeIsEmpty(t *testing.T) {
	r := NewHookRegistry()
	if got := r.Before(order.StatusPaid, order.StatusAvailable); len(got) != 0 {
		t.Errorf("Before() on unregistered edge = %v, want empty", got)
	}
	if got := r.After(order.StatusPaid, order.StatusAvailable); len(got) != 0 {
		t.Errorf("After() on unregistered edge = %v, want empty", got)
	}
}
