package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scribeworks/orderflow/internal/application/port"
	"github.com/scribeworks/orderflow/internal/domain/order"
	"github.com/scribeworks/orderflow/internal/domain/transition"
)

// Mock implementations

type mockOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*order.Order
}

func newMockOrderRepo(orders ...*order.Order) *mockOrderRepo {
	m := &mockOrderRepo{orders: make(map[uuid.UUID]*order.Order)}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, errors.New("order not found")
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) UpdateStatusFrom(_ context.Context, id uuid.UUID, from, to order.Status, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.Status != from {
		return port.ErrNoRowsUpdated
	}
	o.Status = to
	o.UpdatedAt = at
	return nil
}

func (m *mockOrderRepo) SetPaid(_ context.Context, id uuid.UUID, paid bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[id].IsPaid = paid
	return nil
}

func (m *mockOrderRepo) AssignWriter(_ context.Context, id uuid.UUID, writerID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[id].AssignedWriter = &writerID
	return nil
}

func (m *mockOrderRepo) ListByStatus(_ context.Context, status order.Status) ([]*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*order.Order
	for _, o := range m.orders {
		if o.Status == status {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) ListByStatusOlderThan(ctx context.Context, status order.Status, cutoff time.Time) ([]*order.Order, error) {
	all, _ := m.ListByStatus(ctx, status)
	var out []*order.Order
	for _, o := range all {
		if o.UpdatedAt.Before(cutoff) {
			out = append(out, o)
		}
	}
	return out, nil
}

type mockTranslog struct {
	mu        sync.Mutex
	entries   []*order.TransitionLogEntry
	appendErr error
}

func (m *mockTranslog) Append(_ context.Context, entry *order.TransitionLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockTranslog) ListByOrderID(_ context.Context, orderID uuid.UUID) ([]*order.TransitionLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*order.TransitionLogEntry
	for _, e := range m.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockTranslog) LastEntryInto(_ context.Context, orderID uuid.UUID, status order.Status) (*order.TransitionLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].OrderID == orderID && m.entries[i].NewStatus == status {
			return m.entries[i], nil
		}
	}
	return nil, nil
}

func (m *mockTranslog) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// mockTx runs the function directly; atomicity in tests comes from the
// conditional update in mockOrderRepo.
type mockTx struct{}

func (mockTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockEmitter struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (m *mockEmitter) Emit(_ context.Context, key string, _ *order.Order, _ *order.Actor, _ map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.keys = append(m.keys, key)
	return nil
}

type mockAudit struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockAudit) Log(context.Context, *order.Actor, string, string, map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.err
}

type fixture struct {
	executor *Executor
	orders   *mockOrderRepo
	translog *mockTranslog
	emitter  *mockEmitter
	audit    *mockAudit
	hooks    *transition.HookRegistry
}

func newFixture(t *testing.T, guards *transition.GuardRegistry, orders ...*order.Order) *fixture {
	t.Helper()
	g := transition.NewGraph()
	if guards == nil {
		guards = transition.NewGuardRegistry()
	}
	f := &fixture{
		orders:   newMockOrderRepo(orders...),
		translog: &mockTranslog{},
		emitter:  &mockEmitter{},
		audit:    &mockAudit{},
		hooks:    transition.NewHookRegistry(),
	}
	f.executor = New(
		g, guards, f.hooks, f.orders, f.translog, mockTx{}, zap.NewNop(),
		WithEventEmitter(f.emitter),
		WithAuditLogger(f.audit),
		WithSideEffectTimeout(time.Second),
	)
	return f
}

func unpaidOrder() *order.Order {
	return &order.Order{
		ID:       uuid.New(),
		ClientID: uuid.New(),
		Status:   order.StatusUnpaid,
	}
}

func TestExecutor_SuccessfulTransition(t *testing.T) {
	o := unpaidOrder()
	f := newFixture(t, nil, o)

	updated, err := f.executor.Transition(context.Background(), Request{
		OrderID: o.ID,
		Target:  order.StatusPaid,
		Actor:   &order.Actor{ID: uuid.New(), Role: order.RoleSupport},
		Action:  "mark_paid",
		Reason:  "bank transfer received",
	})
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if updated.Status != order.StatusPaid {
		t.Errorf("updated status = %s, want paid", updated.Status)
	}

	stored, _ := f.orders.GetByID(context.Background(), o.ID)
	if stored.Status != order.StatusPaid {
		t.Errorf("stored status = %s, want paid", stored.Status)
	}

	entries, _ := f.translog.ListByOrderID(context.Background(), o.ID)
	if len(entries) != 1 {
		t.Fatalf("transition log has %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.OldStatus != order.StatusUnpaid || e.NewStatus != order.StatusPaid {
		t.Errorf("log entry edge = %s -> %s, want unpaid -> paid", e.OldStatus, e.NewStatus)
	}
	if e.Action != "mark_paid" || e.ActorID == nil || e.IsAutomatic {
		t.Errorf("log entry = %+v, want manual mark_paid with actor", e)
	}

	if len(f.emitter.keys) != 1 || f.emitter.keys[0] != transition.EventPaid {
		t.Errorf("emitted events = %v, want [%s]", f.emitter.keys, transition.EventPaid)
	}
	if f.audit.calls != 1 {
		t.Errorf("audit calls = %d, want 1", f.audit.calls)
	}
}

func TestExecutor_Idempotency(t *testing.T) {
	o := unpaidOrder()
	f := newFixture(t, nil, o)

	_, err := f.executor.Transition(context.Background(), Request{
		OrderID: o.ID,
		Target:  order.StatusUnpaid,
	})
	if !errors.Is(err, transition.ErrAlreadyInTargetStatus) {
		t.Fatalf("Transition() error = %v, want AlreadyInTargetStatus", err)
	}

	stored, _ := f.orders.GetByID(context.Background(), o.ID)
	if stored.Status != order.StatusUnpaid {
		t.Errorf("status mutated to %s on idempotent request", stored.Status)
	}
	if f.translog.count() != 0 {
		t.Errorf("transition log has %d entries after no-op, want 0", f.translog.count())
	}
}

func TestExecutor_InvalidTransitionListsAlternatives(t *testing.T) {
	o := unpaidOrder()
	f := newFixture(t, nil, o)

	_, err := f.executor.Transition(context.Background(), Request{
		OrderID: o.ID,
		Target:  order.StatusCompleted,
	})
	if !errors.Is(err, transition.ErrInvalidTransition) {
		t.Fatalf("Transition() error = %v, want InvalidTransition", err)
	}

	var ite *transition.InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("error %T does not unwrap to InvalidTransitionError", err)
	}
	if len(ite.Allowed) == 0 {
		t.Error("InvalidTransitionError carries no legal alternatives")
	}
	if !strings.Contains(err.Error(), "paid") {
		t.Errorf("error %q should list legal targets", err.Error())
	}
}

func TestExecutor_EdgeClosure(t *testing.T) {
	g := transition.NewGraph()
	ctx := context.Background()

	for _, from := range []order.Status{order.StatusUnpaid, order.StatusPaid, order.StatusClosed, order.StatusDeleted} {
		for to := range map[order.Status]bool{
			order.StatusCreated: true, order.StatusPaid: true, order.StatusInProgress: true,
			order.StatusCompleted: true, order.StatusClosed: true, order.StatusReopened: true,
		} {
			if from == to || g.IsLegalEdge(from, to) {
				continue
			}
			o := unpaidOrder()
			o.Status = from
			f := newFixture(t, nil, o)

			_, err := f.executor.Transition(ctx, Request{OrderID: o.ID, Target: to})
			if !errors.Is(err, transition.ErrInvalidTransition) {
				t.Errorf("Transition(%s -> %s) error = %v, want InvalidTransition", from, to, err)
			}
		}
	}
}

func TestExecutor_TerminalStatus(t *testing.T) {
	o := unpaidOrder()
	o.Status = order.StatusClosed
	f := newFixture(t, nil, o)

	if got := f.executor.AvailableTransitions(order.StatusClosed); len(got) != 0 {
		t.Errorf("AvailableTransitions(closed) = %v, want empty", got)
	}

	_, err := f.executor.Transition(context.Background(), Request{OrderID: o.ID, Target: order.StatusReopened})
	if !errors.Is(err, transition.ErrInvalidTransition) {
		t.Errorf("Transition() from closed error = %v, want InvalidTransition", err)
	}
}

func TestExecutor_GuardEnforcement(t *testing.T) {
	o := unpaidOrder()
	w := uuid.New()
	o.AssignedWriter = &w

	guards := transition.NewDefaultGuardRegistry(transition.NewGraph(), nil)
	f := newFixture(t, guards, o)
	ctx := context.Background()

	_, err := f.executor.Transition(ctx, Request{
		OrderID: o.ID,
		Target:  order.StatusInProgress,
		Actor:   &order.Actor{ID: uuid.New(), Role: order.RoleClient},
	})
	if !errors.Is(err, transition.ErrGuardViolation) {
		t.Fatalf("Transition() error = %v, want guard violation", err)
	}
	if !strings.Contains(err.Error(), "payment") {
		t.Errorf("error %q should mention payment", err.Error())
	}
	if f.translog.count() != 0 {
		t.Error("guard failure must not append a transition log entry")
	}

	updated, err := f.executor.Transition(ctx, Request{
		OrderID:          o.ID,
		Target:           order.StatusInProgress,
		Actor:            &order.Actor{ID: uuid.New(), Role: order.RoleAdmin},
		SkipPaymentCheck: true,
	})
	if err != nil {
		t.Fatalf("Transition() with admin skip error = %v", err)
	}
	if updated.Status != order.StatusInProgress {
		t.Errorf("status = %s, want in_progress", updated.Status)
	}
}

func TestExecutor_CancellationGuardScenario(t *testing.T) {
	guards := transition.NewDefaultGuardRegistry(transition.NewGraph(), nil)
	ctx := context.Background()

	t.Run("client blocked", func(t *testing.T) {
		o := unpaidOrder()
		o.Status = order.StatusPaid
		o.IsPaid = true
		f := newFixture(t, guards, o)

		_, err := f.executor.Transition(ctx, Request{
			OrderID: o.ID,
			Target:  order.StatusCancelled,
			Actor:   &order.Actor{ID: uuid.New(), Role: order.RoleClient},
		})
		if !errors.Is(err, transition.ErrGuardViolation) {
			t.Fatalf("Transition() error = %v, want guard violation", err)
		}
		if !strings.Contains(err.Error(), "administrators can cancel paid orders") {
			t.Errorf("error %q should explain the cancellation rule", err.Error())
		}
	})

	t.Run("admin succeeds", func(t *testing.T) {
		o := unpaidOrder()
		o.Status = order.StatusPaid
		o.IsPaid = true
		f := newFixture(t, guards, o)

		updated, err := f.executor.Transition(ctx, Request{
			OrderID: o.ID,
			Target:  order.StatusCancelled,
			Actor:   &order.Actor{ID: uuid.New(), Role: order.RoleAdmin},
		})
		if err != nil {
			t.Fatalf("Transition() error = %v", err)
		}
		if updated.Status != order.StatusCancelled {
			t.Errorf("status = %s, want cancelled", updated.Status)
		}
	})
}

func TestExecutor_HookNonFatality(t *testing.T) {
	o := unpaidOrder()
	f := newFixture(t, nil, o)

	f.hooks.RegisterBefore(order.StatusUnpaid, order.StatusPaid, "always_fails",
		func(context.Context, *order.Order, *order.Actor, map[string]any) error {
			return errors.New("cache warmup failed")
		})
	f.hooks.RegisterBefore(order.StatusUnpaid, order.StatusPaid, "always_panics",
		func(context.Context, *order.Order, *order.Actor, map[string]any) error {
			panic("boom")
		})

	var afterRan bool
	f.hooks.RegisterAfter(order.StatusUnpaid, order.StatusPaid, "observer",
		func(context.Context, *order.Order, *order.Actor, map[string]any) error {
			afterRan = true
			return nil
		})

	updated, err := f.executor.Transition(context.Background(), Request{
		OrderID: o.ID,
		Target:  order.StatusPaid,
		Action:  "mark_paid",
	})
	if err != nil {
		t.Fatalf("Transition() error = %v, hooks must not be fatal", err)
	}
	if updated.Status != order.StatusPaid {
		t.Errorf("status = %s, want paid", updated.Status)
	}
	if f.translog.count() != 1 {
		t.Errorf("transition log has %d entries, want 1", f.translog.count())
	}
	if !afterRan {
		t.Error("after-hook did not run")
	}
}

func TestExecutor_EmitterFailureNonFatal(t *testing.T) {
	o := unpaidOrder()
	f := newFixture(t, nil, o)
	f.emitter.err = errors.New("broker unavailable")
	f.audit.err = errors.New("audit sink down")

	updated, err := f.executor.Transition(context.Background(), Request{
		OrderID: o.ID,
		Target:  order.StatusPaid,
	})
	if err != nil {
		t.Fatalf("Transition() error = %v, emitter/audit failures must not surface", err)
	}
	if updated.Status != order.StatusPaid {
		t.Errorf("status = %s, want paid", updated.Status)
	}
}

func TestExecutor_TransitionLogWrittenWhenAuditDisabled(t *testing.T) {
	o := unpaidOrder()
	g := transition.NewGraph()
	orders := newMockOrderRepo(o)
	translog := &mockTranslog{}
	audit := &mockAudit{}

	executor := New(
		g, transition.NewGuardRegistry(), transition.NewHookRegistry(),
		orders, translog, mockTx{}, zap.NewNop(),
		WithAuditLogger(audit),
		WithAuditDisabled(),
	)

	_, err := executor.Transition(context.Background(), Request{OrderID: o.ID, Target: order.StatusPaid})
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if translog.count() != 1 {
		t.Errorf("transition log has %d entries, want 1 even with audit disabled", translog.count())
	}
	if audit.calls != 0 {
		t.Errorf("audit called %d times while disabled, want 0", audit.calls)
	}
}

func TestExecutor_OffHoldEvent(t *testing.T) {
	o := unpaidOrder()
	o.Status = order.StatusOnHold
	f := newFixture(t, nil, o)

	_, err := f.executor.Transition(context.Background(), Request{
		OrderID:     o.ID,
		Target:      order.StatusInProgress,
		IsAutomatic: true,
	})
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if len(f.emitter.keys) != 1 || f.emitter.keys[0] != transition.EventOffHold {
		t.Errorf("emitted events = %v, want [%s]", f.emitter.keys, transition.EventOffHold)
	}

	entries, _ := f.translog.ListByOrderID(context.Background(), o.ID)
	if len(entries) != 1 || !entries[0].IsAutomatic || entries[0].ActorID != nil {
		t.Errorf("log entry = %+v, want automatic entry with nil actor", entries[0])
	}
}

func TestExecutor_AtMostOneWinnerUnderConcurrency(t *testing.T) {
	o := unpaidOrder()
	f := newFixture(t, nil, o)
	ctx := context.Background()

	targets := []order.Status{order.StatusPaid, order.StatusOnHold}
	results := make([]error, len(targets))

	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target order.Status) {
			defer wg.Done()
			_, err := f.executor.Transition(ctx, Request{OrderID: o.ID, Target: target})
			results[i] = err
		}(i, target)
	}
	wg.Wait()

	var wins int
	var winner order.Status
	for i, err := range results {
		if err == nil {
			wins++
			winner = targets[i]
			continue
		}
		if !errors.Is(err, transition.ErrAlreadyInTargetStatus) &&
			!errors.Is(err, transition.ErrInvalidTransition) &&
			!errors.Is(err, transition.ErrTransitionConflict) {
			t.Errorf("loser error = %v, want no-op, illegal edge or conflict", err)
		}
	}
	if wins != 1 {
		t.Fatalf("%d transitions succeeded, want exactly 1", wins)
	}

	stored, _ := f.orders.GetByID(ctx, o.ID)
	if stored.Status != winner {
		t.Errorf("final status = %s, want winner's target %s", stored.Status, winner)
	}
	if f.translog.count() != 1 {
		t.Errorf("transition log has %d entries for the race, want exactly 1", f.translog.count())
	}
}

func TestExecutor_ConflictWhenStatusMovesBeforeCommit(t *testing.T) {
	ctx := context.Background()

	// A before-hook that commits a competing transition makes the
	// interleaving deterministic: the outer attempt validated one edge but
	// the row has moved by the time its transaction reads it.
	t.Run("losing attempt aborts", func(t *testing.T) {
		o := unpaidOrder()
		f := newFixture(t, nil, o)
		f.hooks.RegisterBefore(order.StatusUnpaid, order.StatusOnHold, "competing_writer",
			func(hctx context.Context, ho *order.Order, _ *order.Actor, _ map[string]any) error {
				return f.orders.UpdateStatusFrom(hctx, ho.ID, order.StatusUnpaid, order.StatusPaid, time.Now().UTC())
			})

		_, err := f.executor.Transition(ctx, Request{OrderID: o.ID, Target: order.StatusOnHold})
		if !errors.Is(err, transition.ErrTransitionConflict) {
			t.Fatalf("Transition() error = %v, want conflict", err)
		}

		stored, _ := f.orders.GetByID(ctx, o.ID)
		if stored.Status != order.StatusPaid {
			t.Errorf("final status = %s, want the competing winner paid", stored.Status)
		}
		if f.translog.count() != 0 {
			t.Errorf("aborted attempt appended %d log entries, want 0", f.translog.count())
		}
	})

	// The abort also closes the guard bypass: a client's cancellation of a
	// not-yet-paid order must not land after the order becomes paid, since
	// the paid-cancellation guard never saw the paid state.
	t.Run("stale cancellation cannot outrun payment", func(t *testing.T) {
		o := unpaidOrder()
		guards := transition.NewDefaultGuardRegistry(transition.NewGraph(), nil)
		f := newFixture(t, guards, o)
		f.hooks.RegisterBefore(order.StatusUnpaid, order.StatusCancelled, "competing_payment",
			func(hctx context.Context, ho *order.Order, _ *order.Actor, _ map[string]any) error {
				return f.orders.UpdateStatusFrom(hctx, ho.ID, order.StatusUnpaid, order.StatusPaid, time.Now().UTC())
			})

		_, err := f.executor.Transition(ctx, Request{
			OrderID: o.ID,
			Target:  order.StatusCancelled,
			Actor:   &order.Actor{ID: uuid.New(), Role: order.RoleClient},
		})
		if !errors.Is(err, transition.ErrTransitionConflict) {
			t.Fatalf("Transition() error = %v, want conflict", err)
		}

		stored, _ := f.orders.GetByID(ctx, o.ID)
		if stored.Status != order.StatusPaid {
			t.Errorf("final status = %s, want paid", stored.Status)
		}
	})
}

func TestExecutor_StorageFailurePropagates(t *testing.T) {
	o := unpaidOrder()
	f := newFixture(t, nil, o)
	f.translog.appendErr = errors.New("disk full")

	_, err := f.executor.Transition(context.Background(), Request{OrderID: o.ID, Target: order.StatusPaid})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Transition() error = %v, want propagated storage failure", err)
	}
}
