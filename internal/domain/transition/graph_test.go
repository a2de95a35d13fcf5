package transition

import (
	"testing"

	"github.com/scribeworks/orderflow/internal/domain/order"
)

func TestGraph_IsLegalEdge(t *testing.T) {
	g := NewGraph()

	tests := []struct {
		name     string
		from     order.Status
		to       order.Status
		expected bool
	}{
		{"unpaid to paid", order.StatusUnpaid, order.StatusPaid, true},
		{"unpaid to on_hold", order.StatusUnpaid, order.StatusOnHold, true},
		{"unpaid to in_progress", order.StatusUnpaid, order.StatusInProgress, true},
		{"paid to available", order.StatusPaid, order.StatusAvailable, true},
		{"in_progress to submitted", order.StatusInProgress, order.StatusSubmitted, true},
		{"on_hold resumes to in_progress", order.StatusOnHold, order.StatusInProgress, true},
		{"on_hold resumes to available", order.StatusOnHold, order.StatusAvailable, true},
		{"on_hold resumes to reassigned", order.StatusOnHold, order.StatusReassigned, true},
		{"cancelled can be reopened", order.StatusCancelled, order.StatusReopened, true},
		{"approved to archived", order.StatusApproved, order.StatusArchived, true},
		{"reviewed to rated", order.StatusReviewed, order.StatusRated, true},
		{"unpaid cannot jump to completed", order.StatusUnpaid, order.StatusCompleted, false},
		{"submitted cannot go back to unpaid", order.StatusSubmitted, order.StatusUnpaid, false},
		{"closed has no outgoing edges", order.StatusClosed, order.StatusReopened, false},
		{"deleted has no outgoing edges", order.StatusDeleted, order.StatusCreated, false},
		{"self loop is not an edge", order.StatusPaid, order.StatusPaid, false},
		{"unknown status", order.Status("shipped"), order.StatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.IsLegalEdge(tt.from, tt.to); got != tt.expected {
				t.Errorf("IsLegalEdge(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.expected)
			}
		})
	}
}

func TestGraph_AvailableTransitions(t *testing.T) {
	g := NewGraph()

	t.Run("terminal statuses return empty set", func(t *testing.T) {
		for _, s := range []order.Status{order.StatusClosed, order.StatusDeleted} {
			if got := g.AvailableTransitions(s); len(got) != 0 {
				t.Errorf("AvailableTransitions(%s) = %v, want empty", s, got)
			}
		}
	})

	t.Run("unknown status returns empty set", func(t *testing.T) {
		if got := g.AvailableTransitions(order.Status("shipped")); len(got) != 0 {
			t.Errorf("AvailableTransitions(unknown) = %v, want empty", got)
		}
	})

	t.Run("unpaid targets preserve table order", func(t *testing.T) {
		got := g.AvailableTransitions(order.StatusUnpaid)
		want := []order.Status{
			order.StatusPaid,
			order.StatusInProgress,
			order.StatusOnHold,
			order.StatusCancelled,
			order.StatusDeleted,
		}
		if len(got) != len(want) {
			t.Fatalf("AvailableTransitions(unpaid) = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("AvailableTransitions(unpaid)[%d] = %s, want %s", i, got[i], want[i])
			}
		}
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		first := g.AvailableTransitions(order.StatusPaid)
		first[0] = order.StatusDeleted
		second := g.AvailableTransitions(order.StatusPaid)
		if second[0] == order.StatusDeleted {
			t.Error("AvailableTransitions() must not expose internal state")
		}
	})
}

func TestGraph_EveryTargetIsAValidStatus(t *testing.T) {
	g := NewGraph()

	for from := range edgeTable {
		if !from.IsValid() {
			t.Errorf("edge table source %q is not a valid status", from)
		}
		for _, to := range g.AvailableTransitions(from) {
			if !to.IsValid() {
				t.Errorf("edge %s -> %s targets an invalid status", from, to)
			}
			if to == from {
				t.Errorf("edge table contains self loop on %s", from)
			}
		}
	}
}

func TestGraph_TerminalStatusesHaveNoEdges(t *testing.T) {
	for from := range edgeTable {
		if from.IsTerminal() {
			t.Errorf("terminal status %q must not appear as an edge source", from)
		}
	}
}

func TestGraph_IncomingEdges(t *testing.T) {
	g := NewGraph()

	edges := g.IncomingEdges(order.StatusRated)
	if len(edges) != 1 {
		t.Fatalf("IncomingEdges(rated) = %v, want exactly one edge", edges)
	}
	if edges[0].From != order.StatusReviewed {
		t.Errorf("IncomingEdges(rated)[0].From = %s, want reviewed", edges[0].From)
	}
}
