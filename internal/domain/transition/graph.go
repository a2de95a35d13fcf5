package transition

import "github.com/scribeworks/orderflow/internal/domain/order"

// Edge is an ordered pair of statuses denoting a legal transition.
type Edge struct {
	From order.Status
	To   order.Status
}

// edgeTable is the authoritative adjacency list of legal status transitions.
// Adding or removing an edge is a behavioral change, not a refactor: guards,
// the action catalog and the event mapping all key off this table.
var edgeTable = map[order.Status][]order.Status{
	order.StatusCreated: {
		order.StatusPending,
		order.StatusUnpaid,
		order.StatusCancelled,
		order.StatusDeleted,
	},
	order.StatusPending: {
		order.StatusUnpaid,
		order.StatusPaid,
		order.StatusCancelled,
		order.StatusDeleted,
	},
	order.StatusUnpaid: {
		order.StatusPaid,
		order.StatusInProgress,
		order.StatusOnHold,
		order.StatusCancelled,
		order.StatusDeleted,
	},
	order.StatusPaid: {
		order.StatusAvailable,
		order.StatusPendingWriterAssignment,
		order.StatusInProgress,
		order.StatusOnHold,
		order.StatusCancelled,
		order.StatusRefunded,
	},
	order.StatusAvailable: {
		order.StatusPendingWriterAssignment,
		order.StatusInProgress,
		order.StatusOnHold,
		order.StatusCancelled,
	},
	order.StatusPendingWriterAssignment: {
		order.StatusInProgress,
		order.StatusAvailable,
		order.StatusOnHold,
		order.StatusCancelled,
	},
	order.StatusInProgress: {
		order.StatusSubmitted,
		order.StatusOnHold,
		order.StatusReassigned,
		order.StatusCancelled,
	},
	order.StatusOnHold: {
		order.StatusInProgress,
		order.StatusAvailable,
		order.StatusReassigned,
		order.StatusCancelled,
	},
	order.StatusReassigned: {
		order.StatusAvailable,
		order.StatusPendingWriterAssignment,
		order.StatusInProgress,
		order.StatusCancelled,
	},
	order.StatusSubmitted: {
		order.StatusUnderEditing,
		order.StatusReviewed,
		order.StatusRevisionRequested,
		order.StatusCancelled,
	},
	order.StatusUnderEditing: {
		order.StatusReviewed,
		order.StatusRevisionRequested,
	},
	order.StatusReviewed: {
		order.StatusRated,
		order.StatusApproved,
		order.StatusRevisionRequested,
		order.StatusDisputed,
	},
	order.StatusRated: {
		order.StatusApproved,
		order.StatusDisputed,
	},
	order.StatusApproved: {
		order.StatusCompleted,
		order.StatusArchived,
		order.StatusDisputed,
	},
	order.StatusCompleted: {
		order.StatusClosed,
		order.StatusArchived,
		order.StatusDisputed,
	},
	order.StatusRevisionRequested: {
		order.StatusRevisionInProgress,
		order.StatusReassigned,
		order.StatusDisputed,
		order.StatusCancelled,
	},
	order.StatusRevisionInProgress: {
		order.StatusRevised,
		order.StatusOnHold,
		order.StatusReassigned,
	},
	order.StatusRevised: {
		order.StatusReviewed,
		order.StatusRevisionRequested,
		order.StatusApproved,
	},
	order.StatusDisputed: {
		order.StatusRefunded,
		order.StatusCompleted,
		order.StatusCancelled,
	},
	order.StatusCancelled: {
		order.StatusReopened,
		order.StatusRefunded,
		order.StatusClosed,
		order.StatusDeleted,
	},
	order.StatusReopened: {
		order.StatusUnpaid,
		order.StatusPaid,
		order.StatusAvailable,
		order.StatusInProgress,
	},
	order.StatusRefunded: {
		order.StatusClosed,
		order.StatusDeleted,
	},
	order.StatusArchived: {
		order.StatusClosed,
	},
	// closed and deleted are terminal tombstones with no outgoing edges.
}

// Graph answers legality queries against the fixed edge table.
// It is built once at process start and never mutated.
type Graph struct {
	adjacency map[order.Status]map[order.Status]bool
	ordered   map[order.Status][]order.Status
}

// NewGraph builds the graph from the authoritative edge table.
func NewGraph() *Graph {
	g := &Graph{
		adjacency: make(map[order.Status]map[order.Status]bool, len(edgeTable)),
		ordered:   make(map[order.Status][]order.Status, len(edgeTable)),
	}

	for from, targets := range edgeTable {
		set := make(map[order.Status]bool, len(targets))
		for _, to := range targets {
			set[to] = true
		}
		g.adjacency[from] = set
		g.ordered[from] = append([]order.Status{}, targets...)
	}

	return g
}

// AvailableTransitions returns the legal targets from a status, in table
// order. Unknown and terminal statuses return an empty slice.
func (g *Graph) AvailableTransitions(from order.Status) []order.Status {
	targets, exists := g.ordered[from]
	if !exists {
		return []order.Status{}
	}
	return append([]order.Status{}, targets...)
}

// IsLegalEdge returns true if (from, to) is present in the edge table.
func (g *Graph) IsLegalEdge(from, to order.Status) bool {
	return g.adjacency[from][to]
}

// IncomingEdges returns every edge in the table that enters the given status.
// Used when attaching guards to all edges into a status.
func (g *Graph) IncomingEdges(to order.Status) []Edge {
	var edges []Edge
	for from, targets := range g.adjacency {
		if targets[to] {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}
