package order

// Status represents a position in the order lifecycle.
// It is the single source of truth for where an order stands; all mutations
// go through the transition engine, never through direct field writes.
type Status string

const (
	StatusCreated                 Status = "created"
	StatusPending                 Status = "pending"
	StatusUnpaid                  Status = "unpaid"
	StatusPaid                    Status = "paid"
	StatusAvailable               Status = "available"
	StatusPendingWriterAssignment Status = "pending_writer_assignment"
	StatusInProgress              Status = "in_progress"
	StatusOnHold                  Status = "on_hold"
	StatusReassigned              Status = "reassigned"
	StatusSubmitted               Status = "submitted"
	StatusUnderEditing            Status = "under_editing"
	StatusReviewed                Status = "reviewed"
	StatusRated                   Status = "rated"
	StatusApproved                Status = "approved"
	StatusCompleted               Status = "completed"
	StatusRevisionRequested       Status = "revision_requested"
	StatusRevisionInProgress      Status = "revision_in_progress"
	StatusRevised                 Status = "revised"
	StatusDisputed                Status = "disputed"
	StatusCancelled               Status = "cancelled"
	StatusReopened                Status = "reopened"
	StatusRefunded                Status = "refunded"
	StatusArchived                Status = "archived"
	StatusClosed                  Status = "closed"
	StatusDeleted                 Status = "deleted"
)

var validStatuses = map[Status]bool{
	StatusCreated:                 true,
	StatusPending:                 true,
	StatusUnpaid:                  true,
	StatusPaid:                    true,
	StatusAvailable:               true,
	StatusPendingWriterAssignment: true,
	StatusInProgress:              true,
	StatusOnHold:                  true,
	StatusReassigned:              true,
	StatusSubmitted:               true,
	StatusUnderEditing:            true,
	StatusReviewed:                true,
	StatusRated:                   true,
	StatusApproved:                true,
	StatusCompleted:               true,
	StatusRevisionRequested:       true,
	StatusRevisionInProgress:      true,
	StatusRevised:                 true,
	StatusDisputed:                true,
	StatusCancelled:               true,
	StatusReopened:                true,
	StatusRefunded:                true,
	StatusArchived:                true,
	StatusClosed:                  true,
	StatusDeleted:                 true,
}

// terminalStatuses have no outgoing edges; the engine's responsibility for an
// order ends when one of these is reached.
var terminalStatuses = map[Status]bool{
	StatusClosed:  true,
	StatusDeleted: true,
}

// initialStatuses are the statuses the external order-creation collaborator
// may place a new order in.
var initialStatuses = map[Status]bool{
	StatusCreated: true,
	StatusPending: true,
	StatusUnpaid:  true,
}

// IsValid returns true if the status is part of the closed enumeration.
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// IsTerminal returns true if the status has no outgoing transitions.
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// IsInitial returns true if an order may be created directly in this status.
func (s Status) IsInitial() bool {
	return initialStatuses[s]
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}
