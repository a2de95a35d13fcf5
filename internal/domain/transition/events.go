package transition

import "github.com/scribeworks/orderflow/internal/domain/order"

// Domain event keys emitted after successful transitions.
const (
	EventPaid               = "order.paid"
	EventAvailable          = "order.available"
	EventPendingAssignment  = "order.pending_writer_assignment"
	EventInProgress         = "order.in_progress"
	EventOnHold             = "order.on_hold"
	EventOffHold            = "order.off_hold"
	EventReassigned         = "order.reassigned"
	EventSubmitted          = "order.submitted"
	EventUnderEditing       = "order.under_editing"
	EventReviewed           = "order.reviewed"
	EventRated              = "order.rated"
	EventApproved           = "order.approved"
	EventCompleted          = "order.completed"
	EventRevisionRequested  = "order.revision_requested"
	EventRevisionInProgress = "order.revision_in_progress"
	EventRevised            = "order.revised"
	EventDisputed           = "order.disputed"
	EventCancelled          = "order.cancelled"
	EventReopened           = "order.reopened"
	EventRefunded           = "order.refunded"
)

// statusEvents maps a destination status to the event emitted on entry.
// Initial statuses (creation events belong to the order-creation
// collaborator) and the archival/tombstone statuses have no event.
var statusEvents = map[order.Status]string{
	order.StatusPaid:                    EventPaid,
	order.StatusAvailable:               EventAvailable,
	order.StatusPendingWriterAssignment: EventPendingAssignment,
	order.StatusInProgress:              EventInProgress,
	order.StatusOnHold:                  EventOnHold,
	order.StatusReassigned:              EventReassigned,
	order.StatusSubmitted:               EventSubmitted,
	order.StatusUnderEditing:            EventUnderEditing,
	order.StatusReviewed:                EventReviewed,
	order.StatusRated:                   EventRated,
	order.StatusApproved:                EventApproved,
	order.StatusCompleted:               EventCompleted,
	order.StatusRevisionRequested:       EventRevisionRequested,
	order.StatusRevisionInProgress:      EventRevisionInProgress,
	order.StatusRevised:                 EventRevised,
	order.StatusDisputed:                EventDisputed,
	order.StatusCancelled:               EventCancelled,
	order.StatusReopened:                EventReopened,
	order.StatusRefunded:                EventRefunded,
}

// offHoldTargets are the destinations a held order may resume to. All three
// collapse into the single off_hold event.
var offHoldTargets = map[order.Status]bool{
	order.StatusInProgress: true,
	order.StatusAvailable:  true,
	order.StatusReassigned: true,
}

// EventForTransition translates an executed edge into a domain event key.
// The second return is false when the edge emits nothing.
//
// Resuming from on_hold maps to order.off_hold for all three destination
// statuses, so the event key alone does not say where the order resumed to.
// Consumers needing the destination must read it from the event payload.
// This conflation matches the historical behavior and is kept deliberately;
// changing it is a question for the domain owners, not a refactor.
func EventForTransition(from, to order.Status) (string, bool) {
	if from == order.StatusOnHold && offHoldTargets[to] {
		return EventOffHold, true
	}
	key, ok := statusEvents[to]
	return key, ok
}
