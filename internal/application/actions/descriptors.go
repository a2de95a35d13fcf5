package actions

import (
	"github.com/scribeworks/orderflow/internal/domain/order"
)

// Descriptor declares a human-facing operation scoped to a status. A nil
// Target means a dedicated handler resolves the destination at execution
// time.
type Descriptor struct {
	Action       string
	Label        string
	Target       *order.Status
	AllowedRoles []order.Role
}

// Availability is a Descriptor annotated with whether its edge is currently
// legal, and a human-readable reason when it is not.
type Availability struct {
	Descriptor
	Legal  bool   `json:"legal"`
	Reason string `json:"reason,omitempty"`
}

// Action names. Automatic jobs use their own auto_* labels and call the
// executor directly, so they do not appear here.
const (
	ActionConfirmOrder    = "confirm_order"
	ActionRequestPayment  = "request_payment"
	ActionMarkPaid        = "mark_paid"
	ActionMakeAvailable   = "make_available"
	ActionAssignOrder     = "assign_order"
	ActionHoldOrder       = "hold_order"
	ActionResumeOrder     = "resume_order"
	ActionReassignOrder   = "reassign_order"
	ActionSubmitOrder     = "submit_order"
	ActionStartEditing    = "start_editing"
	ActionReviewOrder     = "review_order"
	ActionRequestRevision = "request_revision"
	ActionStartRevision   = "start_revision"
	ActionSubmitRevision  = "submit_revision"
	ActionRateOrder       = "rate_order"
	ActionApproveOrder    = "approve_order"
	ActionDisputeOrder    = "dispute_order"
	ActionCompleteOrder   = "complete_order"
	ActionCancelOrder     = "cancel_order"
	ActionReopenOrder     = "reopen_order"
	ActionRefundOrder     = "refund_order"
	ActionArchiveOrder    = "archive_order"
	ActionCloseOrder      = "close_order"
	ActionDeleteOrder     = "delete_order"
)

func target(s order.Status) *order.Status {
	return &s
}

var (
	staffRoles   = []order.Role{order.RoleSupport, order.RoleAdmin}
	clientStaff  = []order.Role{order.RoleClient, order.RoleSupport, order.RoleAdmin}
	adminOnly    = []order.Role{order.RoleAdmin}
	writerOnly   = []order.Role{order.RoleWriter}
	editorStaff  = []order.Role{order.RoleEditor, order.RoleSupport, order.RoleAdmin}
	disputeRoles = []order.Role{order.RoleClient, order.RoleSupport}
)

// defaultDescriptors maps each status to its ordered action list. Superadmin
// bypasses the role filters at lookup time, so it is never listed here.
func defaultDescriptors() map[order.Status][]Descriptor {
	return map[order.Status][]Descriptor{
		order.StatusCreated: {
			{ActionConfirmOrder, "Confirm Order", target(order.StatusPending), staffRoles},
			{ActionRequestPayment, "Request Payment", target(order.StatusUnpaid), staffRoles},
			{ActionCancelOrder, "Cancel Order", target(order.StatusCancelled), clientStaff},
			{ActionDeleteOrder, "Delete Order", target(order.StatusDeleted), adminOnly},
		},
		order.StatusPending: {
			{ActionRequestPayment, "Request Payment", target(order.StatusUnpaid), staffRoles},
			{ActionMarkPaid, "Mark as Paid", target(order.StatusPaid), staffRoles},
			{ActionCancelOrder, "Cancel Order", target(order.StatusCancelled), clientStaff},
			{ActionDeleteOrder, "Delete Order", target(order.StatusDeleted), adminOnly},
		},
		order.StatusUnpaid: {
			{ActionMarkPaid, "Mark as Paid", target(order.StatusPaid), staffRoles},
			{ActionHoldOrder, "Put On Hold", target(order.StatusOnHold), staffRoles},
			{ActionCancelOrder, "Cancel Order", target(order.StatusCancelled), clientStaff},
		},
		order.StatusPaid: {
			{ActionMakeAvailable, "Make Available", target(order.StatusAvailable), staffRoles},
			{ActionAssignOrder, "Assign Writer", nil, staffRoles},
			{ActionHoldOrder, "Put On Hold", target(order.StatusOnHold), staffRoles},
			{ActionCancelOrder, "Cancel Order", target(order.StatusCancelled), clientStaff},
			{ActionRefundOrder, "Refund Order", target(order.StatusRefunded), adminOnly},
		},
		order.StatusAvailable: {
			{ActionAssignOrder, "Assign Writer", nil, staffRoles},
			{ActionHoldOrder, "Put On Hold", target(order.StatusOnHold), staffRoles},
			{ActionCancelOrder, "Cancel Order", target(order.StatusCancelled), staffRoles},
		},
		order.StatusPendingWriterAssignment: {
			{ActionAssignOrder, "Assign Writer", nil, staffRoles},
			{ActionMakeAvailable, "Return to Pool", target(order.StatusAvailable), staffRoles},
			{ActionHoldOrder, "Put On Hold", target(order.StatusOnHold), staffRoles},
			{ActionCancelOrder, "Cancel Order", target(order.StatusCancelled), staffRoles},
		},
		order.StatusInProgress: {
			{ActionSubmitOrder, "Submit Work", target(order.StatusSubmitted), writerOnly},
			{ActionHoldOrder, "Put On Hold", target(order.StatusOnHold), staffRoles},
			{ActionReassignOrder, "Reassign Writer", target(order.StatusReassigned), staffRoles},
			{ActionCancelOrder, "Cancel Order", target(order.StatusCancelled), staffRoles},
		},
		order.StatusOnHold: {
			{ActionResumeOrder, "Resume Order", nil, staffRoles},
			{ActionReassignOrder, "Reassign Writer", target(order.StatusReassigned), staffRoles},
			{ActionCancelOrder, "Cancel Order", target(order.StatusCancelled), staffRoles},
		},
		order.StatusReassigned: {
			{ActionAssignOrder, "Assign Writer", nil, staffRoles},
			{ActionMakeAvailable, "Return to Pool", target(order.StatusAvailable), staffRoles},
			{ActionCancelOrder, "Cancel Order", target(order.StatusCancelled), staffRoles},
		},
		order.StatusSubmitted: {
			{ActionStartEditing, "Start Editing", target(order.StatusUnderEditing), editorStaff},
			{ActionReviewOrder, "Mark Reviewed", target(order.StatusReviewed), editorStaff},
			{ActionRequestRevision, "Request Revision", target(order.StatusRevisionRequested), clientStaff},
			{ActionCancelOrder, "Cancel Order", target(order.StatusCancelled), staffRoles},
		},
		order.StatusUnderEditing: {
			{ActionReviewOrder, "Mark Reviewed", target(order.StatusReviewed), editorStaff},
			{ActionRequestRevision, "Request Revision", target(order.StatusRevisionRequested), editorStaff},
		},
		order.StatusReviewed: {
			{ActionRateOrder, "Rate Order", target(order.StatusRated), []order.Role{order.RoleClient}},
			{ActionApproveOrder, "Approve Order", target(order.StatusApproved), clientStaff},
			{ActionRequestRevision, "Request Revision", target(order.StatusRevisionRequested), []order.Role{order.RoleClient}},
			{ActionDisputeOrder, "Open Dispute", target(order.StatusDisputed), disputeRoles},
		},
		order.StatusRated: {
			{ActionApproveOrder, "Approve Order", target(order.StatusApproved), clientStaff},
			{ActionDisputeOrder, "Open Dispute", target(order.StatusDisputed), disputeRoles},
		},
		order.StatusApproved: {
			{ActionCompleteOrder, "Complete Order", target(order.StatusCompleted), staffRoles},
			{ActionArchiveOrder, "Archive Order", target(order.StatusArchived), staffRoles},
			{ActionDisputeOrder, "Open Dispute", target(order.StatusDisputed), disputeRoles},
		},
		order.StatusCompleted: {
			{ActionCloseOrder, "Close Order", target(order.StatusClosed), staffRoles},
			{ActionArchiveOrder, "Archive Order", target(order.StatusArchived), staffRoles},
			{ActionDisputeOrder, "Open Dispute", target(order.StatusDisputed), disputeRoles},
		},
		order.StatusRevisionRequested: {
			{ActionStartRevision, "Start Revision", target(order.StatusRevisionInProgress), writerOnly},
			{ActionReassignOrder, "Reassign Writer", target(order.StatusReassigned), staffRoles},
			{ActionDisputeOrder, "Open Dispute", target(order.StatusDisputed), disputeRoles},
			{ActionCancelOrder, "Cancel Order", target(order.StatusCancelled), staffRoles},
		},
		order.StatusRevisionInProgress: {
			{ActionSubmitRevision, "Submit Revision", target(order.StatusRevised), writerOnly},
			{ActionHoldOrder, "Put On Hold", target(order.StatusOnHold), staffRoles},
			{ActionReassignOrder, "Reassign Writer", target(order.StatusReassigned), staffRoles},
		},
		order.StatusRevised: {
			{ActionReviewOrder, "Mark Reviewed", target(order.StatusReviewed), editorStaff},
			{ActionRequestRevision, "Request Revision", target(order.StatusRevisionRequested), []order.Role{order.RoleClient, order.RoleEditor}},
			{ActionApproveOrder, "Approve Order", target(order.StatusApproved), clientStaff},
		},
		order.StatusDisputed: {
			{ActionRefundOrder, "Refund Order", target(order.StatusRefunded), adminOnly},
			{ActionCompleteOrder, "Complete Order", target(order.StatusCompleted), staffRoles},
			{ActionCancelOrder, "Cancel Order", target(order.StatusCancelled), adminOnly},
		},
		order.StatusCancelled: {
			{ActionReopenOrder, "Reopen Order", target(order.StatusReopened), staffRoles},
			{ActionRefundOrder, "Refund Order", target(order.StatusRefunded), adminOnly},
			{ActionCloseOrder, "Close Order", target(order.StatusClosed), staffRoles},
			{ActionDeleteOrder, "Delete Order", target(order.StatusDeleted), adminOnly},
		},
		order.StatusReopened: {
			{ActionRequestPayment, "Request Payment", target(order.StatusUnpaid), staffRoles},
			{ActionMarkPaid, "Mark as Paid", target(order.StatusPaid), staffRoles},
			{ActionMakeAvailable, "Make Available", target(order.StatusAvailable), staffRoles},
		},
		order.StatusRefunded: {
			{ActionCloseOrder, "Close Order", target(order.StatusClosed), staffRoles},
			{ActionDeleteOrder, "Delete Order", target(order.StatusDeleted), adminOnly},
		},
		order.StatusArchived: {
			{ActionCloseOrder, "Close Order", target(order.StatusClosed), staffRoles},
		},
	}
}
