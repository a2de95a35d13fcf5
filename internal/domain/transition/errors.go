package transition

import (
	"errors"
	"fmt"

	"github.com/scribeworks/orderflow/internal/domain/order"
)

var (
	// ErrAlreadyInTargetStatus signals a no-op request: the order is already
	// in the requested status. Callers decide whether to treat it as success.
	ErrAlreadyInTargetStatus = errors.New("order already in target status")

	// ErrInvalidTransition is returned when the requested edge does not exist
	// in the state graph from the order's current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrGuardViolation is returned when a business rule blocks an otherwise
	// legal edge.
	ErrGuardViolation = errors.New("transition guard violation")

	// ErrPermissionDenied is returned when the actor's role is not authorized
	// for the requested action.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrActionNotAvailable is returned when the named action does not exist
	// for the order's current status.
	ErrActionNotAvailable = errors.New("action not available")

	// ErrTransitionConflict is returned when a concurrent transition won the
	// race and the order's status no longer matches what the caller read.
	ErrTransitionConflict = errors.New("concurrent transition conflict")
)

// AlreadyInTargetStatusError reports an idempotent no-op request.
type AlreadyInTargetStatusError struct {
	Status order.Status
}

func (e *AlreadyInTargetStatusError) Error() string {
	return fmt.Sprintf("order is already in status %q", e.Status)
}

func (e *AlreadyInTargetStatusError) Unwrap() error {
	return ErrAlreadyInTargetStatus
}

// InvalidTransitionError reports an illegal edge together with the full set
// of currently legal targets, for diagnostics.
type InvalidTransitionError struct {
	From    order.Status
	To      order.Status
	Allowed []order.Status
}

func (e *InvalidTransitionError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("cannot transition from %q to %q: %q is terminal", e.From, e.To, e.From)
	}
	return fmt.Sprintf("cannot transition from %q to %q: allowed targets are %v", e.From, e.To, e.Allowed)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// GuardViolationError names the violated rule and carries a user-renderable
// message.
type GuardViolationError struct {
	Rule    string
	Message string
}

func (e *GuardViolationError) Error() string {
	return fmt.Sprintf("guard %q rejected transition: %s", e.Rule, e.Message)
}

func (e *GuardViolationError) Unwrap() error {
	return ErrGuardViolation
}

// PermissionDeniedError reports a role not present in an action's allowed set.
type PermissionDeniedError struct {
	Action string
	Role   order.Role
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("role %q is not allowed to perform action %q", e.Role, e.Action)
}

func (e *PermissionDeniedError) Unwrap() error {
	return ErrPermissionDenied
}

// ActionNotAvailableError reports an action name unknown for the order's
// current status.
type ActionNotAvailableError struct {
	Action string
	Status order.Status
}

func (e *ActionNotAvailableError) Error() string {
	return fmt.Sprintf("action %q is not available in status %q", e.Action, e.Status)
}

func (e *ActionNotAvailableError) Unwrap() error {
	return ErrActionNotAvailable
}
