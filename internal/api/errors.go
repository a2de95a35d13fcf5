package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scribeworks/orderflow/internal/domain/transition"
)

// writeError maps engine errors to HTTP status codes with a structured body.
// The message carries enough context (current status, attempted target, legal
// alternatives, violated rule) to render a user-facing explanation.
func writeError(c *gin.Context, err error) {
	var status int
	var code string

	switch {
	case errors.Is(err, transition.ErrAlreadyInTargetStatus):
		status, code = http.StatusConflict, "already_in_target_status"
	case errors.Is(err, transition.ErrInvalidTransition):
		status, code = http.StatusUnprocessableEntity, "invalid_transition"
	case errors.Is(err, transition.ErrGuardViolation):
		status, code = http.StatusUnprocessableEntity, "guard_violation"
	case errors.Is(err, transition.ErrPermissionDenied):
		status, code = http.StatusForbidden, "permission_denied"
	case errors.Is(err, transition.ErrActionNotAvailable):
		status, code = http.StatusNotFound, "action_not_available"
	case errors.Is(err, transition.ErrTransitionConflict):
		status, code = http.StatusConflict, "transition_conflict"
	case errors.Is(err, sql.ErrNoRows):
		status, code = http.StatusNotFound, "order_not_found"
	default:
		status, code = http.StatusInternalServerError, "internal_error"
	}

	c.JSON(status, gin.H{
		"error":   code,
		"message": err.Error(),
	})
}
