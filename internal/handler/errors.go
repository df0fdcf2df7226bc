package handler

import (
	"errors"
	"net/http"

	"github.com/staffsched/approvals/internal/approval"
	"github.com/staffsched/approvals/pkg/response"

	"github.com/gin-gonic/gin"
)

// errorStatus maps a workflow error to its HTTP status and response code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, approval.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, approval.ErrNoApproverFound):
		return http.StatusUnprocessableEntity, "no_approver_found"
	case errors.Is(err, approval.ErrAlreadyResolved):
		return http.StatusConflict, "already_resolved"
	case errors.Is(err, approval.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, approval.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, approval.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, approval.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, approval.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, approval.ErrMaterializationFailed):
		return http.StatusInternalServerError, "materialization_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError renders err as the JSON envelope. Server errors keep their detail out of the
// body and on the gin context for the request logger.
func writeError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		message = "internal server error"
	}
	c.JSON(status, response.ErrorWithCode(status, code, message))
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.ErrorWithCode(http.StatusBadRequest, "validation_error", "Invalid request body: "+err.Error()))
}
