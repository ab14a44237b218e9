package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"conversation-service/internal/services"
)

// statusFor maps an engine error kind to its HTTP status.
func statusFor(err error) int {
	switch services.Kind(err) {
	case services.ErrNotFound, services.ErrReplyTargetNotFound:
		return http.StatusNotFound
	case services.ErrNotAParticipant, services.ErrForbidden, services.ErrMuted, services.ErrBlocked,
		services.ErrPrivateGroup, services.ErrCannotChangeOwner, services.ErrLimitExceeded:
		return http.StatusForbidden
	case services.ErrAlreadyMember, services.ErrAlreadyMemberOrPending, services.ErrAlreadyHandled,
		services.ErrAlreadyBlocked, services.ErrNotBlocked:
		return http.StatusConflict
	case services.ErrTooLate:
		return http.StatusGone
	case services.ErrInvalidArgument, services.ErrNotAGroup:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	var engineErr *services.Error
	msg := "internal error"
	if errors.As(err, &engineErr) {
		msg = engineErr.Error()
	}
	c.JSON(statusFor(err), gin.H{"error": msg})
}
