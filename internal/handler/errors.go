package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kitbase/authsync/internal/autherr"
	"github.com/kitbase/authsync/internal/dto"
)

// statusForKind maps the error taxonomy onto HTTP statuses for the loopback
// API.
func statusForKind(kind autherr.Kind) int {
	switch kind {
	case autherr.KindInvalidCredentials, autherr.KindEmailNotFound:
		return http.StatusUnauthorized
	case autherr.KindEmailNotConfirmed:
		return http.StatusForbidden
	case autherr.KindAlreadyRegistered:
		return http.StatusConflict
	case autherr.KindInvalidEmailFormat, autherr.KindWeakPassword:
		return http.StatusBadRequest
	case autherr.KindRateLimited:
		return http.StatusTooManyRequests
	case autherr.KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeAuthError renders a classified auth failure.
func writeAuthError(c *gin.Context, err error) {
	kind := autherr.KindOf(err)
	c.JSON(statusForKind(kind), dto.ErrorResponse{
		Error:   "Authentication failed",
		Kind:    string(kind),
		Message: autherr.Format(err),
	})
}
