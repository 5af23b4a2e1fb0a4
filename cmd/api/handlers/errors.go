package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"institute-reviews/cmd/api/dto"
	"institute-reviews/cmd/api/services"
	"institute-reviews/cmd/api/trace"
	"institute-reviews/cmd/internal/logger"
)

// statusFor maps service error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes {"error": ...}. 5xx responses hide the cause and log it instead.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.ErrorWithFields("request failed", logger.Fields{
			"error":      err.Error(),
			"path":       c.FullPath(),
			"request_id": trace.RequestIDFromContext(c.Request.Context()),
		})
		msg = http.StatusText(status)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, dto.ErrorResponseDTO{Error: msg})
}
