package handlers

import (
	"errors"
	"net/http"

	"rideshare/internal/domain"
	"rideshare/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.JSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		Details:   details,
		RequestID: middleware.GetRequestID(c),
	})
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	var (
		forbidden  domain.ForbiddenError
		seats      domain.SeatsUnavailableError
		transition domain.InvalidTransitionError
	)
	switch {
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.As(err, &forbidden):
		respondError(c, http.StatusForbidden, "forbidden", err.Error(), gin.H{"reason": forbidden.Reason})
	case errors.As(err, &seats):
		respondError(c, http.StatusConflict, "seats_unavailable", err.Error(), gin.H{
			"requested": seats.Requested,
			"available": seats.Available,
		})
	case errors.As(err, &transition):
		respondError(c, http.StatusConflict, "invalid_transition", err.Error(), gin.H{
			"from":   transition.From,
			"action": transition.Action,
		})
	case domain.IsTransient(err):
		c.Header("Retry-After", "1")
		respondError(c, http.StatusServiceUnavailable, "transient_store_error", "store busy, retry shortly", nil)
	default:
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "internal_error", "something went wrong", nil)
	}
}
