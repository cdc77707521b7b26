package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opsdesk/dashboard/internal/core/domain"
)

// ResolveError maps errors returned by handlers to a status and a message
// safe to show. known is false for unexpected errors, which should be logged
// and rendered as a generic 500.
func ResolveError(err error) (status int, msg string, known bool) {
	// Echo's own errors (bind failures, validation, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message), true
	}

	// Auth service rejections are shown verbatim.
	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		status := authErr.Status
		if status < 400 || status >= 500 {
			status = http.StatusBadRequest
		}
		return status, authErr.Message, true
	}

	switch {
	case errors.Is(err, domain.ErrAuthUnavailable):
		return http.StatusServiceUnavailable, domain.ErrAuthUnavailable.Error(), true
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusUnauthorized, "session expired, sign in again", true
	case errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound, "profile not found", true
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound, "task not found", true
	case errors.Is(err, domain.ErrNotCandidate):
		return http.StatusConflict, err.Error(), true
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrInvalidTask),
		errors.Is(err, domain.ErrInvalidTaskStatus),
		errors.Is(err, domain.ErrInvalidPriority):
		return http.StatusUnprocessableEntity, err.Error(), true
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden", true
	}

	return http.StatusInternalServerError, "internal server error", false
}
