package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opsdesk/dashboard/internal/api/middleware"
	"github.com/opsdesk/dashboard/internal/core/domain"
)

// currentUser returns the identity the gate stored for this request. Routes
// behind RequireAuthorized always have one; its absence means the route was
// wired without the gate.
func currentUser(c echo.Context) (domain.UserIdentity, error) {
	u, ok := middleware.User(c)
	if !ok || u.ID == "" {
		return domain.UserIdentity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authenticated user")
	}
	return u, nil
}
