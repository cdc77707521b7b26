package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opsdesk/dashboard/internal/core/domain"
)

// RequireAuthorized enforces the decision stored by Gate. With no roles any
// authorized role passes.
func RequireAuthorized(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := Decision(c)
			switch d.Kind {
			case domain.AccessAuthorized:
				if !d.Authorized(roles...) {
					return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
				}
				return next(c)
			case domain.AccessPendingApproval:
				return c.JSON(http.StatusForbidden, map[string]string{"error": "pending approval"})
			case domain.AccessUndetermined:
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "role undetermined, try again later"})
			case domain.AccessLoading:
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "auth state still loading"})
			default:
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
			}
		}
	}
}
