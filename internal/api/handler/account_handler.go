package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/opsdesk/dashboard/internal/api/middleware"
	"github.com/opsdesk/dashboard/internal/core/domain"
	"github.com/opsdesk/dashboard/internal/core/ports"
)

// AccountHandler handles the login page's credential flows.
type AccountHandler struct {
	service ports.AccountService
	cookie  middleware.CookieConfig
}

func NewAccountHandler(service ports.AccountService, cookie middleware.CookieConfig) *AccountHandler {
	return &AccountHandler{service: service, cookie: cookie}
}

// SignUp registers a new account.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Email and password"
// @Success      200   {object}  signInResponse  "signed in"
// @Success      202   {object}  signInResponse  "confirmation email sent"
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /auth/signup [post]
func (h *AccountHandler) SignUp(c echo.Context) error {
	var req credentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.SignUp(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	if res.Confirmation {
		return c.JSON(http.StatusAccepted, signInResponse{
			User:         res.User,
			Confirmation: true,
			Message:      "Check your email for the confirmation link.",
		})
	}

	h.cookie.Set(c, res.SessionID, time.Unix(res.ExpiresAt, 0))
	return c.JSON(http.StatusOK, signInResponse{User: res.User, ExpiresAt: res.ExpiresAt})
}

// SignIn opens a browser session.
//
// @Summary      Sign in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Email and password"
// @Success      200   {object}  signInResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /auth/signin [post]
func (h *AccountHandler) SignIn(c echo.Context) error {
	var req credentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.cookie.Set(c, res.SessionID, time.Unix(res.ExpiresAt, 0))
	return c.JSON(http.StatusOK, signInResponse{User: res.User, ExpiresAt: res.ExpiresAt})
}

// SignOut ends the browser session. It succeeds without a session.
//
// @Summary      Sign out
// @Tags         auth
// @Success      204
// @Router       /auth/signout [post]
func (h *AccountHandler) SignOut(c echo.Context) error {
	if err := h.service.SignOut(c.Request().Context(), middleware.SessionID(c)); err != nil {
		return err
	}
	h.cookie.Clear(c)
	return c.NoContent(http.StatusNoContent)
}

// Refresh rotates the session's tokens.
//
// @Summary      Refresh the session tokens
// @Tags         auth
// @Success      204
// @Failure      401   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /auth/refresh [post]
func (h *AccountHandler) Refresh(c echo.Context) error {
	sessionID := middleware.SessionID(c)
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
	}

	err := h.service.Refresh(c.Request().Context(), sessionID)
	var authErr *domain.AuthError
	if errors.Is(err, domain.ErrSessionNotFound) || errors.As(err, &authErr) {
		h.cookie.Clear(c)
	}
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
