package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	// SecureCookieName is used over HTTPS. The __Host- prefix pins the cookie
	// to this host and path "/".
	SecureCookieName = "__Host-session"
	// DevCookieName is used when cookies are not marked Secure.
	DevCookieName = "session"

	ContextKeySessionID = "session_id"
)

// CookieConfig controls how the session cookie is issued.
type CookieConfig struct {
	Secure bool
}

// Name returns the cookie name for the configured transport.
func (cc CookieConfig) Name() string {
	if cc.Secure {
		return SecureCookieName
	}
	return DevCookieName
}

// Set issues the session cookie.
func (cc CookieConfig) Set(c echo.Context, sessionID string, expiresAt time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     cc.Name(),
		Value:    sessionID,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear removes the session cookie from the client.
func (cc CookieConfig) Clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     cc.Name(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Session copies the session cookie, when present, into the echo context.
// It never rejects a request.
func Session(cc CookieConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cookie, err := c.Cookie(cc.Name()); err == nil && cookie.Value != "" {
				c.Set(ContextKeySessionID, cookie.Value)
			}
			return next(c)
		}
	}
}

// SessionID returns the browser session id set by Session.
func SessionID(c echo.Context) string {
	id, _ := c.Get(ContextKeySessionID).(string)
	return id
}
