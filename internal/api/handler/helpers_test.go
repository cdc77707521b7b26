package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/opsdesk/dashboard/internal/api/middleware"
	"github.com/opsdesk/dashboard/internal/core/domain"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code, msg, _ := ResolveError(err)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
	return e
}

func newRequest(method, target, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return req
}

// call runs h and renders a returned error through the test error handler.
func call(t *testing.T, e *echo.Echo, c echo.Context, h echo.HandlerFunc) {
	t.Helper()
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
}

func asAuthorized(c echo.Context, id, role string) {
	c.Set(middleware.ContextKeyUser, domain.UserIdentity{ID: id, Email: id + "@example.com"})
	c.Set(middleware.ContextKeyDecision, domain.AccessDecision{Kind: domain.AccessAuthorized, Role: role})
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return resp
}
