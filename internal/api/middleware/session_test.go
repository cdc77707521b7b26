package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestCookieConfig_SetAndClear(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/signin", nil), rec)

	cc := CookieConfig{Secure: true}
	cc.Set(c, "sess-1", time.Now().Add(time.Hour))

	header := rec.Header().Get(echo.HeaderSetCookie)
	for _, want := range []string{"__Host-session=sess-1", "Path=/", "HttpOnly", "Secure", "SameSite=Lax"} {
		if !strings.Contains(header, want) {
			t.Fatalf("cookie %q missing %q", header, want)
		}
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/signout", nil), rec)
	cc.Clear(c)
	if header := rec.Header().Get(echo.HeaderSetCookie); !strings.Contains(header, "Max-Age=0") {
		t.Fatalf("expected expired cookie, got %q", header)
	}
}

func TestSession_ReadsCookie(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DevCookieName, Value: "sess-1"})
	c := e.NewContext(req, httptest.NewRecorder())

	var got string
	h := Session(CookieConfig{})(func(c echo.Context) error {
		got = SessionID(c)
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got != "sess-1" {
		t.Fatalf("expected sess-1, got %q", got)
	}
}
