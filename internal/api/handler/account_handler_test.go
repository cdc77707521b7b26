package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/opsdesk/dashboard/internal/api/middleware"
	"github.com/opsdesk/dashboard/internal/core/domain"
	"github.com/opsdesk/dashboard/internal/core/ports"
)

type stubAccountService struct {
	signUpFn  func(ctx context.Context, email, password string) (*ports.SignInResult, error)
	signInFn  func(ctx context.Context, email, password string) (*ports.SignInResult, error)
	signOutFn func(ctx context.Context, sessionID string) error
	refreshFn func(ctx context.Context, sessionID string) error
}

func (s *stubAccountService) SignUp(ctx context.Context, email, password string) (*ports.SignInResult, error) {
	return s.signUpFn(ctx, email, password)
}

func (s *stubAccountService) SignIn(ctx context.Context, email, password string) (*ports.SignInResult, error) {
	return s.signInFn(ctx, email, password)
}

func (s *stubAccountService) SignOut(ctx context.Context, sessionID string) error {
	return s.signOutFn(ctx, sessionID)
}

func (s *stubAccountService) Refresh(ctx context.Context, sessionID string) error {
	return s.refreshFn(ctx, sessionID)
}

func TestAccountHandler_SignIn_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAccountService{
		signInFn: func(_ context.Context, email, password string) (*ports.SignInResult, error) {
			if email != "a@example.com" || password != "secret1" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return &ports.SignInResult{
				SessionID: "sess-1",
				User:      &domain.UserIdentity{ID: "u-a", Email: email},
				ExpiresAt: time.Now().Add(time.Hour).Unix(),
			}, nil
		},
	}
	h := NewAccountHandler(stub, middleware.CookieConfig{Secure: true})

	rec := httptest.NewRecorder()
	c := e.NewContext(newRequest(http.MethodPost, "/auth/signin", `{"email":"a@example.com","password":"secret1"}`), rec)
	call(t, e, c, h.SignIn)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if cookie := rec.Header().Get("Set-Cookie"); !strings.HasPrefix(cookie, "__Host-session=sess-1") {
		t.Fatalf("expected session cookie, got %q", cookie)
	}
	resp := decodeBody(t, rec)
	if user, ok := resp["user"].(map[string]any); !ok || user["id"] != "u-a" {
		t.Fatalf("unexpected payload: %v", resp)
	}
}

func TestAccountHandler_SignIn_AuthErrorVerbatim(t *testing.T) {
	e := newTestEcho()
	stub := &stubAccountService{
		signInFn: func(context.Context, string, string) (*ports.SignInResult, error) {
			return nil, &domain.AuthError{Status: 400, Code: "invalid_credentials", Message: "Invalid login credentials"}
		},
	}
	h := NewAccountHandler(stub, middleware.CookieConfig{})

	rec := httptest.NewRecorder()
	c := e.NewContext(newRequest(http.MethodPost, "/auth/signin", `{"email":"a@example.com","password":"wrong12"}`), rec)
	call(t, e, c, h.SignIn)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["error"] != "Invalid login credentials" {
		t.Fatalf("expected verbatim message, got %v", resp)
	}
	if rec.Header().Get("Set-Cookie") != "" {
		t.Fatalf("no cookie on failure")
	}
}

func TestAccountHandler_SignIn_Unavailable(t *testing.T) {
	e := newTestEcho()
	stub := &stubAccountService{
		signInFn: func(context.Context, string, string) (*ports.SignInResult, error) {
			return nil, domain.ErrAuthUnavailable
		},
	}
	h := NewAccountHandler(stub, middleware.CookieConfig{})

	rec := httptest.NewRecorder()
	c := e.NewContext(newRequest(http.MethodPost, "/auth/signin", `{"email":"a@example.com","password":"secret1"}`), rec)
	call(t, e, c, h.SignIn)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["error"] != "connection failed, check your network" {
		t.Fatalf("unexpected message: %v", resp)
	}
}

func TestAccountHandler_SignIn_Validation(t *testing.T) {
	e := newTestEcho()
	h := NewAccountHandler(&stubAccountService{}, middleware.CookieConfig{})

	rec := httptest.NewRecorder()
	c := e.NewContext(newRequest(http.MethodPost, "/auth/signin", `{"email":"not-an-email","password":"x"}`), rec)
	call(t, e, c, h.SignIn)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	msg, _ := decodeBody(t, rec)["error"].(string)
	if !strings.Contains(msg, "email must be a valid email") || !strings.Contains(msg, "password must be at least 6") {
		t.Fatalf("unexpected validation message %q", msg)
	}
}

func TestAccountHandler_SignUp_Confirmation(t *testing.T) {
	e := newTestEcho()
	stub := &stubAccountService{
		signUpFn: func(_ context.Context, email, _ string) (*ports.SignInResult, error) {
			return &ports.SignInResult{User: &domain.UserIdentity{ID: "u-new", Email: email}, Confirmation: true}, nil
		},
	}
	h := NewAccountHandler(stub, middleware.CookieConfig{})

	rec := httptest.NewRecorder()
	c := e.NewContext(newRequest(http.MethodPost, "/auth/signup", `{"email":"new@example.com","password":"secret1"}`), rec)
	call(t, e, c, h.SignUp)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["confirmation_required"] != true {
		t.Fatalf("unexpected payload: %v", resp)
	}
	if rec.Header().Get("Set-Cookie") != "" {
		t.Fatalf("no session cookie before confirmation")
	}
}

func TestAccountHandler_SignOut(t *testing.T) {
	e := newTestEcho()
	var got string
	stub := &stubAccountService{
		signOutFn: func(_ context.Context, sessionID string) error {
			got = sessionID
			return nil
		},
	}
	h := NewAccountHandler(stub, middleware.CookieConfig{})

	rec := httptest.NewRecorder()
	c := e.NewContext(newRequest(http.MethodPost, "/auth/signout", ""), rec)
	c.Set(middleware.ContextKeySessionID, "sess-1")
	call(t, e, c, h.SignOut)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got != "sess-1" {
		t.Fatalf("expected sess-1, got %q", got)
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), "Max-Age=0") {
		t.Fatalf("expected cookie to be cleared")
	}
}

func TestAccountHandler_Refresh(t *testing.T) {
	t.Run("no session", func(t *testing.T) {
		e := newTestEcho()
		h := NewAccountHandler(&stubAccountService{}, middleware.CookieConfig{})
		rec := httptest.NewRecorder()
		c := e.NewContext(newRequest(http.MethodPost, "/auth/refresh", ""), rec)
		call(t, e, c, h.Refresh)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejected refresh clears cookie", func(t *testing.T) {
		e := newTestEcho()
		stub := &stubAccountService{refreshFn: func(context.Context, string) error {
			return &domain.AuthError{Status: 400, Message: "Invalid Refresh Token"}
		}}
		h := NewAccountHandler(stub, middleware.CookieConfig{})
		rec := httptest.NewRecorder()
		c := e.NewContext(newRequest(http.MethodPost, "/auth/refresh", ""), rec)
		c.Set(middleware.ContextKeySessionID, "sess-1")
		call(t, e, c, h.Refresh)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Header().Get("Set-Cookie"), "Max-Age=0") {
			t.Fatalf("expected cookie to be cleared")
		}
	})

	t.Run("success", func(t *testing.T) {
		e := newTestEcho()
		stub := &stubAccountService{refreshFn: func(context.Context, string) error { return nil }}
		h := NewAccountHandler(stub, middleware.CookieConfig{})
		rec := httptest.NewRecorder()
		c := e.NewContext(newRequest(http.MethodPost, "/auth/refresh", ""), rec)
		c.Set(middleware.ContextKeySessionID, "sess-1")
		call(t, e, c, h.Refresh)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	})
}
