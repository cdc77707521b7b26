package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	auth "github.com/supabase-community/auth-go"
	"github.com/supabase-community/auth-go/types"

	"github.com/opsdesk/dashboard/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Client talks to the hosted auth service through the auth-go SDK.
type Client struct {
	api       auth.Client
	transport http.RoundTripper
	timeout   time.Duration
}

// NewClient returns a Client for the project at projectURL, authenticated
// with the project's anon key. A nil transport uses http.DefaultTransport.
func NewClient(projectURL, apiKey string, transport http.RoundTripper, timeout time.Duration) *Client {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := strings.TrimRight(projectURL, "/") + "/auth/v1"
	return &Client{
		api:       auth.New("", apiKey).WithCustomAuthURL(base),
		transport: transport,
		timeout:   timeout,
	}
}

type errorResponse struct {
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// GetUser returns the identity owning accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*domain.UserIdentity, error) {
	api, rt, cancel := c.begin(ctx, accessToken)
	defer cancel()

	res, err := api.GetUser()
	if err != nil {
		return nil, rt.fail("user", err)
	}
	return &domain.UserIdentity{ID: userID(res.ID), Email: res.Email}, nil
}

// SignUp registers email. The session is nil when the project requires email
// confirmation.
func (c *Client) SignUp(ctx context.Context, email, password string) (*domain.Session, *domain.UserIdentity, error) {
	api, rt, cancel := c.begin(ctx, "")
	defer cancel()

	res, err := api.Signup(types.SignupRequest{Email: email, Password: password})
	if err != nil {
		return nil, nil, rt.fail("signup", err)
	}
	if res.AccessToken == "" {
		return nil, &domain.UserIdentity{ID: userID(res.User.ID), Email: res.User.Email}, nil
	}
	sess := toSession(res.Session, time.Now())
	user := sess.User
	return sess, &user, nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	return c.token(ctx, types.TokenRequest{GrantType: "password", Email: email, Password: password})
}

// RefreshSession trades a refresh token for a new session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*domain.Session, error) {
	return c.token(ctx, types.TokenRequest{GrantType: "refresh_token", RefreshToken: refreshToken})
}

func (c *Client) token(ctx context.Context, req types.TokenRequest) (*domain.Session, error) {
	api, rt, cancel := c.begin(ctx, "")
	defer cancel()

	res, err := api.Token(req)
	if err != nil {
		return nil, rt.fail("token", err)
	}
	return toSession(res.Session, time.Now()), nil
}

// SignOut revokes the refresh tokens of accessToken's session.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	api, rt, cancel := c.begin(ctx, accessToken)
	defer cancel()

	if err := api.Logout(); err != nil {
		return rt.fail("logout", err)
	}
	return nil
}

// begin scopes one SDK call to ctx. The SDK builds its requests without a
// context, so the round tripper attaches it.
func (c *Client) begin(ctx context.Context, bearer string) (auth.Client, *roundTrip, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	rt := &roundTrip{ctx: ctx, base: c.transport}
	api := c.api.WithClient(http.Client{Transport: rt})
	if bearer != "" {
		api = api.WithToken(bearer)
	}
	return api, rt, cancel
}

// roundTrip records the outcome of a single SDK call.
type roundTrip struct {
	ctx    context.Context
	base   http.RoundTripper
	status int
	body   []byte
}

func (t *roundTrip) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req.WithContext(t.ctx))
	if err != nil {
		return nil, err
	}
	t.status = resp.StatusCode
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = resp.Body.Close()
		t.body = b
		resp.Body = io.NopCloser(bytes.NewReader(b))
	}
	return resp, nil
}

// fail maps an SDK error to an AuthError for rejections and to
// ErrAuthUnavailable for everything the user cannot fix.
func (t *roundTrip) fail(op string, err error) error {
	if errors.Is(t.ctx.Err(), context.Canceled) {
		return context.Canceled
	}
	switch {
	case t.status == 0:
		return fmt.Errorf("%w: %s", domain.ErrAuthUnavailable, redact(err))
	case t.status >= 500:
		return fmt.Errorf("%w: auth service returned %d", domain.ErrAuthUnavailable, t.status)
	case t.status >= 400:
		return decodeError(t.status, t.body)
	default:
		return fmt.Errorf("%w: decode %s response: %v", domain.ErrAuthUnavailable, op, err)
	}
}

func decodeError(status int, raw []byte) error {
	var e errorResponse
	_ = json.Unmarshal(raw, &e)

	authErr := &domain.AuthError{Status: status, Code: e.ErrorCode}
	if authErr.Code == "" {
		authErr.Code = e.Error
	}
	for _, m := range []string{e.Msg, e.ErrorDescription, e.Message, e.Error} {
		if m != "" {
			authErr.Message = m
			break
		}
	}
	if authErr.Message == "" {
		authErr.Message = http.StatusText(status)
	}
	return authErr
}

func toSession(r types.Session, now time.Time) *domain.Session {
	s := &domain.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		User:         domain.UserIdentity{ID: userID(r.User.ID), Email: r.User.Email},
	}
	switch {
	case r.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(r.ExpiresAt, 0).UTC()
	case r.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(r.ExpiresIn) * time.Second).UTC()
	}
	return s
}

func userID(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

// redact drops the query string from transport errors.
func redact(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Op + ": " + uerr.Err.Error()
	}
	return err.Error()
}
