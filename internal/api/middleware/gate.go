package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/opsdesk/dashboard/internal/api/metrics"
	"github.com/opsdesk/dashboard/internal/core/domain"
	"github.com/opsdesk/dashboard/internal/core/ports"
)

const (
	ContextKeyAuthState = "auth_state"
	ContextKeyDecision  = "decision"
	ContextKeyUser      = "user"
)

// TokenSource returns the stored tokens of a browser session, refreshing an
// access token that is about to expire.
type TokenSource interface {
	Fresh(ctx context.Context, sessionID string) (*domain.StoredSession, error)
}

// Gate waits, bounded by waitTimeout, for the auth state of the request's
// browser session to settle and stores the resulting access decision in the
// context. For signed-in requests the caller's access token is attached to
// the request context so the stores run as that caller. Gate never rejects;
// RequireAuthorized does.
func Gate(states ports.AuthStates, tokens TokenSource, waitTimeout time.Duration, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sessionID := SessionID(c)
			state := domain.AuthState{}

			if sessionID != "" {
				reader, err := states.Get(sessionID)
				if err != nil {
					log.Warn().Err(err).Msg("auth state unavailable")
				} else {
					ctx, cancel := context.WithTimeout(c.Request().Context(), waitTimeout)
					state, err = reader.WaitSettled(ctx)
					cancel()
					if err != nil && !errors.Is(err, context.DeadlineExceeded) {
						log.Debug().Err(err).Msg("auth state wait ended early")
					}
				}
			}

			decision := domain.Decide(state)
			metrics.GateDecisionsTotal.WithLabelValues(string(decision.Kind)).Inc()

			c.Set(ContextKeyAuthState, state)
			c.Set(ContextKeyDecision, decision)
			if state.User != nil {
				c.Set(ContextKeyUser, *state.User)
				attachCaller(c, tokens, sessionID, log)
			}
			return next(c)
		}
	}
}

func attachCaller(c echo.Context, tokens TokenSource, sessionID string, log zerolog.Logger) {
	if tokens == nil {
		return
	}
	req := c.Request()
	stored, err := tokens.Fresh(req.Context(), sessionID)
	if err != nil {
		log.Debug().Err(err).Msg("no stored tokens for session")
		return
	}
	c.SetRequest(req.WithContext(domain.WithAccessToken(req.Context(), stored.AccessToken)))
}

// Decision returns the access decision stored by Gate. Without Gate the
// request counts as unauthenticated.
func Decision(c echo.Context) domain.AccessDecision {
	d, ok := c.Get(ContextKeyDecision).(domain.AccessDecision)
	if !ok {
		return domain.AccessDecision{Kind: domain.AccessUnauthenticated}
	}
	return d
}

// AuthState returns the auth state snapshot stored by Gate.
func AuthState(c echo.Context) domain.AuthState {
	s, _ := c.Get(ContextKeyAuthState).(domain.AuthState)
	return s
}

// User returns the signed-in identity stored by Gate.
func User(c echo.Context) (domain.UserIdentity, bool) {
	u, ok := c.Get(ContextKeyUser).(domain.UserIdentity)
	return u, ok
}
