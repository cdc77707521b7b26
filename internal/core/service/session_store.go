package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/opsdesk/dashboard/internal/api/metrics"
	"github.com/opsdesk/dashboard/internal/core/domain"
	"github.com/opsdesk/dashboard/internal/core/ports"
)

// tokenRefreshMargin is how long before its expiry an access token is
// traded for a new one.
const tokenRefreshMargin = time.Minute

// SessionStore exposes the auth service's session of one browser session:
// a one-shot lookup, token refresh and a subscription to its changes.
type SessionStore struct {
	sessions  ports.SessionRepository
	auth      ports.AuthClient
	bus       ports.AuthEventBus
	refreshes singleflight.Group
	onEnd     []func(sessionID string)
	now       func() time.Time
	log       zerolog.Logger
}

// NewSessionStore returns a SessionStore.
func NewSessionStore(sessions ports.SessionRepository, auth ports.AuthClient, bus ports.AuthEventBus, log zerolog.Logger) *SessionStore {
	return &SessionStore{
		sessions: sessions,
		auth:     auth,
		bus:      bus,
		now:      time.Now,
		log:      log,
	}
}

// GetCurrentSession asks the auth service who owns the stored tokens of
// sessionID, refreshing an expired access token first. It never fails: any
// error yields nil and is logged.
func (s *SessionStore) GetCurrentSession(ctx context.Context, sessionID string) *domain.Session {
	if sessionID == "" {
		return nil
	}

	stored, err := s.Fresh(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			s.log.Warn().Err(err).Msg("session lookup failed, treating as signed out")
		}
		return nil
	}

	userID := stored.UserID
	user, err := s.auth.GetUser(ctx, stored.AccessToken)
	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		// the token may have expired without a recorded expiry
		var refreshed *domain.StoredSession
		if refreshed, err = s.Refresh(ctx, sessionID); err == nil {
			stored = refreshed
			user, err = s.auth.GetUser(ctx, stored.AccessToken)
		}
	}
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("auth service rejected stored session")
		return nil
	}

	return &domain.Session{
		User:         *user,
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		ExpiresAt:    stored.TokenExpiresAt,
	}
}

// Fresh returns the stored session of sessionID with an access token valid
// for at least another minute, refreshing it when needed.
func (s *SessionStore) Fresh(ctx context.Context, sessionID string) (*domain.StoredSession, error) {
	stored, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !stored.TokenExpiresWithin(s.now(), tokenRefreshMargin) {
		return stored, nil
	}
	return s.Refresh(ctx, sessionID)
}

// Refresh trades the session's refresh token for a new token pair and raises
// token_refreshed. A refresh rejected by the auth service ends the session and
// raises signed_out. Concurrent refreshes of one session share a single round
// trip, since a refresh token is only good once.
func (s *SessionStore) Refresh(ctx context.Context, sessionID string) (*domain.StoredSession, error) {
	v, err, _ := s.refreshes.Do(sessionID, func() (interface{}, error) {
		return s.refresh(ctx, sessionID)
	})
	if err != nil {
		return nil, err
	}
	stored := *v.(*domain.StoredSession)
	return &stored, nil
}

func (s *SessionStore) refresh(ctx context.Context, sessionID string) (*domain.StoredSession, error) {
	stored, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess, err := s.auth.RefreshSession(ctx, stored.RefreshToken)
	if err != nil {
		var authErr *domain.AuthError
		if errors.As(err, &authErr) {
			s.log.Info().Str("user_id", stored.UserID).Str("code", authErr.Code).Msg("refresh rejected, ending session")
			if delErr := s.sessions.Delete(ctx, sessionID); delErr != nil {
				s.log.Warn().Err(delErr).Msg("failed to delete rejected session")
			}
			s.End(sessionID)
		}
		return nil, err
	}

	stored.UserID = sess.User.ID
	stored.Email = sess.User.Email
	stored.AccessToken = sess.AccessToken
	stored.RefreshToken = sess.RefreshToken
	stored.TokenExpiresAt = sess.ExpiresAt
	if err := s.sessions.Save(ctx, *stored); err != nil {
		return nil, err
	}

	s.Publish(sessionID, domain.AuthEventTokenRefreshed, sess)
	s.log.Debug().Str("user_id", stored.UserID).Time("token_expires_at", stored.TokenExpiresAt).Msg("access token refreshed")
	return stored, nil
}

// Subscribe registers onChange for every auth event of sessionID, delivered
// in the order the events were raised. The returned func is idempotent; once
// it returns no new invocation starts.
func (s *SessionStore) Subscribe(sessionID string, onChange func(*domain.Session)) (unsubscribe func()) {
	var done atomic.Bool
	cancel := s.bus.Subscribe(sessionID, func(e domain.AuthEvent) {
		if done.Load() {
			return
		}
		onChange(e.Session)
	})
	return func() {
		if done.CompareAndSwap(false, true) {
			cancel()
		}
	}
}

// OnSessionEnd registers fn to run after a session has signed out. Register
// hooks before the store is shared.
func (s *SessionStore) OnSessionEnd(fn func(sessionID string)) {
	s.onEnd = append(s.onEnd, fn)
}

// End raises signed_out for sessionID and runs the session-end hooks.
func (s *SessionStore) End(sessionID string) {
	s.Publish(sessionID, domain.AuthEventSignedOut, nil)
	for _, fn := range s.onEnd {
		fn(sessionID)
	}
}

// Publish raises an auth event for sessionID.
func (s *SessionStore) Publish(sessionID string, kind domain.AuthEventKind, sess *domain.Session) {
	metrics.AuthEventsTotal.WithLabelValues(string(kind)).Inc()
	s.bus.Publish(domain.AuthEvent{
		SessionID:  sessionID,
		Kind:       kind,
		Session:    sess,
		OccurredAt: s.now().UTC(),
	})
}
