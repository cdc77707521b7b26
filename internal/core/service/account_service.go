package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsdesk/dashboard/internal/core/domain"
	"github.com/opsdesk/dashboard/internal/core/ports"
)

const defaultSessionTTL = 7 * 24 * time.Hour

// AccountService runs the credential flows against the auth service and
// raises the matching auth events for the browser session.
type AccountService struct {
	auth     ports.AuthClient
	sessions ports.SessionRepository
	store    *SessionStore
	ttl      time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

func NewAccountService(auth ports.AuthClient, sessions ports.SessionRepository, store *SessionStore, ttl time.Duration, logger zerolog.Logger) *AccountService {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &AccountService{
		auth:     auth,
		sessions: sessions,
		store:    store,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// SignUp registers a new account. When the auth service requires email
// confirmation no session is issued and Confirmation is set.
func (s *AccountService) SignUp(ctx context.Context, email, password string) (*ports.SignInResult, error) {
	sess, user, err := s.auth.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		s.logger.Info().Str("email", email).Msg("sign-up awaiting email confirmation")
		return &ports.SignInResult{User: user, Confirmation: true}, nil
	}
	return s.open(ctx, sess)
}

// SignIn exchanges credentials for a new browser session.
func (s *AccountService) SignIn(ctx context.Context, email, password string) (*ports.SignInResult, error) {
	sess, err := s.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, sess)
}

func (s *AccountService) open(ctx context.Context, sess *domain.Session) (*ports.SignInResult, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	stored := domain.StoredSession{
		ID:             id,
		UserID:         sess.User.ID,
		Email:          sess.User.Email,
		AccessToken:    sess.AccessToken,
		RefreshToken:   sess.RefreshToken,
		ExpiresAt:      now.Add(s.ttl),
		TokenExpiresAt: sess.ExpiresAt,
		CreatedAt:      now,
	}
	if err := s.sessions.Save(ctx, stored); err != nil {
		s.logger.Error().Err(err).Str("user_id", sess.User.ID).Msg("failed to persist session")
		return nil, err
	}

	s.store.Publish(id, domain.AuthEventSignedIn, sess)
	s.logger.Info().Str("user_id", sess.User.ID).Msg("signed in")

	user := sess.User
	return &ports.SignInResult{
		SessionID: id,
		User:      &user,
		ExpiresAt: stored.ExpiresAt.Unix(),
	}, nil
}

// SignOut ends the browser session. It succeeds for unknown sessions and when
// the auth service cannot be reached; the local session is dropped regardless.
func (s *AccountService) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	stored, err := s.sessions.Get(ctx, sessionID)
	switch {
	case err == nil:
		if err := s.auth.SignOut(ctx, stored.AccessToken); err != nil {
			s.logger.Warn().Err(err).Str("user_id", stored.UserID).Msg("auth service sign-out failed")
		}
	case !errors.Is(err, domain.ErrSessionNotFound):
		s.logger.Warn().Err(err).Msg("session lookup failed during sign-out")
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.store.End(sessionID)
	return nil
}

// Refresh trades the refresh token for a new token pair. A refresh rejected
// by the auth service ends the session.
func (s *AccountService) Refresh(ctx context.Context, sessionID string) error {
	_, err := s.store.Refresh(ctx, sessionID)
	return err
}

// newSessionID returns 32 random bytes, URL-safe encoded.
func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
