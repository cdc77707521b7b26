package redis

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"github.com/opsdesk/dashboard/internal/core/domain"
)

const keyPrefix = "session:"

// SessionRepository stores browser sessions as JSON values that expire with
// the session. Keys hold a hash of the session id, never the cookie value.
type SessionRepository struct {
	client *redis.Client
	now    func() time.Time
}

// NewSessionRepository wraps client.
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client, now: time.Now}
}

type storedSession struct {
	UserID         string    `json:"user_id"`
	Email          string    `json:"email"`
	AccessToken    string    `json:"access_token"`
	RefreshToken   string    `json:"refresh_token"`
	TokenExpiresAt time.Time `json:"token_expires_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// Save writes s with a TTL running until s.ExpiresAt.
func (r *SessionRepository) Save(ctx context.Context, s domain.StoredSession) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("save session: already expired at %s", s.ExpiresAt.Format(time.RFC3339))
	}

	b, err := json.Marshal(storedSession{
		UserID:         s.UserID,
		Email:          s.Email,
		AccessToken:    s.AccessToken,
		RefreshToken:   s.RefreshToken,
		TokenExpiresAt: s.TokenExpiresAt.UTC(),
		ExpiresAt:      s.ExpiresAt.UTC(),
		CreatedAt:      s.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := r.client.Set(ctx, r.key(s.ID), b, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get returns domain.ErrSessionNotFound for unknown or expired ids.
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*domain.StoredSession, error) {
	b, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var s storedSession
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &domain.StoredSession{
		ID:             sessionID,
		UserID:         s.UserID,
		Email:          s.Email,
		AccessToken:    s.AccessToken,
		RefreshToken:   s.RefreshToken,
		TokenExpiresAt: s.TokenExpiresAt,
		ExpiresAt:      s.ExpiresAt,
		CreatedAt:      s.CreatedAt,
	}, nil
}

// Delete removes the session. Unknown ids are not an error.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) key(sessionID string) string {
	sum := blake2b.Sum256([]byte(sessionID))
	return keyPrefix + hex.EncodeToString(sum[:])
}
