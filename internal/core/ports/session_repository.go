package ports

import (
	"context"

	"github.com/opsdesk/dashboard/internal/core/domain"
)

// SessionRepository persists browser sessions (tokens keyed by session id).
type SessionRepository interface {
	Save(ctx context.Context, s domain.StoredSession) error
	// Get returns domain.ErrSessionNotFound when the id is unknown or expired.
	Get(ctx context.Context, sessionID string) (*domain.StoredSession, error)
	Delete(ctx context.Context, sessionID string) error
}
