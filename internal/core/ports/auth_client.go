package ports

import (
	"context"

	"github.com/opsdesk/dashboard/internal/core/domain"
)

// AuthClient is the hosted auth service. Rejections are returned as
// *domain.AuthError; transport failures wrap domain.ErrAuthUnavailable.
type AuthClient interface {
	GetUser(ctx context.Context, accessToken string) (*domain.UserIdentity, error)
	SignUp(ctx context.Context, email, password string) (*domain.Session, *domain.UserIdentity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*domain.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// AuthEventBus delivers auth events per browser session, in raise order.
type AuthEventBus interface {
	Publish(event domain.AuthEvent)
	Subscribe(sessionID string, fn func(domain.AuthEvent)) (unsubscribe func())
}
