package ports

import (
	"context"

	"github.com/opsdesk/dashboard/internal/core/domain"
)

// SignInResult is returned by sign-in and sign-up.
type SignInResult struct {
	SessionID string
	User      *domain.UserIdentity
	ExpiresAt int64
	// Confirmation is true when sign-up succeeded but the auth service
	// requires email confirmation before a session is issued.
	Confirmation bool
}

// AccountService handles the credential flows of the login page.
type AccountService interface {
	SignUp(ctx context.Context, email, password string) (*SignInResult, error)
	SignIn(ctx context.Context, email, password string) (*SignInResult, error)
	SignOut(ctx context.Context, sessionID string) error
	Refresh(ctx context.Context, sessionID string) error
}

// AuthStateReader is the read side of an auth state machine.
type AuthStateReader interface {
	Snapshot() domain.AuthState
	WaitSettled(ctx context.Context) (domain.AuthState, error)
}

// AuthStates hands out the auth state of a browser session.
type AuthStates interface {
	Get(sessionID string) (AuthStateReader, error)
}

// ApprovalService is the admin approval workflow.
type ApprovalService interface {
	ListCandidates(ctx context.Context) (domain.Candidates, error)
	Decide(ctx context.Context, actorID, targetID string, approve bool, newRole string) (*domain.DecisionResult, error)
	PendingCount(ctx context.Context) (int, error)
}

// CreateTaskInput carries a new task from an admin.
type CreateTaskInput struct {
	Title       string
	Description string
	AssignedTo  string
	Priority    string
}

// DashboardService serves the dashboard's data views.
type DashboardService interface {
	View(ctx context.Context, user domain.UserIdentity, decision domain.AccessDecision) (*domain.DashboardView, error)
	Tasks(ctx context.Context) []domain.Task
	Logs(ctx context.Context) []domain.LogEntry
	CreateTask(ctx context.Context, creatorID string, input CreateTaskInput) (*domain.Task, error)
	UpdateTaskStatus(ctx context.Context, id int64, status string) (*domain.Task, error)
}

// PendingBadge exposes the last polled pending-approval count.
type PendingBadge interface {
	Pending() (count int, ok bool)
}
