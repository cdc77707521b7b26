package ports

import (
	"context"

	"github.com/opsdesk/dashboard/internal/core/domain"
)

// ProfileRepository reads and writes the profiles table as the caller carried
// in ctx. Row-level policies decide what the caller may see.
type ProfileRepository interface {
	GetAccess(ctx context.Context, userID string) (*domain.ProfileAccess, error)
	GetByID(ctx context.Context, userID string) (*domain.Profile, error)
	// ListAll returns every visible profile ordered by created_at descending.
	ListAll(ctx context.Context) ([]domain.Profile, error)
	UpdateApproval(ctx context.Context, userID, role string, approved bool) (*domain.Profile, error)
	CountPending(ctx context.Context) (int, error)
}

// ApprovalAuditRepository appends approval decisions to the audit trail.
type ApprovalAuditRepository interface {
	InsertApprovalEvent(ctx context.Context, event *domain.ApprovalEvent) error
}
