package ports

import (
	"context"

	"github.com/opsdesk/dashboard/internal/core/domain"
)

// TaskRepository reads the tasks visible to the caller in ctx.
type TaskRepository interface {
	// List returns tasks ordered by created_at descending.
	List(ctx context.Context) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	UpdateStatus(ctx context.Context, id int64, status domain.TaskStatus) (*domain.Task, error)
}

// LogRepository reads the log_data stream.
type LogRepository interface {
	// Recent returns at most limit rows ordered by timestamp descending.
	Recent(ctx context.Context, limit int) ([]domain.LogEntry, error)
}
