package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/opsdesk/dashboard/internal/api/metrics"
	"github.com/opsdesk/dashboard/internal/core/domain"
	"github.com/opsdesk/dashboard/internal/core/ports"
)

// RecentLogLimit is how many log rows the dashboard shows.
const RecentLogLimit = 50

// DashboardService loads the dashboard's task and log views. Read failures
// never surface: they are logged and the view falls back to an empty list.
type DashboardService struct {
	tasks  ports.TaskRepository
	logs   ports.LogRepository
	now    func() time.Time
	logger zerolog.Logger
}

func NewDashboardService(tasks ports.TaskRepository, logs ports.LogRepository, logger zerolog.Logger) *DashboardService {
	return &DashboardService{tasks: tasks, logs: logs, now: time.Now, logger: logger}
}

// View assembles the dashboard for an authorized decision. Admins get every
// task visible to them; users get recent log data and their own tasks, loaded
// in parallel. Any other decision yields an empty view.
func (s *DashboardService) View(ctx context.Context, user domain.UserIdentity, decision domain.AccessDecision) (*domain.DashboardView, error) {
	view := &domain.DashboardView{
		Email:    user.Email,
		Decision: decision,
		Tasks:    []domain.Task{},
	}

	switch {
	case decision.Authorized(domain.RoleAdmin):
		view.Tasks = s.Tasks(ctx)
	case decision.Authorized(domain.RoleUser):
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			view.Logs = s.Logs(gctx)
			return nil
		})
		g.Go(func() error {
			view.Tasks = s.Tasks(gctx)
			return nil
		})
		_ = g.Wait()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return view, nil
}

// Tasks returns the caller's visible tasks, newest first.
func (s *DashboardService) Tasks(ctx context.Context) []domain.Task {
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		metrics.StoreFallbacksTotal.WithLabelValues("tasks").Inc()
		s.logger.Error().Err(err).Msg("failed to load tasks")
		return []domain.Task{}
	}
	if tasks == nil {
		return []domain.Task{}
	}
	return tasks
}

// Logs returns the newest log rows.
func (s *DashboardService) Logs(ctx context.Context) []domain.LogEntry {
	entries, err := s.logs.Recent(ctx, RecentLogLimit)
	if err != nil {
		metrics.StoreFallbacksTotal.WithLabelValues("log_data").Inc()
		s.logger.Error().Err(err).Msg("failed to load log data")
		return []domain.LogEntry{}
	}
	if entries == nil {
		return []domain.LogEntry{}
	}
	return entries
}

// CreateTask inserts a new open task. Priority defaults to medium.
func (s *DashboardService) CreateTask(ctx context.Context, creatorID string, input ports.CreateTaskInput) (*domain.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidTask)
	}

	priority := domain.TaskPriority(input.Priority)
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPriority, input.Priority)
	}

	task := &domain.Task{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TaskOpen,
		Priority:    priority,
		AssignedTo:  input.AssignedTo,
		CreatedBy:   creatorID,
		CreatedAt:   s.now().UTC(),
	}

	created, err := s.tasks.Create(ctx, task)
	if err != nil {
		s.logger.Error().Err(err).Str("created_by", creatorID).Msg("failed to create task")
		return nil, err
	}

	s.logger.Info().Int64("task_id", created.ID).Str("assigned_to", created.AssignedTo).Msg("task created")
	return created, nil
}

// UpdateTaskStatus moves a task to status.
func (s *DashboardService) UpdateTaskStatus(ctx context.Context, id int64, status string) (*domain.Task, error) {
	next := domain.TaskStatus(status)
	if !next.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidTaskStatus, status)
	}

	updated, err := s.tasks.UpdateStatus(ctx, id, next)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("task_id", id).Str("status", status).Msg("task status updated")
	return updated, nil
}
