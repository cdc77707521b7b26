package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsdesk/dashboard/internal/core/domain"
	"github.com/opsdesk/dashboard/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubTaskRepo struct {
	mu      sync.Mutex
	tasks   []domain.Task
	nextID  int64
	listErr error
	calls   int
}

func (r *stubTaskRepo) List(context.Context) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	return append([]domain.Task(nil), r.tasks...), nil
}

func (r *stubTaskRepo) Create(_ context.Context, t *domain.Task) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	clone := *t
	clone.ID = r.nextID
	r.tasks = append([]domain.Task{clone}, r.tasks...)
	return &clone, nil
}

func (r *stubTaskRepo) UpdateStatus(_ context.Context, id int64, status domain.TaskStatus) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			r.tasks[i].Status = status
			t := r.tasks[i]
			return &t, nil
		}
	}
	return nil, domain.ErrTaskNotFound
}

type stubLogRepo struct {
	entries   []domain.LogEntry
	err       error
	lastLimit int
	calls     int
}

func (r *stubLogRepo) Recent(_ context.Context, limit int) ([]domain.LogEntry, error) {
	r.calls++
	r.lastLimit = limit
	if r.err != nil {
		return nil, r.err
	}
	return r.entries, nil
}

var (
	adminDecision = domain.AccessDecision{Kind: domain.AccessAuthorized, Role: domain.RoleAdmin}
	userDecision  = domain.AccessDecision{Kind: domain.AccessAuthorized, Role: domain.RoleUser}
)

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestDashboardService_AdminView(t *testing.T) {
	tasks := &stubTaskRepo{tasks: []domain.Task{{ID: 2, Title: "b"}, {ID: 1, Title: "a"}}}
	logs := &stubLogRepo{}
	svc := NewDashboardService(tasks, logs, zerolog.Nop())

	view, err := svc.View(context.Background(), domain.UserIdentity{ID: "u-admin", Email: "admin@example.com"}, adminDecision)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.Tasks) != 2 || view.Tasks[0].ID != 2 {
		t.Fatalf("unexpected tasks: %+v", view.Tasks)
	}
	if view.Logs != nil || logs.calls != 0 {
		t.Fatalf("admin view does not load log data")
	}
	if view.Email != "admin@example.com" {
		t.Fatalf("unexpected email %q", view.Email)
	}
}

func TestDashboardService_UserView(t *testing.T) {
	tasks := &stubTaskRepo{tasks: []domain.Task{{ID: 1, AssignedTo: "u-a"}}}
	logs := &stubLogRepo{entries: []domain.LogEntry{{ID: 9, SensorName: "temp", Value: 21.5, Timestamp: time.Now()}}}
	svc := NewDashboardService(tasks, logs, zerolog.Nop())

	view, err := svc.View(context.Background(), domain.UserIdentity{ID: "u-a"}, userDecision)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.Tasks) != 1 || len(view.Logs) != 1 {
		t.Fatalf("unexpected view: %+v", view)
	}
	if logs.lastLimit != RecentLogLimit {
		t.Fatalf("expected limit %d, got %d", RecentLogLimit, logs.lastLimit)
	}
}

func TestDashboardService_StoreFailuresFallBackToEmpty(t *testing.T) {
	tasks := &stubTaskRepo{listErr: errors.New("permission denied")}
	logs := &stubLogRepo{err: errors.New("connection reset")}
	svc := NewDashboardService(tasks, logs, zerolog.Nop())

	view, err := svc.View(context.Background(), domain.UserIdentity{ID: "u-a"}, userDecision)
	if err != nil {
		t.Fatalf("read failures must not surface, got %v", err)
	}
	if view.Tasks == nil || len(view.Tasks) != 0 || view.Logs == nil || len(view.Logs) != 0 {
		t.Fatalf("expected empty non-nil lists, got %+v", view)
	}
}

func TestDashboardService_NonAuthorizedViewIsEmpty(t *testing.T) {
	for _, d := range []domain.AccessDecision{
		{Kind: domain.AccessUndetermined},
		{Kind: domain.AccessPendingApproval},
	} {
		tasks := &stubTaskRepo{}
		logs := &stubLogRepo{}
		svc := NewDashboardService(tasks, logs, zerolog.Nop())

		view, err := svc.View(context.Background(), domain.UserIdentity{ID: "u-a"}, d)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tasks.calls != 0 || logs.calls != 0 {
			t.Fatalf("%s: no store reads expected", d.Kind)
		}
		if view.Decision.Kind != d.Kind || len(view.Tasks) != 0 {
			t.Fatalf("unexpected view: %+v", view)
		}
	}
}

func TestDashboardService_CreateTask(t *testing.T) {
	tasks := &stubTaskRepo{}
	svc := NewDashboardService(tasks, &stubLogRepo{}, zerolog.Nop())

	created, err := svc.CreateTask(context.Background(), "u-admin", ports.CreateTaskInput{
		Title:      "  Calibrate sensor ",
		AssignedTo: "u-a",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == 0 || created.Title != "Calibrate sensor" {
		t.Fatalf("unexpected task: %+v", created)
	}
	if created.Status != domain.TaskOpen || created.Priority != domain.PriorityMedium || created.CreatedBy != "u-admin" {
		t.Fatalf("unexpected defaults: %+v", created)
	}
}

func TestDashboardService_CreateTask_Validation(t *testing.T) {
	svc := NewDashboardService(&stubTaskRepo{}, &stubLogRepo{}, zerolog.Nop())

	if _, err := svc.CreateTask(context.Background(), "u-admin", ports.CreateTaskInput{Title: "  "}); !errors.Is(err, domain.ErrInvalidTask) {
		t.Fatalf("expected ErrInvalidTask, got %v", err)
	}
	if _, err := svc.CreateTask(context.Background(), "u-admin", ports.CreateTaskInput{Title: "x", Priority: "urgent"}); !errors.Is(err, domain.ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
}

func TestDashboardService_UpdateTaskStatus(t *testing.T) {
	tasks := &stubTaskRepo{tasks: []domain.Task{{ID: 7, Status: domain.TaskOpen}}}
	svc := NewDashboardService(tasks, &stubLogRepo{}, zerolog.Nop())

	updated, err := svc.UpdateTaskStatus(context.Background(), 7, "in_progress")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.TaskInProgress {
		t.Fatalf("unexpected status %q", updated.Status)
	}

	if _, err := svc.UpdateTaskStatus(context.Background(), 7, "done"); !errors.Is(err, domain.ErrInvalidTaskStatus) {
		t.Fatalf("expected ErrInvalidTaskStatus, got %v", err)
	}
	if _, err := svc.UpdateTaskStatus(context.Background(), 99, "completed"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}
