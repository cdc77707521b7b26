package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/opsdesk/dashboard/internal/core/domain"
)

const taskColumns = `id, title, description, status, priority, assigned_to, created_by, created_at`

// TaskRepository reads and writes the tasks table. Policies restrict users to
// their own tasks.
type TaskRepository struct {
	exec *Executor
}

func NewTaskRepository(exec *Executor) *TaskRepository {
	return &TaskRepository{exec: exec}
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t           domain.Task
		description sql.NullString
		priority    sql.NullString
		assignedTo  sql.NullString
		createdBy   sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Title, &description, &t.Status, &priority, &assignedTo, &createdBy, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Description = description.String
	t.Priority = domain.TaskPriority(priority.String)
	t.AssignedTo = assignedTo.String
	t.CreatedBy = createdBy.String
	return &t, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// List returns the caller's visible tasks, newest first.
func (r *TaskRepository) List(ctx context.Context) ([]domain.Task, error) {
	tasks := []domain.Task{}
	err := r.exec.asCaller(ctx, true, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC`)
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return fmt.Errorf("scan task: %w", err)
			}
			tasks = append(tasks, *t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	var created *domain.Task
	err := r.exec.asCaller(ctx, false, func(tx *sql.Tx) error {
		t, err := scanTask(tx.QueryRowContext(ctx,
			`INSERT INTO tasks (title, description, status, priority, assigned_to, created_by, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING `+taskColumns,
			task.Title,
			nullable(task.Description),
			string(task.Status),
			string(task.Priority),
			nullable(task.AssignedTo),
			nullable(task.CreatedBy),
			task.CreatedAt,
		))
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		created = t
		return nil
	})
	return created, err
}

// UpdateStatus sets the status of one task. A task hidden by policy reads as
// not found.
func (r *TaskRepository) UpdateStatus(ctx context.Context, id int64, status domain.TaskStatus) (*domain.Task, error) {
	var updated *domain.Task
	err := r.exec.asCaller(ctx, false, func(tx *sql.Tx) error {
		t, err := scanTask(tx.QueryRowContext(ctx,
			`UPDATE tasks SET status = $2 WHERE id = $1 RETURNING `+taskColumns,
			id, string(status),
		))
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		if err != nil {
			return fmt.Errorf("update task status: %w", err)
		}
		updated = t
		return nil
	})
	return updated, err
}
