package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/opsdesk/dashboard/internal/core/domain"
)

// LogRepository reads the log_data table.
type LogRepository struct {
	exec *Executor
}

func NewLogRepository(exec *Executor) *LogRepository {
	return &LogRepository{exec: exec}
}

// Recent returns at most limit rows, newest first.
func (r *LogRepository) Recent(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	entries := []domain.LogEntry{}
	err := r.exec.asCaller(ctx, true, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT id, sensor_name, value, timestamp FROM log_data ORDER BY timestamp DESC LIMIT $1`, limit)
		if err != nil {
			return fmt.Errorf("select log data: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var e domain.LogEntry
			if err := rows.Scan(&e.ID, &e.SensorName, &e.Value, &e.Timestamp); err != nil {
				return fmt.Errorf("scan log row: %w", err)
			}
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
