package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskmirror/internal/model"
)

// CreateTask inserts a new task. The task is validated first.
// Returns ErrIntegrity if the task's remote id is already linked
// to another task.
func (s *Store) CreateTask(ctx context.Context, task *model.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}

	query := `
	INSERT INTO tasks (
		id, name, is_completed, due_date, remote_id,
		task_list_id, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.conn.ExecContext(ctx, query,
		task.ID,
		task.Name,
		boolToInt(task.IsCompleted),
		task.DueDate.Format(time.RFC3339),
		nullString(task.RemoteID),
		nullString(task.TaskListID),
		task.CreatedAt.Format(time.RFC3339),
		task.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isRemoteIDConflict(err) {
			return fmt.Errorf("%w: remote id %s: %v", ErrIntegrity, task.RemoteID, err)
		}
		return fmt.Errorf("failed to insert task %s: %w", task.ID, err)
	}

	return nil
}

// UpdateTask rewrites an existing task's mutable fields.
// The remote id is written as-is; callers must not change it once set.
// Returns ErrNotFound if no task with the given id exists.
func (s *Store) UpdateTask(ctx context.Context, task *model.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}

	query := `
	UPDATE tasks SET
		name = ?,
		is_completed = ?,
		due_date = ?,
		remote_id = ?,
		task_list_id = ?,
		updated_at = ?
	WHERE id = ?
	`

	res, err := s.conn.ExecContext(ctx, query,
		task.Name,
		boolToInt(task.IsCompleted),
		task.DueDate.Format(time.RFC3339),
		nullString(task.RemoteID),
		nullString(task.TaskListID),
		task.UpdatedAt.Format(time.RFC3339),
		task.ID,
	)
	if err != nil {
		if isRemoteIDConflict(err) {
			return fmt.Errorf("%w: remote id %s: %v", ErrIntegrity, task.RemoteID, err)
		}
		return fmt.Errorf("failed to update task %s: %w", task.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update task %s: %w", task.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", task.ID, ErrNotFound)
	}

	return nil
}

// GetTask retrieves a single task by local id.
// Returns ErrNotFound if the task doesn't exist.
func (s *Store) GetTask(ctx context.Context, id string) (*model.Task, error) {
	row := s.conn.QueryRowContext(ctx, taskSelect+" WHERE id = ?", id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get task %s: %w", id, err)
	}
	return task, nil
}

// GetTaskByRemoteID retrieves a single task by its remote id.
// This is the identity-matching lookup used by inbound event processing.
// Returns ErrNotFound if no task is linked to the given remote id.
func (s *Store) GetTaskByRemoteID(ctx context.Context, remoteID string) (*model.Task, error) {
	row := s.conn.QueryRowContext(ctx, taskSelect+" WHERE remote_id = ?", remoteID)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("remote id %s: %w", remoteID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get task by remote id %s: %w", remoteID, err)
	}
	return task, nil
}

// TaskFilter configures the ListTasks query.
type TaskFilter struct {
	// Completed filters by completion state (nil = all tasks)
	Completed *bool
	// TaskListID filters by owning list (empty = all lists)
	TaskListID string
	// Limit restricts the number of results (0 = no limit)
	Limit int
	// Offset skips the first N results (for pagination)
	Offset int
}

// ListTasks retrieves tasks matching the given filters,
// ordered by creation time.
func (s *Store) ListTasks(ctx context.Context, filter TaskFilter) ([]*model.Task, error) {
	var conditions []string
	var args []interface{}

	if filter.Completed != nil {
		conditions = append(conditions, "is_completed = ?")
		args = append(args, boolToInt(*filter.Completed))
	}

	if filter.TaskListID != "" {
		conditions = append(conditions, "task_list_id = ?")
		args = append(args, filter.TaskListID)
	}

	query := taskSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// GetTaskCount returns the total number of tasks in the database.
func (s *Store) GetTaskCount(ctx context.Context) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get task count: %w", err)
	}
	return count, nil
}

const taskSelect = `
	SELECT id, name, is_completed, due_date, remote_id,
	       task_list_id, created_at, updated_at
	FROM tasks`

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row scanner) (*model.Task, error) {
	var task model.Task
	var isCompleted int
	var dueDate, createdAt, updatedAt string
	var remoteID, taskListID sql.NullString

	err := row.Scan(
		&task.ID,
		&task.Name,
		&isCompleted,
		&dueDate,
		&remoteID,
		&taskListID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.IsCompleted = isCompleted != 0
	task.RemoteID = remoteID.String
	task.TaskListID = taskListID.String

	if t, err := time.Parse(time.RFC3339, dueDate); err == nil {
		task.DueDate = t
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		task.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		task.UpdatedAt = t
	}

	return &task, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isRemoteIDConflict(err error) bool {
	return err != nil && strings.Contains(err.Error(), "idx_tasks_remote_id")
}
