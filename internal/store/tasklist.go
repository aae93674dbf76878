package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"taskmirror/internal/model"
)

// CreateTaskList inserts a new task list.
func (s *Store) CreateTaskList(ctx context.Context, list *model.TaskList) error {
	if err := list.Validate(); err != nil {
		return fmt.Errorf("invalid task list: %w", err)
	}

	query := `INSERT INTO task_lists (id, name, created_at) VALUES (?, ?, ?)`

	_, err := s.conn.ExecContext(ctx, query,
		list.ID,
		list.Name,
		list.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert task list %s: %w", list.ID, err)
	}

	return nil
}

// UpdateTaskList rewrites an existing list's name.
// Returns ErrNotFound if no list with the given id exists.
func (s *Store) UpdateTaskList(ctx context.Context, list *model.TaskList) error {
	if err := list.Validate(); err != nil {
		return fmt.Errorf("invalid task list: %w", err)
	}

	res, err := s.conn.ExecContext(ctx,
		`UPDATE task_lists SET name = ? WHERE id = ?`, list.Name, list.ID)
	if err != nil {
		return fmt.Errorf("failed to update task list %s: %w", list.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update task list %s: %w", list.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("task list %s: %w", list.ID, ErrNotFound)
	}

	return nil
}

// GetTaskList retrieves a single task list by id.
// Returns ErrNotFound if the list doesn't exist.
func (s *Store) GetTaskList(ctx context.Context, id string) (*model.TaskList, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM task_lists WHERE id = ?`, id)

	list, err := scanTaskList(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task list %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get task list %s: %w", id, err)
	}
	return list, nil
}

// ListTaskLists retrieves all task lists ordered by creation time.
func (s *Store) ListTaskLists(ctx context.Context) ([]*model.TaskList, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, created_at FROM task_lists ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list task lists: %w", err)
	}
	defer rows.Close()

	var lists []*model.TaskList
	for rows.Next() {
		list, err := scanTaskList(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task list: %w", err)
		}
		lists = append(lists, list)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task lists: %w", err)
	}

	return lists, nil
}

func scanTaskList(row scanner) (*model.TaskList, error) {
	var list model.TaskList
	var createdAt string

	if err := row.Scan(&list.ID, &list.Name, &createdAt); err != nil {
		return nil, err
	}

	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		list.CreatedAt = t
	}

	return &list, nil
}
