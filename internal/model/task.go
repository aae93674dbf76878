// Package model provides the core data structures for taskmirror.
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Task represents one unit of work owned by the local store.
//
// A task may be mirrored to the remote tracking service. Once RemoteID is
// set it identifies the same remote record for the task's lifetime and is
// never rewritten. Tasks are never hard-deleted.
type Task struct {
	// ===== Core Identification =====
	ID string `json:"id"`

	// ===== Content =====
	Name        string `json:"name"`
	IsCompleted bool   `json:"is_completed"`

	// ===== Scheduling =====
	DueDate time.Time `json:"due_date"`

	// ===== Remote Linkage =====
	// RemoteID is empty until the task has been mirrored at least once.
	RemoteID string `json:"remote_id,omitempty"`

	// ===== Ownership =====
	// TaskListID is a weak reference; a task does not own its list.
	TaskListID string `json:"task_list_id,omitempty"`

	// ===== Timestamps =====
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks if the Task has valid field values.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	if t.DueDate.IsZero() {
		return fmt.Errorf("due_date is required")
	}
	if t.CreatedAt.IsZero() {
		return fmt.Errorf("created_at is required")
	}
	if t.UpdatedAt.IsZero() {
		return fmt.Errorf("updated_at is required")
	}
	return nil
}

// SetDefaults applies default values for optional fields.
// This ensures consistent behavior when fields are omitted on input.
func (t *Task) SetDefaults() {
	now := time.Now().UTC()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.DueDate.IsZero() {
		t.DueDate = now
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
}

// UpdateTimestamp sets UpdatedAt to current time.
// This should be called whenever any field is modified.
func (t *Task) UpdateTimestamp() {
	t.UpdatedAt = time.Now().UTC()
}

// IsLinked reports whether the task has been mirrored to the remote service.
func (t *Task) IsLinked() bool {
	return t.RemoteID != ""
}
