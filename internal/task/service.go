// Package task implements the outbound half of the mirroring protocol:
// local create/update requests are applied to the task store and pushed
// to the remote tracking service through a narrow RemoteMirror interface.
package task

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"taskmirror/internal/model"
	"taskmirror/internal/store"
	"taskmirror/internal/todoist"
)

// RemoteMirror is the write side of the remote client consumed by the
// service. Injected as an interface so the mutation component and the
// sync component never hold concrete references to each other.
type RemoteMirror interface {
	Create(ctx context.Context, content string) (*todoist.Item, error)
	Update(ctx context.Context, id, content string) (*todoist.Item, error)
	Close(ctx context.Context, id string) error
}

// Store is the persistence surface the service needs.
type Store interface {
	GetTask(ctx context.Context, id string) (*model.Task, error)
	CreateTask(ctx context.Context, task *model.Task) error
	UpdateTask(ctx context.Context, task *model.Task) error
	ListTasks(ctx context.Context, filter store.TaskFilter) ([]*model.Task, error)
	CreateTaskList(ctx context.Context, list *model.TaskList) error
	GetTaskList(ctx context.Context, id string) (*model.TaskList, error)
	ListTaskLists(ctx context.Context) ([]*model.TaskList, error)
	UpdateTaskList(ctx context.Context, list *model.TaskList) error
}

// Notifier receives mutation activity for observers such as the dashboard.
type Notifier interface {
	// OnTaskMirrored is called after a local mutation has been mirrored
	// to the remote service and persisted.
	OnTaskMirrored(task *model.Task, action string)
}

// CreateInput is the payload for Create.
type CreateInput struct {
	Name        string     `json:"name"`
	IsCompleted bool       `json:"is_completed"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// ListRef selects a task list on update: either {ID} to attach an
// existing list, or {Name} to create a new one.
type ListRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// UpdateInput is the payload for Update.
type UpdateInput struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	IsCompleted bool      `json:"is_completed"`
	DueDate     time.Time `json:"due_date"`
	TaskList    *ListRef  `json:"task_list,omitempty"`
}

// CloseError reports a completion flow where the remote content update
// succeeded but the subsequent close call failed. The local task is
// persisted as completed; the caller can re-drive just the close step.
type CloseError struct {
	RemoteID string
	Err      error
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("remote task %s updated but not closed: %v", e.RemoteID, e.Err)
}

func (e *CloseError) Unwrap() error { return e.Err }

// Service applies local task mutations and mirrors them remotely.
type Service struct {
	store  Store
	remote RemoteMirror
	logger *log.Logger
	notify Notifier
	now    func() time.Time
}

// Config holds service configuration.
type Config struct {
	// Logger for mutation activity (default: stderr logger).
	Logger *log.Logger

	// Notifier for mutation activity (default: none).
	Notifier Notifier
}

// New creates a service with default configuration.
func New(st Store, remote RemoteMirror) *Service {
	return NewWithConfig(st, remote, nil)
}

// NewWithConfig creates a service with custom configuration.
func NewWithConfig(st Store, remote RemoteMirror, cfg *Config) *Service {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[task] ", log.LstdFlags)
	}

	return &Service{
		store:  st,
		remote: remote,
		logger: cfg.Logger,
		notify: cfg.Notifier,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create builds a task from input, mirrors it to the remote service, and
// persists it. The remote create happens first: if it fails the whole
// operation fails, so no local-only task is ever left with an empty
// remote id.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Task, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	task := &model.Task{
		Name:        in.Name,
		IsCompleted: in.IsCompleted,
	}
	if in.DueDate != nil {
		task.DueDate = *in.DueDate
	}
	task.SetDefaults()

	item, err := s.remote.Create(ctx, task.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to mirror task to remote: %w", err)
	}
	task.RemoteID = item.ID

	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to persist task: %w", err)
	}

	s.logger.Printf("Created task %s (remote id %s)", task.ID, task.RemoteID)
	if s.notify != nil {
		s.notify.OnTaskMirrored(task, "created")
	}
	return task, nil
}

// Update loads the task by id, overwrites name, completion flag and due
// date from input, pushes the change to the remote service, resolves the
// task list attachment, and persists.
//
// Completion is two sequential remote calls: a content update, then a
// close. If the close fails after the update succeeded the local task is
// still persisted as completed and a *CloseError is returned alongside
// the task so the caller can re-drive the close step.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*model.Task, error) {
	task, err := s.store.GetTask(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	task.Name = in.Name
	task.IsCompleted = in.IsCompleted
	if !in.DueDate.IsZero() {
		task.DueDate = in.DueDate
	}
	task.UpdateTimestamp()

	var closeErr *CloseError
	if task.IsLinked() {
		if _, err := s.remote.Update(ctx, task.RemoteID, task.Name); err != nil {
			return nil, fmt.Errorf("failed to mirror update to remote: %w", err)
		}
		if in.IsCompleted {
			if err := s.remote.Close(ctx, task.RemoteID); err != nil {
				// Remote is now updated-but-open while local completes.
				// Persist anyway and report the close failure separately.
				closeErr = &CloseError{RemoteID: task.RemoteID, Err: err}
				s.logger.Printf("Close failed for remote task %s: %v", task.RemoteID, err)
			}
		}
	} else {
		// Unlinked tasks only occur when the store was seeded outside the
		// mutation surface; link now so the mirror converges.
		item, err := s.remote.Create(ctx, task.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to mirror task to remote: %w", err)
		}
		task.RemoteID = item.ID
		if in.IsCompleted {
			if err := s.remote.Close(ctx, task.RemoteID); err != nil {
				closeErr = &CloseError{RemoteID: task.RemoteID, Err: err}
				s.logger.Printf("Close failed for remote task %s: %v", task.RemoteID, err)
			}
		}
	}

	if in.TaskList != nil {
		list, err := s.resolveTaskList(ctx, in.TaskList)
		if err != nil {
			return nil, err
		}
		task.TaskListID = list.ID
	}

	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to persist task: %w", err)
	}

	s.logger.Printf("Updated task %s (remote id %s, completed=%v)", task.ID, task.RemoteID, task.IsCompleted)
	if s.notify != nil {
		s.notify.OnTaskMirrored(task, "updated")
	}

	if closeErr != nil {
		return task, closeErr
	}
	return task, nil
}

// resolveTaskList returns the list to attach: a ref with an id is
// attached directly without existence verification; a ref with only a
// name always creates a new list. Name collisions are not checked.
func (s *Service) resolveTaskList(ctx context.Context, ref *ListRef) (*model.TaskList, error) {
	if ref.ID != "" {
		return &model.TaskList{ID: ref.ID, Name: ref.Name}, nil
	}
	if ref.Name == "" {
		return nil, fmt.Errorf("task list requires an id or a name")
	}

	list := &model.TaskList{Name: ref.Name}
	list.SetDefaults()
	if err := s.store.CreateTaskList(ctx, list); err != nil {
		return nil, fmt.Errorf("failed to create task list %q: %w", ref.Name, err)
	}

	s.logger.Printf("Created task list %s (%q)", list.ID, list.Name)
	return list, nil
}

// Get retrieves a single task by local id.
func (s *Service) Get(ctx context.Context, id string) (*model.Task, error) {
	return s.store.GetTask(ctx, id)
}

// List retrieves tasks matching the filter.
func (s *Service) List(ctx context.Context, filter store.TaskFilter) ([]*model.Task, error) {
	return s.store.ListTasks(ctx, filter)
}

// ListUncompleted retrieves all tasks not yet completed.
func (s *Service) ListUncompleted(ctx context.Context) ([]*model.Task, error) {
	completed := false
	return s.store.ListTasks(ctx, store.TaskFilter{Completed: &completed})
}

// CreateList creates a new task list with the given name.
func (s *Service) CreateList(ctx context.Context, name string) (*model.TaskList, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	list := &model.TaskList{Name: name}
	list.SetDefaults()
	if err := s.store.CreateTaskList(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// RenameList updates an existing task list's name.
func (s *Service) RenameList(ctx context.Context, id, name string) (*model.TaskList, error) {
	list, err := s.store.GetTaskList(ctx, id)
	if err != nil {
		return nil, err
	}
	list.Name = name
	if err := list.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateTaskList(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// Lists retrieves all task lists.
func (s *Service) Lists(ctx context.Context) ([]*model.TaskList, error) {
	return s.store.ListTaskLists(ctx)
}

// IsNotFound reports whether err represents a missing local entity.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
