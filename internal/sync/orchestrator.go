// Package sync implements the inbound half of the mirroring protocol:
// it consumes webhook events from the remote tracking service and
// reconciles them into the local task store.
//
// The remote source is at-least-once and unordered: the same logical
// event may be redelivered, and an "updated" event may arrive before the
// corresponding "added" event for the same remote id. The orchestrator
// tolerates both by overwriting (never incrementing) local state and by
// falling back to creation when no local mirror exists.
//
// No remote write is ever issued from this path; inbound events only
// flow remote to local.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"taskmirror/internal/model"
	"taskmirror/internal/store"
	"taskmirror/internal/todoist"
)

// Remote is the read side of the remote client consumed by the
// orchestrator. Content is always re-fetched through it rather than
// trusted from webhook payloads.
type Remote interface {
	Fetch(ctx context.Context, id string) (*todoist.Item, error)
}

// TaskStore is the narrow persistence surface the orchestrator needs.
type TaskStore interface {
	GetTaskByRemoteID(ctx context.Context, remoteID string) (*model.Task, error)
	CreateTask(ctx context.Context, task *model.Task) error
	UpdateTask(ctx context.Context, task *model.Task) error
}

// Notifier receives sync activity for observers such as the dashboard.
// Implementations must not block.
type Notifier interface {
	// OnEventApplied is called after an event has been persisted.
	// created reports whether a new local task was created.
	OnEventApplied(ev *Event, task *model.Task, created bool)

	// OnEventDiscarded is called when an event is dropped because the
	// remote record no longer exists.
	OnEventDiscarded(ev *Event)
}

// Config holds orchestrator configuration.
type Config struct {
	// Logger for sync activity (default: stderr logger).
	Logger *log.Logger

	// Notifier for sync activity (default: none).
	Notifier Notifier
}

// Orchestrator reconciles inbound remote events into the task store.
type Orchestrator struct {
	remote Remote
	store  TaskStore
	logger *log.Logger
	notify Notifier
	locks  *keyedMutex
}

// New creates an orchestrator with default configuration.
func New(remote Remote, taskStore TaskStore) *Orchestrator {
	return NewWithConfig(remote, taskStore, nil)
}

// NewWithConfig creates an orchestrator with custom configuration.
func NewWithConfig(remote Remote, taskStore TaskStore, cfg *Config) *Orchestrator {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}

	return &Orchestrator{
		remote: remote,
		store:  taskStore,
		logger: cfg.Logger,
		notify: cfg.Notifier,
		locks:  newKeyedMutex(),
	}
}

// ApplyRemoteEvent processes one inbound webhook event.
//
// The authoritative remote content is fetched first; if the remote record
// no longer exists the event is discarded as a no-op and (nil, nil) is
// returned. Otherwise the local task linked to the event's remote id is
// overwritten with the fetched content, or created when no local mirror
// exists yet.
//
// Events for the same remote id are serialized; events for distinct
// remote ids proceed concurrently.
func (o *Orchestrator) ApplyRemoteEvent(ctx context.Context, ev *Event) (*model.Task, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}

	remoteID := ev.Data.ID

	item, err := o.remote.Fetch(ctx, remoteID)
	if err != nil {
		if errors.Is(err, todoist.ErrNotFound) {
			// Remote record was deleted or the id is bogus; drop the event.
			o.logger.Printf("Discarding %s for remote id %s: remote record not found", ev.Name, remoteID)
			if o.notify != nil {
				o.notify.OnEventDiscarded(ev)
			}
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch remote task for %s event (remote id %s): %w", ev.Name, remoteID, err)
	}

	o.locks.lock(remoteID)
	defer o.locks.unlock(remoteID)

	task, err := o.store.GetTaskByRemoteID(ctx, remoteID)
	switch {
	case err == nil:
		return o.applyUpdate(ctx, ev, task, item)
	case errors.Is(err, store.ErrNotFound):
		// No local mirror. "added" creates one; "updated"/"completed"
		// with no match means the mirror was lost or never created, and
		// remote-confirmed data must not be dropped, so create as well.
		return o.applyCreate(ctx, ev, item)
	default:
		return nil, fmt.Errorf("failed to look up task by remote id %s: %w", remoteID, err)
	}
}

// applyUpdate overwrites an existing local task with fetched remote
// content. An "added" event for an already-known remote id lands here
// too: the source is at-least-once and replays are treated as updates.
func (o *Orchestrator) applyUpdate(ctx context.Context, ev *Event, task *model.Task, item *todoist.Item) (*model.Task, error) {
	task.Name = item.Content
	task.IsCompleted = item.IsCompleted
	task.UpdateTimestamp()

	if err := o.store.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to persist %s event for remote id %s: %w", ev.Name, item.ID, err)
	}

	o.logger.Printf("Applied %s: task %s (remote id %s)", ev.Name, task.ID, item.ID)
	if o.notify != nil {
		o.notify.OnEventApplied(ev, task, false)
	}
	return task, nil
}

// applyCreate stores a new local task from fetched remote content.
func (o *Orchestrator) applyCreate(ctx context.Context, ev *Event, item *todoist.Item) (*model.Task, error) {
	task := &model.Task{
		Name:        item.Content,
		IsCompleted: item.IsCompleted,
		RemoteID:    item.ID,
	}
	task.SetDefaults()

	if err := o.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to store %s event for remote id %s: %w", ev.Name, item.ID, err)
	}

	o.logger.Printf("Applied %s: created task %s (remote id %s)", ev.Name, task.ID, item.ID)
	if o.notify != nil {
		o.notify.OnEventApplied(ev, task, true)
	}
	return task, nil
}
