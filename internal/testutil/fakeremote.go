// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"taskmirror/internal/todoist"
)

// FakeRemote is an in-memory stand-in for the Todoist client. It
// satisfies both the fetch side consumed by the sync orchestrator and
// the mirror side consumed by the task service.
type FakeRemote struct {
	mu     sync.Mutex
	items  map[string]*todoist.Item
	nextID int

	// Call counters
	FetchCalls  int
	CreateCalls int
	UpdateCalls int
	CloseCalls  int

	// Error injection
	FetchErr  error
	CreateErr error
	UpdateErr error
	CloseErr  error
}

// NewFakeRemote creates an empty fake remote.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{items: make(map[string]*todoist.Item)}
}

// Seed installs a remote item, returning its id.
func (f *FakeRemote) Seed(id, content string, completed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[id] = &todoist.Item{ID: id, Content: content, IsCompleted: completed}
}

// Item returns a copy of the stored item, or nil.
func (f *FakeRemote) Item(id string) *todoist.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil
	}
	cp := *item
	return &cp
}

// Fetch implements the orchestrator's Remote interface.
func (f *FakeRemote) Fetch(ctx context.Context, id string) (*todoist.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FetchCalls++
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	item, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("remote task %s: %w", id, todoist.ErrNotFound)
	}
	cp := *item
	return &cp, nil
}

// Create implements the service's RemoteMirror interface.
func (f *FakeRemote) Create(ctx context.Context, content string) (*todoist.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateCalls++
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	f.nextID++
	item := &todoist.Item{ID: fmt.Sprintf("remote-%d", f.nextID), Content: content}
	f.items[item.ID] = item
	cp := *item
	return &cp, nil
}

// Update implements the service's RemoteMirror interface.
func (f *FakeRemote) Update(ctx context.Context, id, content string) (*todoist.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UpdateCalls++
	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}
	item, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("remote task %s: %w", id, todoist.ErrNotFound)
	}
	item.Content = content
	cp := *item
	return &cp, nil
}

// Close implements the service's RemoteMirror interface.
func (f *FakeRemote) Close(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CloseCalls++
	if f.CloseErr != nil {
		return f.CloseErr
	}
	item, ok := f.items[id]
	if !ok {
		return fmt.Errorf("remote task %s: %w", id, todoist.ErrNotFound)
	}
	item.IsCompleted = true
	return nil
}
