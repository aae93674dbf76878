package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"taskmirror/internal/model"
	"taskmirror/internal/store"
	syncpkg "taskmirror/internal/sync"
	taskpkg "taskmirror/internal/task"
	"taskmirror/internal/testutil"
	"taskmirror/internal/todoist"
)

func setupTest(t *testing.T) (http.Handler, *store.Store, *testutil.FakeRemote) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	logger := log.New(os.Stderr, "[test] ", 0)
	remote := testutil.NewFakeRemote()
	orch := syncpkg.NewWithConfig(remote, st, &syncpkg.Config{Logger: logger})
	tasks := taskpkg.NewWithConfig(st, remote, &taskpkg.Config{Logger: logger})

	server := NewServer(&Config{Logger: logger}, tasks, orch, nil)
	return server.Routes(), st, remote
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestWebhookAddedEvent(t *testing.T) {
	handler, st, remote := setupTest(t)

	remote.Seed("42", "Write report", false)

	w := postJSON(t, handler, "/todo/sync",
		`{"event_name":"item:added","event_data":{"id":"42"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var task model.Task
	if err := json.Unmarshal(w.Body.Bytes(), &task); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if task.Name != "Write report" || task.IsCompleted || task.RemoteID != "42" {
		t.Errorf("unexpected task in response: %+v", task)
	}

	if _, err := st.GetTaskByRemoteID(context.Background(), "42"); err != nil {
		t.Errorf("task not persisted: %v", err)
	}
}

func TestWebhookDiscardReturns200(t *testing.T) {
	handler, st, _ := setupTest(t)

	// No remote item seeded: fetch yields NotFound and the event is dropped.
	w := postJSON(t, handler, "/todo/sync",
		`{"event_name":"item:updated","event_data":{"id":"bogus"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for discarded event, got %d", w.Code)
	}

	count, err := st.GetTaskCount(context.Background())
	if err != nil {
		t.Fatalf("GetTaskCount failed: %v", err)
	}
	if count != 0 {
		t.Errorf("discard must not mutate the store, got %d tasks", count)
	}
}

func TestWebhookMalformedPayload(t *testing.T) {
	handler, _, _ := setupTest(t)

	for _, body := range []string{
		`not json`,
		`{"event_name":"item:deleted","event_data":{"id":"42"}}`,
		`{"event_name":"item:added","event_data":{}}`,
	} {
		w := postJSON(t, handler, "/todo/sync", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("payload %q: expected 400, got %d", body, w.Code)
		}
	}
}

func TestWebhookProcessingFaultReturns500(t *testing.T) {
	handler, _, remote := setupTest(t)

	remote.FetchErr = fmt.Errorf("%w: retries exhausted", todoist.ErrUnavailable)

	w := postJSON(t, handler, "/todo/sync",
		`{"event_name":"item:added","event_data":{"id":"42"}}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 on processing fault, got %d", w.Code)
	}
}

func TestCreateTaskEndpoint(t *testing.T) {
	handler, _, remote := setupTest(t)

	w := postJSON(t, handler, "/tasks", `{"name":"Buy milk"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var task model.Task
	if err := json.Unmarshal(w.Body.Bytes(), &task); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if task.RemoteID == "" {
		t.Error("created task should be linked")
	}
	if remote.CreateCalls != 1 {
		t.Errorf("expected 1 remote create call, got %d", remote.CreateCalls)
	}
}

func TestCreateTaskRemoteDownReturns502(t *testing.T) {
	handler, _, remote := setupTest(t)

	remote.CreateErr = fmt.Errorf("%w: no route", todoist.ErrUnavailable)

	w := postJSON(t, handler, "/tasks", `{"name":"Buy milk"}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502 when remote is down, got %d", w.Code)
	}
}

func TestUpdateTaskEndpoint(t *testing.T) {
	handler, _, remote := setupTest(t)

	w := postJSON(t, handler, "/tasks", `{"name":"Ship"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create failed: %d", w.Code)
	}
	var task model.Task
	if err := json.Unmarshal(w.Body.Bytes(), &task); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	body := `{"name":"Ship","is_completed":true,"task_list":{"name":"Work"}}`
	req := httptest.NewRequest(http.MethodPut, "/tasks/"+task.ID, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var updated model.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !updated.IsCompleted || updated.TaskListID == "" {
		t.Errorf("unexpected task: %+v", updated)
	}
	if remote.CloseCalls != 1 {
		t.Errorf("expected 1 close call, got %d", remote.CloseCalls)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	handler, _, _ := setupTest(t)

	req := httptest.NewRequest(http.MethodGet, "/tasks/missing", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestListTasksFilter(t *testing.T) {
	handler, _, _ := setupTest(t)

	if w := postJSON(t, handler, "/tasks", `{"name":"Open task"}`); w.Code != http.StatusCreated {
		t.Fatalf("create failed: %d", w.Code)
	}
	if w := postJSON(t, handler, "/tasks", `{"name":"Done task","is_completed":true}`); w.Code != http.StatusCreated {
		t.Fatalf("create failed: %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/tasks?completed=false", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var tasks []*model.Task
	if err := json.Unmarshal(w.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Name != "Open task" {
		t.Errorf("expected only the open task, got %+v", tasks)
	}
}

func TestTaskListEndpoints(t *testing.T) {
	handler, _, _ := setupTest(t)

	w := postJSON(t, handler, "/tasklists", `{"name":"Work"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	var list model.TaskList
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/tasklists/"+list.ID, bytes.NewBufferString(`{"name":"Office"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/tasklists", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var lists []*model.TaskList
	if err := json.Unmarshal(rec.Body.Bytes(), &lists); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(lists) != 1 || lists[0].Name != "Office" {
		t.Errorf("expected 1 list named Office, got %+v", lists)
	}
}

func TestHealth(t *testing.T) {
	handler, _, _ := setupTest(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
