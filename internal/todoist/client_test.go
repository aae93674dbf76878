package todoist

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(Config{
		Token:       "test-token",
		BaseURL:     srv.URL,
		Timeout:     2 * time.Second,
		MaxAttempts: 3,
		Backoff:     time.Millisecond,
		Logger:      log.New(os.Stderr, "[test] ", 0),
	})
}

func TestFetch(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/tasks/42" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected auth header: %q", got)
		}
		_ = json.NewEncoder(w).Encode(Item{ID: "42", Content: "Write report", IsCompleted: false})
	}))

	item, err := c.Fetch(context.Background(), "42")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if item.ID != "42" || item.Content != "Write report" {
		t.Errorf("unexpected item: %+v", item)
	}
}

func TestFetchNotFound(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.Fetch(context.Background(), "gone")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreate(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/tasks" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		if body["content"] != "Buy milk" {
			t.Errorf("unexpected content: %q", body["content"])
		}
		_ = json.NewEncoder(w).Encode(Item{ID: "100", Content: body["content"]})
	}))

	item, err := c.Create(context.Background(), "Buy milk")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if item.ID != "100" {
		t.Errorf("expected remote id 100, got %q", item.ID)
	}
}

func TestClose(t *testing.T) {
	var closed bool
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/tasks/42/close" {
			closed = true
			w.WriteHeader(http.StatusNoContent)
			return
		}
		t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
	}))

	if err := c.Close(context.Background(), "42"); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !closed {
		t.Error("close endpoint was not called")
	}
}

func TestRejectedNotRetried(t *testing.T) {
	var calls int
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.Fetch(context.Background(), "42")
	if !errors.Is(err, ErrRejected) {
		t.Errorf("expected ErrRejected, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt for rejected call, got %d", calls)
	}
}

func TestTransientRetriedThenUnavailable(t *testing.T) {
	var calls int
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.Fetch(context.Background(), "42")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestTransientRecovers(t *testing.T) {
	var calls int
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(Item{ID: "42", Content: "ok"})
	}))

	item, err := c.Fetch(context.Background(), "42")
	if err != nil {
		t.Fatalf("Fetch failed after recovery: %v", err)
	}
	if item.Content != "ok" {
		t.Errorf("unexpected item: %+v", item)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{200, nil},
		{204, nil},
		{404, ErrNotFound},
		{400, ErrRejected},
		{401, ErrRejected},
		{403, ErrRejected},
		{429, ErrTransient},
		{500, ErrTransient},
		{503, ErrTransient},
	}

	for _, tt := range tests {
		err := classifyStatus(tt.status)
		if tt.want == nil {
			if err != nil {
				t.Errorf("status %d: expected nil, got %v", tt.status, err)
			}
			continue
		}
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: expected %v, got %v", tt.status, tt.want, err)
		}
	}
}
