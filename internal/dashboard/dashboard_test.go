package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"taskmirror/internal/model"
	syncpkg "taskmirror/internal/sync"
)

func setupTest(t *testing.T) (*Server, string) {
	t.Helper()

	server := NewServer(log.New(os.Stderr, "[test] ", 0))
	server.Start()
	t.Cleanup(server.Stop)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.HandleWebSocket)
	httpSrv := httptest.NewServer(mux)
	t.Cleanup(httpSrv.Close)

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/ws"
	return server, wsURL
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect WebSocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func TestClientCount(t *testing.T) {
	server, wsURL := setupTest(t)

	dial(t, wsURL)

	// Registration happens in the accept handler before the read loop.
	deadline := time.Now().Add(2 * time.Second)
	for server.ClientCount() != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if count := server.ClientCount(); count != 1 {
		t.Errorf("expected 1 client, got %d", count)
	}
}

func TestBroadcastReachesClient(t *testing.T) {
	server, wsURL := setupTest(t)
	conn := dial(t, wsURL)

	handler := NewHandler(server, nil)
	task := &model.Task{ID: "t-1", Name: "Write report", RemoteID: "42"}
	ev := &syncpkg.Event{Name: syncpkg.EventItemAdded, Data: syncpkg.EventData{ID: "42"}}
	handler.OnEventApplied(ev, task, true)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("failed to read broadcast: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeRemoteEvent {
		t.Errorf("expected %s message, got %s", MessageTypeRemoteEvent, msg.Type)
	}

	var payload RemoteEventData
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}
	if payload.RemoteID != "42" || payload.TaskID != "t-1" || !payload.Created {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestHandlerStats(t *testing.T) {
	server, _ := setupTest(t)
	handler := NewHandler(server, nil)

	task := &model.Task{ID: "t-1", Name: "A", RemoteID: "1"}
	ev := &syncpkg.Event{Name: syncpkg.EventItemUpdated, Data: syncpkg.EventData{ID: "1"}}

	handler.OnEventApplied(ev, task, false)
	handler.OnEventDiscarded(ev)
	handler.OnTaskMirrored(task, "created")
	handler.OnTaskMirrored(task, "updated")

	stats := handler.Stats()
	if stats.EventsApplied != 1 || stats.EventsDiscarded != 1 || stats.TasksMirrored != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
