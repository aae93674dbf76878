package dashboard

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"taskmirror/internal/model"
	syncpkg "taskmirror/internal/sync"
)

// Handler formats sync and mutation activity as dashboard messages.
// It implements the notifier interfaces consumed by the orchestrator
// and the task service.
type Handler struct {
	server *Server
	logger *log.Logger

	statsMu sync.Mutex
	stats   StatsData
}

// NewHandler creates a new activity handler connected to a dashboard server.
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}

	return &Handler{
		server: server,
		logger: logger,
	}
}

// OnEventApplied broadcasts an applied inbound event.
func (h *Handler) OnEventApplied(ev *syncpkg.Event, task *model.Task, created bool) {
	h.statsMu.Lock()
	h.stats.EventsApplied++
	h.statsMu.Unlock()

	h.send(MessageTypeRemoteEvent, RemoteEventData{
		EventName: ev.Name,
		RemoteID:  ev.Data.ID,
		TaskID:    task.ID,
		Created:   created,
	})
	h.broadcastStats()
}

// OnEventDiscarded broadcasts a discarded inbound event.
func (h *Handler) OnEventDiscarded(ev *syncpkg.Event) {
	h.statsMu.Lock()
	h.stats.EventsDiscarded++
	h.statsMu.Unlock()

	h.send(MessageTypeDiscard, RemoteEventData{
		EventName: ev.Name,
		RemoteID:  ev.Data.ID,
	})
	h.broadcastStats()
}

// OnTaskMirrored broadcasts an outbound mirror operation.
func (h *Handler) OnTaskMirrored(task *model.Task, action string) {
	h.statsMu.Lock()
	h.stats.TasksMirrored++
	h.statsMu.Unlock()

	h.send(MessageTypeTaskMirrored, TaskMirroredData{
		TaskID:      task.ID,
		RemoteID:    task.RemoteID,
		Action:      action,
		Name:        task.Name,
		IsCompleted: task.IsCompleted,
	})
	h.broadcastStats()
}

// Stats returns a snapshot of the rolling statistics.
func (h *Handler) Stats() StatsData {
	h.statsMu.Lock()
	defer h.statsMu.Unlock()
	stats := h.stats
	stats.Clients = h.server.ClientCount()
	return stats
}

func (h *Handler) broadcastStats() {
	h.send(MessageTypeStats, h.Stats())
}

func (h *Handler) send(typ MessageType, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal %s data: %v", typ, err)
		return
	}

	h.server.Broadcast(Message{
		Type:      typ,
		Timestamp: time.Now(),
		Data:      payload,
	})
}
