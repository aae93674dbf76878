package api

import (
	"io"
	"net/http"

	syncpkg "taskmirror/internal/sync"
)

// maxWebhookBody bounds inbound payload size; event payloads carry only
// an event name and a remote id.
const maxWebhookBody = 64 * 1024

// handleWebhook ingests one delivery from the remote tracking service.
//
// Responses: 200 with the resulting task representation on success
// (including the no-op discarded case, which returns an empty object),
// 400 on a malformed payload, 500 on a processing fault. The remote
// service applies its own delivery retry policy on non-2xx responses.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ev, err := syncpkg.ParseEvent(payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	task, err := s.orchestrator.ApplyRemoteEvent(r.Context(), ev)
	if err != nil {
		// Logged with event context to support manual replay.
		s.logger.Printf("Webhook %s for remote id %s failed: %v", ev.Name, ev.Data.ID, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if task == nil {
		// Event discarded; still a 2xx so the source stops redelivering.
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}

	writeJSON(w, http.StatusOK, task)
}
