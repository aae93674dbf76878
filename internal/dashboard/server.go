// Package dashboard provides real-time WebSocket broadcast of sync activity.
//
// The dashboard broadcasts inbound webhook applications, outbound mirror
// operations, and rolling statistics to connected WebSocket clients,
// enabling live monitoring of the mirroring protocol.
package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// MessageType defines the type of dashboard message
type MessageType string

const (
	// MessageTypeRemoteEvent indicates an inbound webhook event was applied
	MessageTypeRemoteEvent MessageType = "remote_event"

	// MessageTypeTaskMirrored indicates a local mutation was mirrored remotely
	MessageTypeTaskMirrored MessageType = "task_mirrored"

	// MessageTypeDiscard indicates an inbound event was discarded
	MessageTypeDiscard MessageType = "discard"

	// MessageTypeStats indicates updated sync statistics
	MessageTypeStats MessageType = "stats"
)

// Message represents a dashboard broadcast message
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// RemoteEventData contains inbound event information
type RemoteEventData struct {
	EventName string `json:"event_name"`
	RemoteID  string `json:"remote_id"`
	TaskID    string `json:"task_id,omitempty"`
	Created   bool   `json:"created,omitempty"`
}

// TaskMirroredData contains outbound mirror information
type TaskMirroredData struct {
	TaskID      string `json:"task_id"`
	RemoteID    string `json:"remote_id"`
	Action      string `json:"action"` // created, updated
	Name        string `json:"name,omitempty"`
	IsCompleted bool   `json:"is_completed"`
}

// StatsData contains rolling sync statistics
type StatsData struct {
	EventsApplied   int `json:"events_applied"`
	EventsDiscarded int `json:"events_discarded"`
	TasksMirrored   int `json:"tasks_mirrored"`
	Clients         int `json:"clients"`
}

// Server manages WebSocket connections and broadcasts dashboard messages.
// It does not own a listener; mount HandleWebSocket on an HTTP router and
// call Start/Stop around the router's lifecycle.
type Server struct {
	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	broadcast chan Message

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// NewServer creates a new dashboard broadcast server.
// If logger is nil, log.Default() is used.
func NewServer(logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Message, 100),
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger,
	}
}

// Start begins the broadcast loop.
func (s *Server) Start() {
	s.wg.Add(1)
	go s.broadcastLoop()
}

// Stop shuts down the broadcast loop and closes all client connections.
func (s *Server) Stop() {
	s.cancel()

	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "Server shutting down")
		delete(s.clients, conn)
	}
	s.clientsMu.Unlock()

	s.wg.Wait()
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Broadcast sends a message to all connected clients.
func (s *Server) Broadcast(msg Message) {
	select {
	case s.broadcast <- msg:
	case <-s.ctx.Done():
		return
	default:
		s.logger.Println("Warning: broadcast channel full, dropping message")
	}
}

// HandleWebSocket upgrades an HTTP request to a WebSocket client.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Printf("WebSocket accept failed: %v", err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	count := len(s.clients)
	s.clientsMu.Unlock()

	s.logger.Printf("Dashboard client connected (%d total)", count)

	// Read loop keeps the connection alive and detects disconnects;
	// clients don't send meaningful data.
	go func() {
		defer func() {
			s.clientsMu.Lock()
			delete(s.clients, conn)
			s.clientsMu.Unlock()
			_ = conn.Close(websocket.StatusNormalClosure, "")
		}()
		for {
			if _, _, err := conn.Read(s.ctx); err != nil {
				return
			}
		}
	}()
}

// broadcastLoop handles message broadcasting to all clients.
func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return

		case msg := <-s.broadcast:
			if msg.Timestamp.IsZero() {
				msg.Timestamp = time.Now()
			}

			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Printf("Failed to marshal message: %v", err)
				continue
			}

			s.clientsMu.RLock()
			clients := make([]*websocket.Conn, 0, len(s.clients))
			for conn := range s.clients {
				clients = append(clients, conn)
			}
			s.clientsMu.RUnlock()

			// Send outside the read lock to avoid blocking broadcasts.
			for _, conn := range clients {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
					s.logger.Printf("Failed to write to client: %v", err)
				}
				cancel()
			}
		}
	}
}
