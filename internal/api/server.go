// Package api exposes the HTTP surface of taskmirror: the inbound
// webhook endpoint consumed by the remote tracking service, a JSON REST
// API over tasks and task lists, and the dashboard WebSocket endpoint.
package api

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"taskmirror/internal/dashboard"
	taskpkg "taskmirror/internal/task"
	syncpkg "taskmirror/internal/sync"
)

// Config holds server configuration
type Config struct {
	// Port to listen on (default: 8080)
	Port int

	// Logger for server activity (default: log.Default())
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Port:   8080,
		Logger: log.Default(),
	}
}

// Server serves the webhook, REST, and dashboard endpoints.
type Server struct {
	addr     string
	listener net.Listener
	server   *http.Server

	tasks        *taskpkg.Service
	orchestrator *syncpkg.Orchestrator
	dash         *dashboard.Server

	wg     sync.WaitGroup
	logger *log.Logger
}

// NewServer creates a new API server. The dashboard server may be nil,
// in which case the /ws endpoint is not registered.
func NewServer(config *Config, tasks *taskpkg.Service, orch *syncpkg.Orchestrator, dash *dashboard.Server) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}

	return &Server{
		addr:         fmt.Sprintf(":%d", config.Port),
		tasks:        tasks,
		orchestrator: orch,
		dash:         dash,
		logger:       config.Logger,
	}
}

// Routes builds the HTTP router. Exposed for tests.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()

	// Webhook channel from the remote tracking service
	r.HandleFunc("/todo/sync", s.handleWebhook).Methods(http.MethodPost)

	// REST surface over the local store
	r.HandleFunc("/tasks", s.handleCreateTask).Methods(http.MethodPost)
	r.HandleFunc("/tasks", s.handleListTasks).Methods(http.MethodGet)
	r.HandleFunc("/tasks/{id}", s.handleGetTask).Methods(http.MethodGet)
	r.HandleFunc("/tasks/{id}", s.handleUpdateTask).Methods(http.MethodPut)
	r.HandleFunc("/tasklists", s.handleCreateTaskList).Methods(http.MethodPost)
	r.HandleFunc("/tasklists", s.handleListTaskLists).Methods(http.MethodGet)
	r.HandleFunc("/tasklists/{id}", s.handleUpdateTaskList).Methods(http.MethodPut)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	if s.dash != nil {
		r.HandleFunc("/ws", s.dash.HandleWebSocket)
	}

	return r
}

// Start begins serving in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Printf("API server listening on %s", ln.Addr())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("Server error: %v", err)
		}
	}()

	return nil
}

// GetAddr returns the bound listener address, or "" before Start.
func (s *Server) GetAddr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.wg.Wait()
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
