package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"taskmirror/internal/model"
	"taskmirror/internal/store"
	taskpkg "taskmirror/internal/task"
	"taskmirror/internal/todoist"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// statusFor maps service errors onto HTTP statuses: missing local
// entities are 404, remote refusals and exhausted retries are 502,
// anything else is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, todoist.ErrUnavailable), errors.Is(err, todoist.ErrRejected):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in taskpkg.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	task, err := s.tasks.Create(r.Context(), in)
	if err != nil {
		s.logger.Printf("Create task failed: %v", err)
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var in taskpkg.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	in.ID = mux.Vars(r)["id"]

	task, err := s.tasks.Update(r.Context(), in)
	if err != nil {
		var closeErr *taskpkg.CloseError
		if errors.As(err, &closeErr) {
			// The update was persisted; only the remote close step is
			// outstanding. Report the task with the failure attached.
			writeJSON(w, http.StatusBadGateway, map[string]interface{}{
				"task":  task,
				"error": closeErr.Error(),
			})
			return
		}
		s.logger.Printf("Update task %s failed: %v", in.ID, err)
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.tasks.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	var filter store.TaskFilter
	if v := r.URL.Query().Get("completed"); v != "" {
		completed := v == "true"
		filter.Completed = &completed
	}
	if v := r.URL.Query().Get("list"); v != "" {
		filter.TaskListID = v
	}

	tasks, err := s.tasks.List(r.Context(), filter)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if tasks == nil {
		tasks = []*model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleCreateTaskList(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	list, err := s.tasks.CreateList(r.Context(), in.Name)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

func (s *Server) handleUpdateTaskList(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	list, err := s.tasks.RenameList(r.Context(), mux.Vars(r)["id"], in.Name)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleListTaskLists(w http.ResponseWriter, r *http.Request) {
	lists, err := s.tasks.Lists(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if lists == nil {
		lists = []*model.TaskList{}
	}
	writeJSON(w, http.StatusOK, lists)
}
