package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"todoapp/internal/models"
	"todoapp/internal/store"
)

type createTodoRequest struct {
	Title string `json:"title"`
}

// ListTodos returns every todo, newest first.
func (h *Handlers) ListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := h.store.ListAll(r.Context())
	if err != nil {
		h.respondServerError(w, r, "list", err)
		return
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	writeJSON(w, http.StatusOK, todos)
}

// CreateTodo stores a new todo from {"title": ...}.
func (h *Handlers) CreateTodo(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	todo, err := h.store.Insert(r.Context(), req.Title)
	if errors.Is(err, models.ErrTitleRequired) {
		respondError(w, http.StatusBadRequest, "Title required")
		return
	}
	if err != nil {
		h.respondServerError(w, r, "create", err)
		return
	}

	writeJSON(w, http.StatusCreated, todo)
}

// UpdateTodo applies any subset of {"title", "completed"} to a todo.
func (h *Handlers) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	id := parseID(r)

	var patch models.TodoPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	todo, err := h.store.UpdateByID(r.Context(), id, patch)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Todo not found")
		return
	}
	if err != nil {
		h.respondServerError(w, r, "update", err)
		return
	}

	writeJSON(w, http.StatusOK, todo)
}

// DeleteTodo removes a todo.
func (h *Handlers) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	err := h.store.DeleteByID(r.Context(), parseID(r))
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Todo not found")
		return
	}
	if err != nil {
		h.respondServerError(w, r, "delete", err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Todo deleted"})
}

// Health reports whether the store answers a ping.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
