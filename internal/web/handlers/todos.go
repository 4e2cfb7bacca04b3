package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/todos/internal/database"
	"github.com/saltyorg/todos/internal/web/middleware"
)

// TodoDeletedMessage acknowledges a successful delete.
const TodoDeletedMessage = "Todo deleted successfully"

// TodoNotFoundMessage is the detail returned when a delete targets a missing id.
const TodoNotFoundMessage = "Todo not found"

// CreateTodoRequest is the accepted body of a create request.
// Content is a pointer so that an empty string is distinguishable from a missing field.
// Any id in the body is ignored.
type CreateTodoRequest struct {
	Content *string `json:"content" validate:"required"`
}

// TodoList returns every todo
func (h *Handlers) TodoList(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	todos, err := session.ListTodos(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list todos")
		h.jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, http.StatusOK, todos)
}

// TodoCreate stores a new todo and returns it with its assigned id
func (h *Handlers) TodoCreate(w http.ResponseWriter, r *http.Request) {
	var payload CreateTodoRequest
	if err := h.validate.decodeJSON(r, &payload); err != nil {
		h.jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	session := middleware.GetSession(r.Context())

	todo, err := session.CreateTodo(r.Context(), *payload.Content)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create todo")
		h.jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	log.Info().Int64("id", todo.ID).Msg("Todo created")

	h.jsonResponse(w, http.StatusOK, todo)
}

// TodoDelete removes a todo by id
func (h *Handlers) TodoDelete(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.jsonError(w, "id: expected integer", http.StatusUnprocessableEntity)
		return
	}

	session := middleware.GetSession(r.Context())

	if err := session.DeleteTodo(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrTodoNotFound) {
			h.jsonError(w, TodoNotFoundMessage, http.StatusNotFound)
			return
		}
		log.Error().Err(err).Int64("id", id).Msg("Failed to delete todo")
		h.jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	log.Info().Int64("id", id).Msg("Todo deleted")

	h.jsonResponse(w, http.StatusOK, messageResponse{Message: TodoDeletedMessage})
}
