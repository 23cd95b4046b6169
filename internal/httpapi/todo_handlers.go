package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"tickdone.org/internal/audit"
	"tickdone.org/internal/events"
	"tickdone.org/internal/todo"
)

type createTodoRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// updateTodoRequest keeps description raw so an explicit null (clear the
// field) stays distinguishable from an absent key (leave it alone).
type updateTodoRequest struct {
	Title       *string         `json:"title"`
	Description json.RawMessage `json:"description"`
	Completed   *bool           `json:"completed"`
}

var jsonNull = []byte("null")

func (req updateTodoRequest) toInput() (todo.UpdateInput, error) {
	in := todo.UpdateInput{
		Title:     req.Title,
		Completed: req.Completed,
	}
	switch {
	case req.Description == nil:
		// absent: no change
	case bytes.Equal(bytes.TrimSpace(req.Description), jsonNull):
		in.ClearDesc = true
	default:
		var desc string
		if err := json.Unmarshal(req.Description, &desc); err != nil {
			return todo.UpdateInput{}, err
		}
		in.Description = &desc
	}
	return in, nil
}

func (a *API) handleTodosCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listTodos(w, r)
	case http.MethodPost:
		a.createTodo(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTodoResource(w http.ResponseWriter, r *http.Request) {
	id := todoID(r.URL.Path)
	if id == "" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getTodo(w, r, id)
	case http.MethodPatch:
		a.updateTodo(w, r, id)
	case http.MethodDelete:
		a.deleteTodo(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) listTodos(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	items, err := a.todos.List(r.Context(), p.ID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []*todo.Todo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": len(items),
	})
}

func (a *API) createTodo(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if !requireCSRF(w, r) {
		return
	}
	var req createTodoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	item, err := a.todos.Create(r.Context(), p.ID, todo.CreateInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.publish(events.TypeCreated, item)
	_ = audit.LogEvent(r.Context(), "todo.create", map[string]any{"todo_id": item.ID})
	writeJSON(w, http.StatusCreated, item)
}

func (a *API) getTodo(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	item, err := a.todos.Get(r.Context(), p.ID, id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *API) updateTodo(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if !requireCSRF(w, r) {
		return
	}
	var req updateTodoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "description must be a string or null")
		return
	}
	item, err := a.todos.Update(r.Context(), p.ID, id, in)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.publish(events.TypeUpdated, item)
	_ = audit.LogEvent(r.Context(), "todo.update", map[string]any{"todo_id": item.ID})
	writeJSON(w, http.StatusOK, item)
}

func (a *API) deleteTodo(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if !requireCSRF(w, r) {
		return
	}
	if err := a.todos.Delete(r.Context(), p.ID, id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.hub.Publish(events.Event{
		Type:      events.TypeDeleted,
		TodoID:    id,
		OwnerID:   p.ID,
		Timestamp: time.Now().UTC(),
	})
	_ = audit.LogEvent(r.Context(), "todo.delete", map[string]any{"todo_id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) publish(typ string, item *todo.Todo) {
	a.hub.Publish(events.Event{
		Type:      typ,
		TodoID:    item.ID,
		OwnerID:   item.OwnerID,
		Item:      item,
		Timestamp: time.Now().UTC(),
	})
}
