package client

import (
	"context"
	"sync"
)

// TodoStore mirrors the caller's server-side list with optimistic
// mutations: Update, Toggle and Remove apply locally first and roll the
// snapshot back when the server refuses. Create waits for the canonical
// record before inserting. Safe for concurrent use.
type TodoStore struct {
	client *Client

	mu      sync.RWMutex
	items   []Todo
	loading bool
	lastErr error
}

// NewTodoStore builds an empty store over the given client.
func NewTodoStore(c *Client) *TodoStore {
	s := &TodoStore{client: c}
	prev := c.onUnauthorized
	c.onUnauthorized = func() {
		s.reset()
		if prev != nil {
			prev()
		}
	}
	return s
}

// Items returns a copy of the current local list.
func (s *TodoStore) Items() []Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Todo, len(s.items))
	copy(out, s.items)
	return out
}

// Loading reports whether a Load is in flight.
func (s *TodoStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the error of the last failed operation, cleared by the
// next successful one.
func (s *TodoStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Load replaces the local list with the server's.
func (s *TodoStore) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	items, err := s.client.ListTodos(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.lastErr = err
		return err
	}
	s.items = items
	s.lastErr = nil
	return nil
}

// Create posts the new item and prepends the canonical record on
// success. No optimistic insert: the id and timestamps only exist once
// the server answers.
func (s *TodoStore) Create(ctx context.Context, title string, description *string) (Todo, error) {
	item, err := s.client.CreateTodo(ctx, title, description)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		return Todo{}, err
	}
	s.items = append([]Todo{item}, s.items...)
	s.lastErr = nil
	return item, nil
}

// Update applies the patch locally, then confirms with the server. On
// refusal the previous snapshot is restored; on success the local entry
// is replaced with the canonical record. An id the store has not seen
// yet is still sent and its canonical record adopted on success.
func (s *TodoStore) Update(ctx context.Context, id string, patch TodoPatch) (Todo, error) {
	snapshot, tracked := s.applyPatch(id, patch)

	item, err := s.client.UpdateTodo(ctx, id, patch)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if tracked {
			s.restore(id, snapshot)
		}
		s.lastErr = err
		return Todo{}, err
	}
	s.replace(item)
	s.lastErr = nil
	return item, nil
}

// Toggle flips completion optimistically.
func (s *TodoStore) Toggle(ctx context.Context, id string) (Todo, error) {
	s.mu.RLock()
	var next bool
	found := false
	for i := range s.items {
		if s.items[i].ID == id {
			next = !s.items[i].Completed
			found = true
			break
		}
	}
	s.mu.RUnlock()
	if !found {
		return Todo{}, &APIError{Status: 404, Message: "not found"}
	}
	return s.Update(ctx, id, TodoPatch{Completed: &next})
}

// Remove deletes optimistically: the item vanishes locally at once and
// reappears in place if the server refuses.
func (s *TodoStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := -1
	var snapshot Todo
	for i := range s.items {
		if s.items[i].ID == id {
			idx = i
			snapshot = s.items[i]
			break
		}
	}
	if idx >= 0 {
		s.items = append(s.items[:idx:idx], s.items[idx+1:]...)
	}
	s.mu.Unlock()

	err := s.client.DeleteTodo(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if idx >= 0 {
			s.insertAt(idx, snapshot)
		}
		s.lastErr = err
		return err
	}
	s.lastErr = nil
	return nil
}

func (s *TodoStore) reset() {
	s.mu.Lock()
	s.items = nil
	s.loading = false
	s.lastErr = nil
	s.mu.Unlock()
}

// applyPatch mutates the local entry and returns the pre-patch snapshot.
func (s *TodoStore) applyPatch(id string, patch TodoPatch) (Todo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		snapshot := s.items[i]
		if patch.Title != nil {
			s.items[i].Title = *patch.Title
		}
		if patch.ClearDescription {
			s.items[i].Description = nil
		} else if patch.Description != nil {
			desc := *patch.Description
			s.items[i].Description = &desc
		}
		if patch.Completed != nil {
			s.items[i].Completed = *patch.Completed
		}
		return snapshot, true
	}
	return Todo{}, false
}

func (s *TodoStore) restore(id string, snapshot Todo) {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i] = snapshot
			return
		}
	}
}

// replace swaps in the canonical record, adopting items the store has
// not mirrored yet.
func (s *TodoStore) replace(item Todo) {
	for i := range s.items {
		if s.items[i].ID == item.ID {
			s.items[i] = item
			return
		}
	}
	s.items = append([]Todo{item}, s.items...)
}

func (s *TodoStore) insertAt(idx int, item Todo) {
	if idx > len(s.items) {
		idx = len(s.items)
	}
	s.items = append(s.items, Todo{})
	copy(s.items[idx+1:], s.items[idx:])
	s.items[idx] = item
}
