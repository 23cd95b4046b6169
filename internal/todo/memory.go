package todo

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps todos in process memory. Used by tests and by the API
// when no database DSN is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Todo
	now   func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// MemoryOption configures MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock overrides the update-timestamp source (useful for tests).
func WithMemoryClock(fn func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if fn != nil {
			s.now = fn
		}
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{items: make(map[string]Todo), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Create(ctx context.Context, item *Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = cloneTodo(*item)
	return nil
}

func (s *MemoryStore) Find(ctx context.Context, ownerID, id string) (*Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok || item.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	clone := cloneTodo(item)
	return &clone, nil
}

func (s *MemoryStore) ListByOwner(ctx context.Context, ownerID string) ([]*Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Todo, 0)
	for _, item := range s.items {
		if item.OwnerID != ownerID {
			continue
		}
		clone := cloneTodo(item)
		out = append(out, &clone)
	}
	// Newest first; id is a ULID so it tiebreaks equal timestamps.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, ownerID, id string, in UpdateInput) (*Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || item.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	if in.Title != nil {
		item.Title = *in.Title
	}
	if in.ClearDesc {
		item.Description = nil
	} else if in.Description != nil {
		desc := *in.Description
		item.Description = &desc
	}
	if in.Completed != nil {
		item.Completed = *in.Completed
	}
	item.UpdatedAt = s.now().UTC()
	s.items[id] = cloneTodo(item)
	clone := cloneTodo(item)
	return &clone, nil
}

func (s *MemoryStore) Delete(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || item.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func cloneTodo(t Todo) Todo {
	if t.Description != nil {
		desc := *t.Description
		t.Description = &desc
	}
	return t
}
