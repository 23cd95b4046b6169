// Package events fans todo change notifications out to active subscribers
// (SSE clients). Delivery is best effort: slow subscribers drop events
// rather than block a request.
package events

import (
	"context"
	"sync"
	"time"

	"tickdone.org/internal/todo"
)

// Event types emitted by the API.
const (
	TypeCreated = "todo.created"
	TypeUpdated = "todo.updated"
	TypeDeleted = "todo.deleted"
)

// Event describes one change to a principal's todo list.
type Event struct {
	Type      string     `json:"type"`
	TodoID    string     `json:"todoId"`
	OwnerID   string     `json:"-"`
	Item      *todo.Todo `json:"item,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

type subscriber struct {
	ownerID string
	ch      chan Event
}

// Hub routes events to subscribers of the matching owner. Subscribers only
// ever see changes to their own todos.
type Hub struct {
	mu   sync.RWMutex
	subs map[int]subscriber
	next int
}

// NewHub initialises an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]subscriber)}
}

// Subscribe registers a subscriber for one owner's events. The returned
// channel is closed when the provided context ends.
func (h *Hub) Subscribe(ctx context.Context, ownerID string) <-chan Event {
	ch := make(chan Event, 16)

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = subscriber{ownerID: ownerID, ch: ch}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		close(ch)
		h.mu.Unlock()
	}()

	return ch
}

// Publish delivers the event to every subscriber of its owner.
func (h *Hub) Publish(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.ownerID != evt.OwnerID {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}
