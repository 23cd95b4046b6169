package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the session id resolves to nothing. Callers treat
// it identically to "no session" and fall back to anonymous.
var ErrNotFound = errors.New("session: not found")

// Store describes get/set/destroy semantics over serialized session records.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Find(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
