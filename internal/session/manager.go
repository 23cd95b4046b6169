package session

import (
	"context"
	"errors"
	"time"
)

const defaultTTL = 24 * time.Hour

// Manager owns the session lifecycle: anonymous creation, resolution,
// principal attachment with id regeneration, and destruction.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// Option configures Manager behavior.
type Option func(*Manager)

// WithTTL overrides the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(m *Manager) {
		if fn != nil {
			m.now = fn
		}
	}
}

// NewManager constructs a Manager over the given store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		ttl:   defaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Begin creates and persists a new anonymous session with a fresh CSRF
// secret.
func (m *Manager) Begin(ctx context.Context) (*Session, error) {
	return m.create(ctx, "")
}

// Resolve looks up a session by id. Unknown and expired ids both surface
// as ErrNotFound; an expired record is removed on the way out.
func (m *Manager) Resolve(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	sess, err := m.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Expired(m.now().UTC()) {
		_ = m.store.Delete(ctx, id)
		return nil, ErrNotFound
	}
	return sess, nil
}

// Attach binds a principal to the client's session on successful login.
// The session is regenerated to prevent fixation: a new id and a new CSRF
// secret are issued and the old record is invalidated.
func (m *Manager) Attach(ctx context.Context, old *Session, principalID string) (*Session, error) {
	if principalID == "" {
		return nil, errors.New("session: principal id is required")
	}
	fresh, err := m.create(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if old != nil && old.ID != "" {
		if err := m.store.Delete(ctx, old.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return fresh, nil
}

// Destroy removes the session record. Destroying an already-absent id is
// not an error.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// Sweep removes expired records. Intended to run periodically.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx, m.now().UTC())
}

func (m *Manager) create(ctx context.Context, principalID string) (*Session, error) {
	id, err := NewID()
	if err != nil {
		return nil, err
	}
	secret, err := NewCSRFSecret()
	if err != nil {
		return nil, err
	}
	now := m.now().UTC()
	sess := &Session{
		ID:          id,
		PrincipalID: principalID,
		CSRFSecret:  secret,
		CreatedAt:   now,
		ExpiresAt:   now.Add(m.ttl),
	}
	if err := m.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}
