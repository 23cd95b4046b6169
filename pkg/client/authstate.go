package client

import (
	"context"
	"sync"
)

// AuthStatus is the local view of the session.
type AuthStatus int

const (
	// StatusUnknown: not yet checked against the server.
	StatusUnknown AuthStatus = iota
	// StatusAnonymous: checked, no principal bound.
	StatusAnonymous
	// StatusAuthenticated: checked, principal known.
	StatusAuthenticated
)

// AuthState tracks who the session belongs to. Safe for concurrent use.
type AuthState struct {
	client *Client

	mu     sync.RWMutex
	status AuthStatus
	user   User
}

// NewAuthState builds an AuthState over the given client and hooks it
// into the client's 401 callback so any unauthorized response anywhere
// clears the local view.
func NewAuthState(c *Client) *AuthState {
	s := &AuthState{client: c}
	prev := c.onUnauthorized
	c.onUnauthorized = func() {
		s.Clear()
		if prev != nil {
			prev()
		}
	}
	return s
}

// Status returns the current local view.
func (s *AuthState) Status() AuthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// User returns the cached principal; meaningful only when Status is
// StatusAuthenticated.
func (s *AuthState) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Refresh asks the server who we are and settles Unknown into
// Authenticated or Anonymous. A 401 is the expected anonymous answer,
// not an error.
func (s *AuthState) Refresh(ctx context.Context) error {
	user, err := s.client.Me(ctx)
	if err != nil {
		if IsUnauthorized(err) {
			s.set(StatusAnonymous, User{})
			return nil
		}
		return err
	}
	s.set(StatusAuthenticated, user)
	return nil
}

// Login authenticates and records the principal on success.
func (s *AuthState) Login(ctx context.Context, email, password string) error {
	user, err := s.client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	s.set(StatusAuthenticated, user)
	return nil
}

// Logout destroys the session and clears the local view. The view is
// cleared even when the server call fails; the caller is done with this
// session either way.
func (s *AuthState) Logout(ctx context.Context) error {
	err := s.client.Logout(ctx)
	s.Clear()
	return err
}

// Clear resets to anonymous.
func (s *AuthState) Clear() {
	s.set(StatusAnonymous, User{})
}

func (s *AuthState) set(status AuthStatus, user User) {
	s.mu.Lock()
	s.status = status
	s.user = user
	s.mu.Unlock()
}
