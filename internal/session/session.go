// Package session implements the server-side session model: an opaque
// client-held token correlated with an optional principal and a CSRF secret.
package session

import "time"

// Session is the persisted record behind a session cookie. A session with
// no PrincipalID is anonymous and must never authorize mutations.
type Session struct {
	ID          string    `json:"id"`
	PrincipalID string    `json:"principal_id,omitempty"`
	CSRFSecret  string    `json:"csrf_secret"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Anonymous reports whether the session carries no principal.
func (s *Session) Anonymous() bool {
	return s == nil || s.PrincipalID == ""
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || !now.Before(s.ExpiresAt)
}
