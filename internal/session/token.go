package session

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

const tokenBytes = 32 // 256 bits of entropy

// NewID generates a cryptographically secure opaque session identifier.
func NewID() (string, error) {
	return randomToken()
}

// NewCSRFSecret generates a per-session anti-forgery secret. The secret
// doubles as the presentable token in the double-submit scheme.
func NewCSRFSecret() (string, error) {
	return randomToken()
}

func randomToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// VerifyCSRF compares a submitted token against the session's secret in
// constant time.
func VerifyCSRF(secret, submitted string) bool {
	if secret == "" || submitted == "" {
		return false
	}
	if len(secret) != len(submitted) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(submitted)) == 1
}
