package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"tickdone.org/internal/ids"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
	maxNameLen     = 100
)

// Service registers accounts and verifies credentials. It is the single
// credential-checking path; there is no pluggable strategy registry.
type Service struct {
	store UserStore
	now   func() time.Time
	cost  int
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithBcryptCost overrides the hashing cost. Tests use the bcrypt minimum
// to keep registration fast.
func WithBcryptCost(cost int) ServiceOption {
	return func(s *Service) {
		if cost > 0 {
			s.cost = cost
		}
	}
}

// NewService constructs Service with optional configuration.
func NewService(store UserStore, opts ...ServiceOption) *Service {
	svc := &Service{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// RegisterInput carries a new account request.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Register creates an account. Email is normalized to lower case; a second
// registration for the same normalized email fails with ErrEmailTaken.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Principal, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return Principal{}, err
	}
	if len(in.Password) < minPasswordLen || len(in.Password) > maxPasswordLen {
		return Principal{}, fmt.Errorf("%w: password must be %d-%d characters", ErrInvalidInput, minPasswordLen, maxPasswordLen)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > maxNameLen {
		return Principal{}, fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidInput, maxNameLen)
	}

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return Principal{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return Principal{}, err
	}

	hash, err := HashPassword(in.Password, s.cost)
	if err != nil {
		return Principal{}, err
	}
	now := s.now().UTC()
	user := &User{
		ID:           ids.New(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// The unique index on email is the backstop for two racing registrations.
	if err := s.store.Create(ctx, user); err != nil {
		return Principal{}, err
	}
	return user.Principal(), nil
}

// Verify checks an email/password pair. Unknown email and wrong password
// collapse into the same ErrInvalidCredentials so accounts cannot be
// enumerated. It never mutates state.
func (s *Service) Verify(ctx context.Context, email, password string) (Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Principal{}, ErrInvalidCredentials
	}
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrInvalidCredentials
		}
		return Principal{}, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return Principal{}, ErrInvalidCredentials
	}
	return user.Principal(), nil
}

// Find loads the principal behind a stored user id.
func (s *Service) Find(ctx context.Context, id string) (Principal, error) {
	user, err := s.store.Find(ctx, id)
	if err != nil {
		return Principal{}, err
	}
	return user.Principal(), nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: email is not a valid address", ErrInvalidInput)
	}
	return email, nil
}
