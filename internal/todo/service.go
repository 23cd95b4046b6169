package todo

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"tickdone.org/internal/ids"
)

const (
	maxTitleLen = 200
	maxDescLen  = 2000
)

// Service validates input and drives the store. All operations require the
// owner id of an already-authenticated principal; authentication itself is
// the HTTP layer's job.
type Service struct {
	store Store
	now   func() time.Time
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

// NewService constructs Service over the given store.
func NewService(store Store, opts ...ServiceOption) *Service {
	svc := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// List returns the owner's todos, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]*Todo, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// Get returns a single todo. A foreign or unknown id is ErrNotFound either way.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*Todo, error) {
	return s.store.Find(ctx, ownerID, id)
}

// Create validates and persists a new todo owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*Todo, error) {
	title, err := validTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if in.Description != nil {
		if err := validDescription(*in.Description); err != nil {
			return nil, err
		}
	}
	now := s.now().UTC()
	item := &Todo{
		ID:          ids.New(),
		OwnerID:     ownerID,
		Title:       title,
		Description: in.Description,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Update merges the partial input into the owner's todo. Unspecified
// fields stay untouched; updatedAt is refreshed by the store.
func (s *Service) Update(ctx context.Context, ownerID, id string, in UpdateInput) (*Todo, error) {
	if in.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}
	if in.Title != nil {
		title, err := validTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		in.Title = &title
	}
	if in.Description != nil {
		if err := validDescription(*in.Description); err != nil {
			return nil, err
		}
	}
	return s.store.Update(ctx, ownerID, id, in)
}

// Delete removes the owner's todo permanently.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	return s.store.Delete(ctx, ownerID, id)
}

func validTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "", fmt.Errorf("%w: title must be at most %d characters", ErrInvalidInput, maxTitleLen)
	}
	return title, nil
}

func validDescription(desc string) error {
	if utf8.RuneCountInString(desc) > maxDescLen {
		return fmt.Errorf("%w: description must be at most %d characters", ErrInvalidInput, maxDescLen)
	}
	return nil
}
