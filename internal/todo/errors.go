package todo

import "errors"

var (
	// ErrNotFound covers both a nonexistent id and an id owned by a
	// different principal; the two are indistinguishable by design.
	ErrNotFound = errors.New("todo: not found")

	ErrInvalidInput = errors.New("todo: invalid input")
)
