package repository

import "errors"

var (
	// ErrNotFound indicates an entity is absent or soft-deleted.
	ErrNotFound = errors.New("repository: not found")

	// ErrDuplicateEmail indicates a signup collided with an existing email.
	ErrDuplicateEmail = errors.New("repository: email already exists")
)
