package repository

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a conditional update matched no row in the expected state,
	// or a uniqueness rule rejected an insert.
	ErrConflict = errors.New("record state conflict")
)
