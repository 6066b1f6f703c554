package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrConstraint is returned when a write violates a storage constraint
	// such as a unique index.
	ErrConstraint = errors.New("constraint violation")
)
