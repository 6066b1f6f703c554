package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/martijn/userboard/internal/core/repository"
)

var (
	// ErrNotFound is returned when an update or delete target does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is the base of DuplicateKeyError.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrAuthFailure covers every reason a login or session check fails.
	// Handlers show one message for all of them.
	ErrAuthFailure   = errors.New("authentication failed")
	ErrNoSuchUser    = fmt.Errorf("%w: no such user", ErrAuthFailure)
	ErrBadCredential = fmt.Errorf("%w: bad credential", ErrAuthFailure)

	// ErrUpstreamUnavailable marks store or CAPTCHA failures the user may retry.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// DuplicateKeyError reports which unique field collided.
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate %s", e.Field)
}

func (e *DuplicateKeyError) Unwrap() error {
	return ErrDuplicateKey
}

// storeError wraps a repository failure, marking deadline overruns as
// retryable upstream failures.
func storeError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, ErrUpstreamUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// duplicateFromConstraint maps a unique index violation raised by the store
// back to the colliding field.
func duplicateFromConstraint(err error) (*DuplicateKeyError, bool) {
	if !errors.Is(err, repository.ErrConstraint) {
		return nil, false
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "user.email"):
		return &DuplicateKeyError{Field: "email"}, true
	case strings.Contains(msg, "user.username"):
		return &DuplicateKeyError{Field: "username"}, true
	}
	return nil, false
}
