package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrInvalidInput  = errors.New("invalid input")
)

// QuotaExceededError carries the ceiling and usage behind a denied creation so
// callers can show the user an actionable message.
type QuotaExceededError struct {
	Resource Resource
	Limit    int
	Current  int
	Reason   string
}

func (e *QuotaExceededError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("%s limit reached: %d of %d in use", e.Resource, e.Current, e.Limit)
}

func (e *QuotaExceededError) Unwrap() error {
	return ErrQuotaExceeded
}

// NotFoundError wraps ErrNotFound with the kind of entity that was missing
func NotFoundError(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}
