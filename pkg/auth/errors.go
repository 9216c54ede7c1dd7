package auth

import (
	"errors"
	"fmt"
)

// ErrInvalidKey is returned when the presented credential matches no
// known user.
var ErrInvalidKey = errors.New("invalid API key")

// InactiveUserError is returned when a known user has been deactivated.
type InactiveUserError struct {
	UserID string
}

func (e *InactiveUserError) Error() string {
	return fmt.Sprintf("user %q is inactive", e.UserID)
}

// QuotaExceededError is returned when a user's daily request limit is
// spent. Used carries the post-rollover count so the caller sees the
// same number the gate compared against.
type QuotaExceededError struct {
	UserID string
	Limit  int
	Used   int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily quota exceeded for %q: limit %d, used %d", e.UserID, e.Limit, e.Used)
}
