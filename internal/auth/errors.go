package auth

import (
	"errors"
	"fmt"
)

// ErrInvalidCallback is returned when the authorization redirect is
// missing or carries a malformed code parameter.
var ErrInvalidCallback = errors.New("authorization callback missing code")

// ErrStateMismatch is returned when the callback's state parameter does
// not match the pending attempt's state. The callback cannot be trusted.
var ErrStateMismatch = errors.New("state mismatch - possible CSRF attack")

// ErrNoPendingAttempt is returned by Resume when no authorization attempt
// is awaiting a callback.
var ErrNoPendingAttempt = errors.New("no authorization attempt in progress")

// AuthorizationDeniedError indicates the provider redirected back with an
// error instead of a code (for example the user denied consent).
type AuthorizationDeniedError struct {
	// Code is the OAuth error code from the provider (e.g. access_denied).
	Code string

	// Description is the provider's human-readable description, if any.
	Description string
}

// Error implements the error interface.
func (e *AuthorizationDeniedError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authorization failed: %s - %s", e.Code, e.Description)
	}
	return fmt.Sprintf("authorization failed: %s", e.Code)
}
