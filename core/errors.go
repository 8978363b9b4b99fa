package core

import "errors"

// ErrNotFound is a sentinel error for "not found" cases
var ErrNotFound = errors.New("not found")

// ErrNotAuthorized is a sentinel error for role and ownership checks
var ErrNotAuthorized = errors.New("not authorized")

// IsNotFoundError checks if an error is a "not found" error
func IsNotFoundError(err error) bool {
	return err != nil && errors.Is(err, ErrNotFound)
}

// IsNotAuthorizedError checks if an error is an authorization failure
func IsNotAuthorizedError(err error) bool {
	return err != nil && errors.Is(err, ErrNotAuthorized)
}
