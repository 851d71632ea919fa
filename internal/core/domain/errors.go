package domain

import "errors"

var (
	// ErrValidation marks a missing or malformed required field.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidInput is returned by the credential encoder for blank or oversized input.
	ErrInvalidInput = errors.New("invalid input")

	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")

	// ErrStore wraps any persistence fault the core does not interpret further.
	ErrStore = errors.New("store failure")
)
