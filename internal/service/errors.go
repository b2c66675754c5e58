// Package service provides the business logic for the back-office.
package service

import "errors"

// Common service errors.
var (
	// User input errors
	ErrInvalidPassword = errors.New("invalid password: must be at least 8 characters")
	ErrInvalidUsername = errors.New("invalid username: must be 3-255 characters")
	ErrInvalidEmail    = errors.New("invalid email format")

	// General errors
	ErrInternalError = errors.New("internal server error")
)
