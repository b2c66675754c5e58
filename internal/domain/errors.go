// Package domain contains the core business entities for the Jivhala Motors
// back-office.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates a user with the same username/email exists.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrUserInactive indicates the user account is disabled.
	ErrUserInactive = errors.New("user account is inactive")

	// ErrInvalidCredentials indicates authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrVehicleNotFound indicates the requested vehicle does not exist.
	ErrVehicleNotFound = errors.New("vehicle not found")

	// ErrPhotoNotFound indicates the requested photo does not exist on the vehicle.
	ErrPhotoNotFound = errors.New("photo not found")

	// ErrVehicleAlreadyOut indicates a sale was attempted on a vehicle
	// that is already marked as out.
	ErrVehicleAlreadyOut = errors.New("vehicle is already marked as out")

	// ErrVehicleSoldLocked indicates an edit was attempted on a sold
	// vehicle without explicitly moving it back to "in".
	ErrVehicleSoldLocked = errors.New("cannot edit vehicle that is marked as out")
)

// ConflictError reports a uniqueness violation, naming the offending field.
type ConflictError struct {
	// Field is the request field whose value collided (e.g. "vehicleNumber").
	Field string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("vehicle with this %s already exists", e.Field)
}

// NewConflict creates a ConflictError for the given field.
func NewConflict(field string) *ConflictError {
	return &ConflictError{Field: field}
}

// FieldError describes a single invalid or missing input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports malformed or missing input with field-level detail.
type ValidationError struct {
	Fields []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field-level failure and returns the receiver for chaining.
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
	return e
}

// HasErrors reports whether any field failed validation.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}
