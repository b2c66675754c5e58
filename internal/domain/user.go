// Package domain contains the core business entities for the Jivhala Motors
// back-office. These are pure Go structs with no external dependencies,
// representing the fundamental concepts of the dealership system.
package domain

import (
	"time"
)

// UserRole identifies the privilege level of a user account.
type UserRole string

const (
	// RoleAdmin can manage other users in addition to normal operations.
	RoleAdmin UserRole = "admin"

	// RoleUser is the default role for back-office staff.
	RoleUser UserRole = "user"
)

// IsValid reports whether the role is one of the known roles.
func (r UserRole) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents a back-office account.
// Users are created by the admin CLI or the seed process and are referenced
// by vehicles as creator/updater; they are never embedded in other entities.
type User struct {
	// ID is the unique identifier for the user (auto-generated).
	ID int64 `json:"id"`

	// Username is the unique username for login and display.
	Username string `json:"username"`

	// Email is the unique email address for the user.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This should never be exposed in API responses.
	PasswordHash string `json:"-"`

	// Name is the display name shown on reports and audit fields.
	Name string `json:"name"`

	// Role is the privilege level of the account.
	Role UserRole `json:"role"`

	// IsActive indicates whether the user account is active.
	// Inactive users cannot authenticate or perform any operations.
	IsActive bool `json:"isActive"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUser creates a new User with default values.
func NewUser(username, email, passwordHash, name string) *User {
	now := time.Now().UTC()
	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CanAuthenticate returns true if the user is allowed to authenticate.
func (u *User) CanAuthenticate() bool {
	return u.IsActive
}

// UserRef is the compact representation of a user embedded in API responses
// for the vehicle audit fields (creator/updater).
type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Ref returns the compact reference form of the user.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username, Name: u.Name}
}
