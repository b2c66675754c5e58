// Package auth provides JWT session authentication for the back-office API.
package auth

import "errors"

// Authentication errors.
var (
	// ErrNoToken indicates the Authorization header is missing or malformed.
	ErrNoToken = errors.New("authorization token required")

	// ErrTokenExpired indicates the token's expiry has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the token failed signature or claim checks.
	ErrTokenInvalid = errors.New("invalid token")
)
