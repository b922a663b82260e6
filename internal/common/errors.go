// Package common defines shared constants and sentinel errors used across
// client and server layers of Billfold. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Sync-engine errors (see the reconciler for how each one is handled).
	ErrTransientNetwork       = errors.New("transient network error")
	ErrUnresolvedDependency   = errors.New("unresolved dependency")
	ErrDecode                 = errors.New("decode error")
	ErrAuthenticationRequired = errors.New("authentication required")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// User registration / login errors.
	ErrLoginAlreadyExists = errors.New("login already exists")
	ErrInvalidCredentials = errors.New("invalid login/password")
)
