package identity

import "errors"

var (
	// ErrInvalidCredentials is returned when the identity service rejects a login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthorized is returned when an authenticated call receives a
	// 401-equivalent response. The session core treats it as a stale or
	// revoked token and forces a logout.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUserNotFound is returned when the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrMissingEndpoint is returned when no identity service URL is configured.
	ErrMissingEndpoint = errors.New("missing identity service URL")
	// ErrRequestFailed wraps transport-level failures.
	ErrRequestFailed = errors.New("identity request failed")
)
