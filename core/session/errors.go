package session

import "errors"

var (
	// ErrNoRecord is returned by a TokenStore when no token record is persisted.
	ErrNoRecord = errors.New("no persisted token record")
	// ErrSaveRecord is returned when persisting a token record fails.
	ErrSaveRecord = errors.New("failed to save token record")
	// ErrClearRecord is returned when clearing the persisted record fails.
	// This is the only failure Logout reports: local cleanup is the one part
	// of the logout sequence that must succeed.
	ErrClearRecord = errors.New("failed to clear token record")
	// ErrNoIdentityClient is returned when an operation needs the identity
	// service but no client is configured.
	ErrNoIdentityClient = errors.New("no identity client configured")
	// ErrNoTokenStore is returned when a Manager is created without a store.
	ErrNoTokenStore = errors.New("no token store configured")
)

// errUnresolvedIdentity marks a token whose identity cannot be resolved at
// all (no persisted user id, no identity client). Treated like a stale token.
var errUnresolvedIdentity = errors.New("identity cannot be resolved")
