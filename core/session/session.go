package session

import (
	"time"

	"github.com/sessionkit/sessionkit/core/identity"
)

// Status identifies where the session sits in its lifecycle.
type Status int

const (
	// StatusInitializing means the mount-time reconciliation against the
	// persisted token record has not settled yet.
	StatusInitializing Status = iota
	// StatusAnonymous means no user is signed in.
	StatusAnonymous
	// StatusAuthenticated means a user is signed in and the expiry countdown
	// is outside its warning window.
	StatusAuthenticated
	// StatusWarningActive means the countdown entered its warning window; the
	// session is still authenticated and the warning banner should be shown.
	StatusWarningActive
	// StatusLoggingOut means a logout sequence is applying its local cleanup.
	StatusLoggingOut
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticated:
		return "authenticated"
	case StatusWarningActive:
		return "warning_active"
	case StatusLoggingOut:
		return "logging_out"
	default:
		return "unknown"
	}
}

// IsAuthenticated reports whether the status represents a signed-in user.
func (s Status) IsAuthenticated() bool {
	return s == StatusAuthenticated || s == StatusWarningActive
}

// Session is the read-only snapshot the Manager hands to consumers.
// User is non-nil exactly when Status is Authenticated or WarningActive.
type Session struct {
	Status     Status
	User       *identity.User
	RememberMe bool

	// TokenExpiry is the expiration decoded from the persisted token itself,
	// independent of the in-memory countdown. Nil when no token is held or
	// the token carries no readable expiry.
	TokenExpiry *time.Time

	// Loading is true only while the session is Initializing or a login or
	// refresh call is in flight. Consumers must not branch on User while
	// Loading is true.
	Loading bool

	// ShowWarning is true while the expiry warning banner should be visible.
	ShowWarning bool
	// Remaining is the time left until forced logout; non-zero only while
	// ShowWarning is true.
	Remaining time.Duration
}

// IsAuthenticated reports whether the snapshot represents a signed-in user.
func (s Session) IsAuthenticated() bool {
	return s.Status.IsAuthenticated()
}

// Route is a navigation target returned to the caller after a successful login.
type Route string

const (
	// RouteAdminLanding is where users with the administrative role land.
	RouteAdminLanding Route = "/admin"
	// RouteLanding is where everyone else lands.
	RouteLanding Route = "/dashboard"
)

// landingRoute picks the post-login destination from the user's role.
func landingRoute(user *identity.User) Route {
	if user.IsAdmin() {
		return RouteAdminLanding
	}
	return RouteLanding
}
