package session

import (
	"log/slog"
	"time"
)

// Session duration policy. These are fixed policy values, not runtime
// configuration; the options below exist for tests and embedders with
// different policies.
const (
	// DefaultSessionDuration is the session lifetime without "remember me".
	DefaultSessionDuration = 2 * time.Hour
	// RememberMeSessionDuration is the session lifetime under "remember me".
	RememberMeSessionDuration = 14 * 24 * time.Hour
	// WarningWindow is the trailing duration before expiry during which the
	// dismissible warning is shown.
	WarningWindow = 30 * time.Second
)

type config struct {
	sessionDuration    time.Duration
	rememberMeDuration time.Duration
	warningWindow      time.Duration
	tickInterval       time.Duration
	logger             *slog.Logger
}

func defaultConfig() config {
	return config{
		sessionDuration:    DefaultSessionDuration,
		rememberMeDuration: RememberMeSessionDuration,
		warningWindow:      WarningWindow,
	}
}

// Option configures a Manager.
type Option func(*config)

// WithLogger sets the logger used for non-fatal failures such as a rejected
// logout notification. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(c *config) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithDurations overrides the session duration policy.
func WithDurations(standard, rememberMe time.Duration) Option {
	return func(c *config) {
		if standard > 0 {
			c.sessionDuration = standard
		}
		if rememberMe > 0 {
			c.rememberMeDuration = rememberMe
		}
	}
}

// WithWarningWindow overrides the warning window.
func WithWarningWindow(window time.Duration) Option {
	return func(c *config) {
		if window > 0 {
			c.warningWindow = window
		}
	}
}

// WithTickInterval overrides the countdown tick granularity.
func WithTickInterval(interval time.Duration) Option {
	return func(c *config) {
		if interval > 0 {
			c.tickInterval = interval
		}
	}
}
