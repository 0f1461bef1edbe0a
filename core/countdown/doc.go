// Package countdown provides a single-deadline countdown timer with a
// warning threshold, used to enforce session expiry.
//
// A Timer owns at most one active countdown. Arming replaces any previous
// countdown, firing neither of its callbacks. The timer moves through an
// explicit state machine:
//
//	Idle → Running → Warning → Expired
//
// The warn callback fires exactly once, when the remaining time first
// crosses below the warning window. The expire callback fires exactly once,
// when the remaining time reaches zero; after that the timer is inert until
// re-armed.
//
// # Basic Usage
//
//	timer := countdown.New()
//	timer.Arm(2*time.Hour, 30*time.Second,
//		func() { showWarningBanner() },
//		func() { forceLogout() },
//	)
//
//	// User dismissed the warning: restart the full duration.
//	timer.Reset()
//
//	// User logged out: stop everything. Safe to call when idle.
//	timer.Cancel()
//
// Callbacks are invoked from the timer's internal goroutine without holding
// the timer's lock, so they may call back into the timer.
package countdown
