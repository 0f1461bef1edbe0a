package countdown

import (
	"sync"
	"time"
)

// State identifies the timer's position in its lifecycle.
type State int

const (
	// StateIdle means no countdown is armed.
	StateIdle State = iota
	// StateRunning means a countdown is active and outside the warning window.
	StateRunning
	// StateWarning means the remaining time has crossed below the warning window.
	StateWarning
	// StateExpired means the countdown reached zero; the timer is inert until re-armed.
	StateExpired
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateWarning:
		return "warning"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// defaultTickInterval keeps the displayed remaining time smooth without
// burning CPU on a hot loop.
const defaultTickInterval = 250 * time.Millisecond

// Timer runs at most one countdown toward a deadline, firing a warning
// callback once when the warning window is entered and an expire callback
// once when the deadline is reached. All methods are safe for concurrent use.
type Timer struct {
	mu sync.Mutex

	state         State
	duration      time.Duration
	warningWindow time.Duration
	deadline      time.Time
	onWarn        func()
	onExpire      func()

	tickInterval time.Duration

	// stop is owned by the current run goroutine; closing it detaches that
	// goroutine. Replaced on every Arm so a stale run can never fire.
	stop chan struct{}
}

// Option configures a Timer.
type Option func(*Timer)

// WithTickInterval overrides the internal tick granularity.
// Intervals below 1ms are ignored.
func WithTickInterval(interval time.Duration) Option {
	return func(t *Timer) {
		if interval >= time.Millisecond {
			t.tickInterval = interval
		}
	}
}

// New creates an idle timer.
func New(opts ...Option) *Timer {
	t := &Timer{
		tickInterval: defaultTickInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Arm starts a fresh countdown, replacing any existing one. The previous
// countdown's callbacks are discarded without firing. onWarn fires once when
// the remaining time first drops below warningWindow; onExpire fires once at
// zero. Either callback may be nil.
func (t *Timer) Arm(duration, warningWindow time.Duration, onWarn, onExpire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.detachLocked()

	t.duration = duration
	t.warningWindow = warningWindow
	t.onWarn = onWarn
	t.onExpire = onExpire
	t.startLocked()
}

// Reset re-arms the timer with the same duration and callbacks, clearing any
// warning state. It is a no-op unless a countdown is running or warning.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateRunning && t.state != StateWarning {
		return
	}

	t.detachLocked()
	t.startLocked()
}

// Cancel stops any pending firing and returns the timer to idle.
// Safe to call when no countdown is active.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.detachLocked()
	t.state = StateIdle
	t.deadline = time.Time{}
}

// State returns the timer's current state.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Remaining returns the time left until the deadline, floored at zero.
// It returns zero when no countdown is armed.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateRunning && t.state != StateWarning {
		return 0
	}
	if remaining := time.Until(t.deadline); remaining > 0 {
		return remaining
	}
	return 0
}

// Deadline returns the absolute deadline and whether a countdown is active.
func (t *Timer) Deadline() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	active := t.state == StateRunning || t.state == StateWarning
	return t.deadline, active
}

// startLocked arms the configured countdown and spawns its run goroutine.
// Callers must hold t.mu and have detached any previous run.
func (t *Timer) startLocked() {
	t.deadline = time.Now().Add(t.duration)
	t.state = StateRunning
	t.stop = make(chan struct{})
	go t.run(t.stop)
}

// detachLocked disconnects the current run goroutine, if any.
// Callers must hold t.mu.
func (t *Timer) detachLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

// run drives the countdown's tick loop. It exits when the countdown expires
// or when stop is closed by a subsequent Arm, Reset, or Cancel.
func (t *Timer) run(stop chan struct{}) {
	ticker := time.NewTicker(t.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			fire, done := t.advance(stop)
			if fire != nil {
				fire()
			}
			if done {
				return
			}
		}
	}
}

// advance applies a single tick and returns the callback to invoke, if any,
// and whether the run loop should exit. The callback is returned rather than
// invoked so it runs outside the lock.
func (t *Timer) advance(stop chan struct{}) (fire func(), done bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// A newer arm replaced this run between the tick and the lock.
	if t.stop != stop {
		return nil, true
	}

	remaining := time.Until(t.deadline)

	if remaining <= 0 {
		t.state = StateExpired
		t.stop = nil
		return t.onExpire, true
	}

	if t.state == StateRunning && remaining <= t.warningWindow {
		t.state = StateWarning
		return t.onWarn, false
	}

	return nil, false
}
