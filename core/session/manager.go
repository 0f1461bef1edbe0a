package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sessionkit/sessionkit/core/countdown"
	"github.com/sessionkit/sessionkit/core/identity"
	"github.com/sessionkit/sessionkit/core/logger"
)

// notifyTimeout bounds the fire-and-forget logout notification.
const notifyTimeout = 5 * time.Second

// Manager is the session lifecycle state machine and the facade exposed to
// the rest of the application. It is the sole writer of session state: the
// persisted token record is mutated only by Login and Logout, and every
// transition is applied atomically under the manager's lock.
type Manager struct {
	store  TokenStore
	client identity.Client
	timer  *countdown.Timer
	log    *slog.Logger
	cfg    config

	// op serializes the four operations (Start, Login, Logout, RefreshUser)
	// so their read-decide-apply sequences never interleave: each transition
	// runs to completion before the next begins.
	op sync.Mutex

	mu          sync.Mutex
	status      Status
	user        *identity.User
	token       string
	rememberMe  bool
	tokenExpiry *time.Time
	pending     int

	subMu   sync.Mutex
	subs    map[uint64]chan Session
	nextSub uint64
}

// New creates a session manager over the given token store and identity
// client. The client may be nil, in which case any persisted token that needs
// a network resolution is treated as unresolvable. The session starts in
// StatusInitializing; call Start to reconcile against the persisted record.
func New(store TokenStore, client identity.Client, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, ErrNoTokenStore
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var timerOpts []countdown.Option
	if cfg.tickInterval > 0 {
		timerOpts = append(timerOpts, countdown.WithTickInterval(cfg.tickInterval))
	}

	log := cfg.logger
	if log == nil {
		log = slog.Default()
	}

	return &Manager{
		store:  store,
		client: client,
		timer:  countdown.New(timerOpts...),
		log:    log.With(logger.Component("session")),
		cfg:    cfg,
		status: StatusInitializing,
		subs:   make(map[uint64]chan Session),
	}, nil
}

// Start performs the mount-time reconciliation against the persisted token
// record. It settles the session in Anonymous or Authenticated and only then,
// with the loading flag already cleared, arms the expiry countdown. The
// in-memory state is never trusted across restarts: whatever the store holds
// wins.
func (m *Manager) Start(ctx context.Context) error {
	m.op.Lock()
	defer m.op.Unlock()

	rec, err := m.store.Get(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoRecord) {
			m.log.Warn("reading persisted token record failed", logger.Error(err))
		}
		m.settleAnonymous()
		return nil
	}
	if !rec.HasToken() {
		m.settleAnonymous()
		return nil
	}

	// The token's own expiry is authoritative over anything in memory.
	var expiry *time.Time
	if info := rec.ExpirationInfo(); info != nil {
		if info.Expired() {
			m.clearStore(ctx)
			m.settleAnonymous()
			return nil
		}
		t := info.ExpiresAt
		expiry = &t
	}

	user := rec.User
	if user == nil {
		user, err = m.resolveUser(ctx, rec)
		if err != nil {
			if errors.Is(err, identity.ErrUnauthorized) ||
				errors.Is(err, identity.ErrUserNotFound) ||
				errors.Is(err, errUnresolvedIdentity) {
				// Invalid or stale token: the persisted state goes too.
				m.clearStore(ctx)
			} else {
				// Transient failure: fail closed in memory, keep the record
				// so the next mount can retry.
				m.log.Warn("identity fetch failed during start", logger.Error(err))
			}
			m.settleAnonymous()
			return nil
		}
	}

	m.settleAuthenticated(user, rec.Token, rec.RememberMe, expiry, true)
	m.armCountdown(rec.RememberMe)
	return nil
}

// Login verifies credentials with the identity service, persists the issued
// token, and transitions the session to Authenticated. The returned route is
// the landing page for the user's role; it is returned only after the state
// transition has been applied, so callers can navigate on return without any
// propagation delay. Identity-service errors are surfaced unchanged and leave
// the session untouched.
func (m *Manager) Login(ctx context.Context, email, password string, rememberMe bool) (Route, error) {
	m.op.Lock()
	defer m.op.Unlock()

	if m.client == nil {
		return "", ErrNoIdentityClient
	}

	m.beginCall()
	defer m.endCall()

	result, err := m.client.Login(ctx, email, password, rememberMe)
	if err != nil {
		return "", err
	}

	rec := Record{
		Token:      result.Token,
		UserID:     result.User.ID,
		RememberMe: rememberMe,
		User:       result.User,
	}
	if err := m.store.Set(ctx, rec); err != nil {
		return "", errors.Join(ErrSaveRecord, err)
	}

	var expiry *time.Time
	if info := rec.ExpirationInfo(); info != nil {
		t := info.ExpiresAt
		expiry = &t
	}

	m.settleAuthenticated(result.User, result.Token, rememberMe, expiry, true)
	m.armCountdown(rememberMe)

	return landingRoute(result.User), nil
}

// Logout ends the session. The identity service is notified best-effort in
// the background; the local cleanup (cancel countdown, clear store, settle
// Anonymous) proceeds unconditionally and is the only part whose failure is
// reported. Logout is valid, and idempotent, in every state.
func (m *Manager) Logout(ctx context.Context) error {
	m.op.Lock()
	defer m.op.Unlock()
	return m.logout(ctx)
}

// logout runs the logout sequence. Callers must hold m.op.
func (m *Manager) logout(ctx context.Context) error {
	m.mu.Lock()
	token := m.token
	m.status = StatusLoggingOut
	m.user = nil
	m.token = ""
	m.tokenExpiry = nil
	m.mu.Unlock()

	// Countdown dies synchronously, before any network round trip.
	m.timer.Cancel()
	m.notify()

	if token != "" && m.client != nil {
		go m.notifyLogout(context.WithoutCancel(ctx), token)
	}

	var clearErr error
	if err := m.store.Clear(ctx); err != nil && !errors.Is(err, ErrNoRecord) {
		clearErr = errors.Join(ErrClearRecord, err)
		m.log.Error("clearing persisted token record failed", logger.Error(err))
	}

	m.settleAnonymous()
	return clearErr
}

// notifyLogout delivers the fire-and-forget logout notification.
// Failure is logged and swallowed: the local state transition already won.
func (m *Manager) notifyLogout(ctx context.Context, token string) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	if err := m.client.Logout(ctx, token); err != nil {
		m.log.Warn("logout notification failed", logger.Error(err))
	}
}

// RefreshUser re-resolves the current user from the persisted record. A
// cached snapshot is adopted without a network call; otherwise the identity
// service is asked. A 401-equivalent answer triggers the full logout
// sequence; any other failure fails closed to Anonymous with the user
// cleared, leaving the persisted record for a later retry. The record itself
// is never written here.
func (m *Manager) RefreshUser(ctx context.Context) error {
	m.op.Lock()
	defer m.op.Unlock()

	m.beginCall()
	defer m.endCall()

	rec, err := m.store.Get(ctx)
	if err != nil || !rec.HasToken() {
		if err != nil && !errors.Is(err, ErrNoRecord) {
			m.log.Warn("reading persisted token record failed", logger.Error(err))
		}
		m.settleAnonymous()
		return nil
	}

	var expiry *time.Time
	if info := rec.ExpirationInfo(); info != nil {
		t := info.ExpiresAt
		expiry = &t
	}

	// Fast path: cache hit means no network call.
	if rec.User != nil {
		if mustArm := m.settleAuthenticated(rec.User, rec.Token, rec.RememberMe, expiry, false); mustArm {
			m.armCountdown(rec.RememberMe)
		}
		return nil
	}

	user, err := m.resolveUser(ctx, rec)
	if err != nil {
		if errors.Is(err, identity.ErrUnauthorized) || errors.Is(err, identity.ErrUserNotFound) {
			return m.logout(ctx)
		}
		m.log.Warn("identity fetch failed during refresh", logger.Error(err))
		m.settleAnonymous()
		return nil
	}

	if mustArm := m.settleAuthenticated(user, rec.Token, rec.RememberMe, expiry, false); mustArm {
		m.armCountdown(rec.RememberMe)
	}
	return nil
}

// Dismiss acknowledges the expiry warning: the countdown restarts with its
// full duration and the session returns to Authenticated. No-op outside
// WarningActive.
func (m *Manager) Dismiss() {
	m.mu.Lock()
	if m.status != StatusWarningActive {
		m.mu.Unlock()
		return
	}
	m.status = StatusAuthenticated
	m.mu.Unlock()

	m.timer.Reset()
	m.notify()
}

// Snapshot returns the current session state. The snapshot is a value: safe
// to retain, never mutated by the manager.
func (m *Manager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// CurrentUser returns the signed-in user, or nil.
func (m *Manager) CurrentUser() *identity.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// Loading reports whether consumers must wait before branching on the user:
// true during initialization and while a login or refresh call is in flight.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadingLocked()
}

// Warning returns the remaining time until forced logout and whether the
// warning banner should be shown.
func (m *Manager) Warning() (time.Duration, bool) {
	m.mu.Lock()
	warning := m.status == StatusWarningActive
	m.mu.Unlock()

	if !warning {
		return 0, false
	}
	return m.timer.Remaining(), true
}

// CountdownDeadline returns the armed countdown's absolute deadline and
// whether a countdown is active.
func (m *Manager) CountdownDeadline() (time.Time, bool) {
	return m.timer.Deadline()
}

// Subscribe returns a channel receiving a snapshot after every state
// transition. Delivery is non-blocking: a subscriber that falls behind loses
// intermediate snapshots, never the writer's progress. The channel closes
// when ctx is cancelled.
func (m *Manager) Subscribe(ctx context.Context) <-chan Session {
	ch := make(chan Session, 8)

	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.subMu.Unlock()

	go func() {
		<-ctx.Done()
		m.subMu.Lock()
		delete(m.subs, id)
		close(ch)
		m.subMu.Unlock()
	}()

	return ch
}

// resolveUser asks the identity service for the user behind the record.
func (m *Manager) resolveUser(ctx context.Context, rec *Record) (*identity.User, error) {
	if m.client == nil || rec.UserID == uuid.Nil {
		return nil, errUnresolvedIdentity
	}
	return m.client.FetchUser(ctx, rec.Token, rec.UserID)
}

// armCountdown starts the expiry countdown for the chosen policy duration.
// Any previous countdown is replaced; its callbacks never fire.
func (m *Manager) armCountdown(rememberMe bool) {
	duration := m.cfg.sessionDuration
	if rememberMe {
		duration = m.cfg.rememberMeDuration
	}
	m.timer.Arm(duration, m.cfg.warningWindow, m.handleWarn, m.handleExpire)
}

// handleWarn moves the session into WarningActive when the countdown enters
// its warning window.
func (m *Manager) handleWarn() {
	m.mu.Lock()
	if m.status != StatusAuthenticated {
		m.mu.Unlock()
		return
	}
	m.status = StatusWarningActive
	m.mu.Unlock()

	m.notify()
}

// handleExpire runs the same logout sequence as an explicit logout. Expiry is
// expected behavior, so the error from local cleanup is logged, not surfaced.
func (m *Manager) handleExpire() {
	if err := m.Logout(context.Background()); err != nil {
		m.log.Error("cleanup after session expiry failed", logger.Error(err))
	}
}

// settleAuthenticated applies an authenticated state and reports whether the
// caller must arm the countdown (false when one is already running, so a
// refresh never silently extends or truncates an active countdown). When
// fresh is false an already-active warning survives: only Dismiss or expiry
// leave WarningActive. A fresh settle (new login, mount) always lands on
// Authenticated because its caller arms a new countdown.
func (m *Manager) settleAuthenticated(user *identity.User, token string, rememberMe bool, expiry *time.Time, fresh bool) (mustArm bool) {
	m.mu.Lock()
	wasActive := m.status.IsAuthenticated()
	if fresh || m.status != StatusWarningActive {
		m.status = StatusAuthenticated
	}
	m.user = user
	m.token = token
	m.rememberMe = rememberMe
	m.tokenExpiry = expiry
	m.mu.Unlock()

	m.notify()
	return !wasActive
}

// settleAnonymous applies the anonymous state and cancels any countdown.
func (m *Manager) settleAnonymous() {
	m.mu.Lock()
	m.status = StatusAnonymous
	m.user = nil
	m.token = ""
	m.rememberMe = false
	m.tokenExpiry = nil
	m.mu.Unlock()

	m.timer.Cancel()
	m.notify()
}

// clearStore removes the persisted record, logging (not surfacing) failure.
func (m *Manager) clearStore(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil && !errors.Is(err, ErrNoRecord) {
		m.log.Warn("clearing persisted token record failed", logger.Error(err))
	}
}

// beginCall marks a login/refresh call in flight, flipping Loading on.
func (m *Manager) beginCall() {
	m.mu.Lock()
	m.pending++
	m.mu.Unlock()
	m.notify()
}

// endCall marks the call finished.
func (m *Manager) endCall() {
	m.mu.Lock()
	m.pending--
	m.mu.Unlock()
	m.notify()
}

func (m *Manager) loadingLocked() bool {
	return m.status == StatusInitializing || m.pending > 0
}

func (m *Manager) snapshotLocked() Session {
	snap := Session{
		Status:      m.status,
		User:        m.user,
		RememberMe:  m.rememberMe,
		TokenExpiry: m.tokenExpiry,
		Loading:     m.loadingLocked(),
	}
	if m.status == StatusWarningActive {
		snap.ShowWarning = true
		snap.Remaining = m.timer.Remaining()
	}
	return snap
}

// notify fans the current snapshot out to subscribers without blocking.
func (m *Manager) notify() {
	snap := m.Snapshot()

	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- snap:
		default:
			// Slow subscriber: drop rather than stall a transition.
		}
	}
}
