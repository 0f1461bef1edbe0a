package session_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sessionkit/sessionkit/core/identity"
	"github.com/sessionkit/sessionkit/core/session"
)

// mockStore implements session.TokenStore for testing.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context) (*session.Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Record), args.Error(1)
}

func (m *mockStore) Set(ctx context.Context, record session.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// mockIdentity implements identity.Client for testing.
type mockIdentity struct {
	mock.Mock
}

func (m *mockIdentity) Login(ctx context.Context, email, password string, rememberMe bool) (*identity.LoginResult, error) {
	args := m.Called(ctx, email, password, rememberMe)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.LoginResult), args.Error(1)
}

func (m *mockIdentity) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockIdentity) FetchUser(ctx context.Context, token string, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, token, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

// stubIdentity is a function-backed client for tests where mock call
// bookkeeping would race with the fire-and-forget logout notification.
type stubIdentity struct {
	login     func(ctx context.Context, email, password string, rememberMe bool) (*identity.LoginResult, error)
	logout    func(ctx context.Context, token string) error
	fetchUser func(ctx context.Context, token string, id uuid.UUID) (*identity.User, error)
}

func (s *stubIdentity) Login(ctx context.Context, email, password string, rememberMe bool) (*identity.LoginResult, error) {
	return s.login(ctx, email, password, rememberMe)
}

func (s *stubIdentity) Logout(ctx context.Context, token string) error {
	if s.logout == nil {
		return nil
	}
	return s.logout(ctx, token)
}

func (s *stubIdentity) FetchUser(ctx context.Context, token string, id uuid.UUID) (*identity.User, error) {
	return s.fetchUser(ctx, token, id)
}

// Helpers

func testUser(role string) *identity.User {
	return &identity.User{
		ID:    uuid.New(),
		Email: "jane@example.com",
		Name:  "Jane",
		Role:  role,
	}
}

func tokenExpiring(t *testing.T, at time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(at),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newManager(t *testing.T, store session.TokenStore, client identity.Client, opts ...session.Option) *session.Manager {
	t.Helper()
	mgr, err := session.New(store, client, opts...)
	require.NoError(t, err)
	return mgr
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires a store", func(t *testing.T) {
		t.Parallel()

		mgr, err := session.New(nil, &mockIdentity{})
		assert.Nil(t, mgr)
		assert.ErrorIs(t, err, session.ErrNoTokenStore)
	})

	t.Run("starts initializing with loading set", func(t *testing.T) {
		t.Parallel()

		mgr := newManager(t, &mockStore{}, nil)
		snap := mgr.Snapshot()
		assert.Equal(t, session.StatusInitializing, snap.Status)
		assert.True(t, snap.Loading)
		assert.Nil(t, snap.User)
	})
}

func TestManager_Start(t *testing.T) {
	t.Parallel()

	t.Run("no token settles anonymous without arming a countdown", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		store.On("Get", mock.Anything).Return(nil, session.ErrNoRecord)
		client := &mockIdentity{}
		mgr := newManager(t, store, client)

		require.NoError(t, mgr.Start(context.Background()))

		snap := mgr.Snapshot()
		assert.Equal(t, session.StatusAnonymous, snap.Status)
		assert.False(t, snap.Loading)
		assert.Nil(t, snap.User)

		_, active := mgr.CountdownDeadline()
		assert.False(t, active)
		client.AssertNotCalled(t, "FetchUser", mock.Anything, mock.Anything, mock.Anything)
		store.AssertExpectations(t)
	})

	t.Run("cached user adopted without identity fetch", func(t *testing.T) {
		t.Parallel()

		user := testUser("")
		store := &mockStore{}
		store.On("Get", mock.Anything).Return(&session.Record{
			Token:  "opaque-token",
			UserID: user.ID,
			User:   user,
		}, nil)
		client := &mockIdentity{}
		mgr := newManager(t, store, client)

		require.NoError(t, mgr.Start(context.Background()))

		snap := mgr.Snapshot()
		assert.Equal(t, session.StatusAuthenticated, snap.Status)
		assert.Equal(t, user, snap.User)
		assert.False(t, snap.Loading)

		deadline, active := mgr.CountdownDeadline()
		require.True(t, active)
		assert.WithinDuration(t, time.Now().Add(session.DefaultSessionDuration), deadline, 5*time.Second)
		client.AssertNotCalled(t, "FetchUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("remember me arms the long countdown", func(t *testing.T) {
		t.Parallel()

		user := testUser("")
		store := &mockStore{}
		store.On("Get", mock.Anything).Return(&session.Record{
			Token:      "opaque-token",
			UserID:     user.ID,
			RememberMe: true,
			User:       user,
		}, nil)
		mgr := newManager(t, store, nil)

		require.NoError(t, mgr.Start(context.Background()))

		deadline, active := mgr.CountdownDeadline()
		require.True(t, active)
		assert.WithinDuration(t, time.Now().Add(session.RememberMeSessionDuration), deadline, 5*time.Second)
		assert.True(t, mgr.Snapshot().RememberMe)
	})

	t.Run("token without cache resolves the user over the network", func(t *testing.T) {
		t.Parallel()

		user := testUser("")
		store := &mockStore{}
		store.On("Get", mock.Anything).Return(&session.Record{
			Token:  "opaque-token",
			UserID: user.ID,
		}, nil)
		client := &mockIdentity{}
		client.On("FetchUser", mock.Anything, "opaque-token", user.ID).Return(user, nil)
		mgr := newManager(t, store, client)

		require.NoError(t, mgr.Start(context.Background()))

		snap := mgr.Snapshot()
		assert.Equal(t, session.StatusAuthenticated, snap.Status)
		assert.Equal(t, user, snap.User)
		client.AssertExpectations(t)
	})

	t.Run("401 on fetch clears persisted state", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		store := &mockStore{}
		store.On("Get", mock.Anything).Return(&session.Record{Token: "stale", UserID: userID}, nil)
		store.On("Clear", mock.Anything).Return(nil)
		client := &mockIdentity{}
		client.On("FetchUser", mock.Anything, "stale", userID).Return(nil, identity.ErrUnauthorized)
		mgr := newManager(t, store, client)

		require.NoError(t, mgr.Start(context.Background()))

		snap := mgr.Snapshot()
		assert.Equal(t, session.StatusAnonymous, snap.Status)
		assert.Nil(t, snap.User)
		store.AssertExpectations(t)
	})

	t.Run("transient fetch failure fails closed but keeps the record", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		store := &mockStore{}
		store.On("Get", mock.Anything).Return(&session.Record{Token: "opaque-token", UserID: userID}, nil)
		client := &mockIdentity{}
		client.On("FetchUser", mock.Anything, "opaque-token", userID).Return(nil, errors.New("connection refused"))
		mgr := newManager(t, store, client)

		require.NoError(t, mgr.Start(context.Background()))

		assert.Equal(t, session.StatusAnonymous, mgr.Snapshot().Status)
		store.AssertNotCalled(t, "Clear", mock.Anything)
	})

	t.Run("unresolvable identity clears persisted state", func(t *testing.T) {
		t.Parallel()

		// A token with no stored user id and no cached user cannot be
		// resolved; it is treated as stale.
		store := &mockStore{}
		store.On("Get", mock.Anything).Return(&session.Record{Token: "opaque-token"}, nil)
		store.On("Clear", mock.Anything).Return(nil)
		client := &mockIdentity{}
		mgr := newManager(t, store, client)

		require.NoError(t, mgr.Start(context.Background()))

		assert.Equal(t, session.StatusAnonymous, mgr.Snapshot().Status)
		client.AssertNotCalled(t, "FetchUser", mock.Anything, mock.Anything, mock.Anything)
		store.AssertExpectations(t)
	})

	t.Run("expired persisted token clears the store", func(t *testing.T) {
		t.Parallel()

		user := testUser("")
		store := &mockStore{}
		store.On("Get", mock.Anything).Return(&session.Record{
			Token:  tokenExpiring(t, time.Now().Add(-time.Minute)),
			UserID: user.ID,
			User:   user,
		}, nil)
		store.On("Clear", mock.Anything).Return(nil)
		mgr := newManager(t, store, nil)

		require.NoError(t, mgr.Start(context.Background()))

		snap := mgr.Snapshot()
		assert.Equal(t, session.StatusAnonymous, snap.Status)
		_, active := mgr.CountdownDeadline()
		assert.False(t, active)
		store.AssertExpectations(t)
	})

	t.Run("token expiry is exposed on the snapshot", func(t *testing.T) {
		t.Parallel()

		user := testUser("")
		expiresAt := time.Now().Add(3 * time.Hour).Truncate(time.Second)
		store := &mockStore{}
		store.On("Get", mock.Anything).Return(&session.Record{
			Token:  tokenExpiring(t, expiresAt),
			UserID: user.ID,
			User:   user,
		}, nil)
		mgr := newManager(t, store, nil)

		require.NoError(t, mgr.Start(context.Background()))

		snap := mgr.Snapshot()
		require.NotNil(t, snap.TokenExpiry)
		assert.True(t, expiresAt.Equal(*snap.TokenExpiry))
	})
}

func TestManager_Login(t *testing.T) {
	t.Parallel()

	anonymousManager := func(t *testing.T, store *mockStore, client identity.Client, opts ...session.Option) *session.Manager {
		t.Helper()
		store.On("Get", mock.Anything).Return(nil, session.ErrNoRecord).Once()
		mgr := newManager(t, store, client, opts...)
		require.NoError(t, mgr.Start(context.Background()))
		return mgr
	}

	t.Run("success persists record, authenticates and routes to landing", func(t *testing.T) {
		t.Parallel()

		user := testUser("member")
		store := &mockStore{}
		client := &mockIdentity{}
		client.On("Login", mock.Anything, "jane@example.com", "s3cret", false).
			Return(&identity.LoginResult{User: user, Token: "fresh-token"}, nil)
		store.On("Set", mock.Anything, session.Record{
			Token:  "fresh-token",
			UserID: user.ID,
			User:   user,
		}).Return(nil)

		mgr := anonymousManager(t, store, client)
		route, err := mgr.Login(context.Background(), "jane@example.com", "s3cret", false)
		require.NoError(t, err)
		assert.Equal(t, session.RouteLanding, route)

		snap := mgr.Snapshot()
		assert.Equal(t, session.StatusAuthenticated, snap.Status)
		assert.Equal(t, user, snap.User)
		assert.False(t, snap.Loading)

		deadline, active := mgr.CountdownDeadline()
		require.True(t, active)
		assert.WithinDuration(t, time.Now().Add(session.DefaultSessionDuration), deadline, 5*time.Second)
		store.AssertExpectations(t)
		client.AssertExpectations(t)
	})

	t.Run("administrative role routes to the admin landing", func(t *testing.T) {
		t.Parallel()

		user := testUser("Admin")
		store := &mockStore{}
		client := &mockIdentity{}
		client.On("Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(&identity.LoginResult{User: user, Token: "fresh-token"}, nil)
		store.On("Set", mock.Anything, mock.Anything).Return(nil)

		mgr := anonymousManager(t, store, client)
		route, err := mgr.Login(context.Background(), "jane@example.com", "s3cret", false)
		require.NoError(t, err)
		assert.Equal(t, session.RouteAdminLanding, route)
	})

	t.Run("remember me arms the long countdown", func(t *testing.T) {
		t.Parallel()

		user := testUser("")
		store := &mockStore{}
		client := &mockIdentity{}
		client.On("Login", mock.Anything, mock.Anything, mock.Anything, true).
			Return(&identity.LoginResult{User: user, Token: "fresh-token"}, nil)
		store.On("Set", mock.Anything, mock.Anything).Return(nil)

		mgr := anonymousManager(t, store, client)
		_, err := mgr.Login(context.Background(), "jane@example.com", "s3cret", true)
		require.NoError(t, err)

		deadline, active := mgr.CountdownDeadline()
		require.True(t, active)
		assert.WithinDuration(t, time.Now().Add(session.RememberMeSessionDuration), deadline, 5*time.Second)
	})

	t.Run("credential error is surfaced verbatim and state is untouched", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		client := &mockIdentity{}
		client.On("Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, identity.ErrInvalidCredentials)

		mgr := anonymousManager(t, store, client)
		route, err := mgr.Login(context.Background(), "jane@example.com", "wrong", false)
		assert.Empty(t, route)
		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

		snap := mgr.Snapshot()
		assert.Equal(t, session.StatusAnonymous, snap.Status)
		assert.False(t, snap.Loading)
		store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
		_, active := mgr.CountdownDeadline()
		assert.False(t, active)
	})

	t.Run("persisting the record can fail", func(t *testing.T) {
		t.Parallel()

		user := testUser("")
		store := &mockStore{}
		client := &mockIdentity{}
		client.On("Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(&identity.LoginResult{User: user, Token: "fresh-token"}, nil)
		store.On("Set", mock.Anything, mock.Anything).Return(errors.New("disk full"))

		mgr := anonymousManager(t, store, client)
		_, err := mgr.Login(context.Background(), "jane@example.com", "s3cret", false)
		assert.ErrorIs(t, err, session.ErrSaveRecord)
		assert.Equal(t, session.StatusAnonymous, mgr.Snapshot().Status)
	})

	t.Run("without an identity client", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		store.On("Get", mock.Anything).Return(nil, session.ErrNoRecord)
		mgr := newManager(t, store, nil)
		require.NoError(t, mgr.Start(context.Background()))

		_, err := mgr.Login(context.Background(), "jane@example.com", "s3cret", false)
		assert.ErrorIs(t, err, session.ErrNoIdentityClient)
	})
}

func TestManager_Logout(t *testing.T) {
	t.Parallel()

	authenticatedManager := func(t *testing.T, store *mockStore, client identity.Client) *session.Manager {
		t.Helper()
		user := testUser("")
		store.On("Get", mock.Anything).Return(&session.Record{
			Token:  "opaque-token",
			UserID: user.ID,
			User:   user,
		}, nil).Once()
		mgr := newManager(t, store, client)
		require.NoError(t, mgr.Start(context.Background()))
		require.Equal(t, session.StatusAuthenticated, mgr.Snapshot().Status)
		return mgr
	}

	t.Run("local cleanup proceeds when the notification fails", func(t *testing.T) {
		t.Parallel()

		notified := make(chan string, 1)
		client := &stubIdentity{
			logout: func(ctx context.Context, token string) error {
				notified <- token
				return errors.New("network down")
			},
		}
		store := &mockStore{}
		store.On("Clear", mock.Anything).Return(nil)

		mgr := authenticatedManager(t, store, client)
		require.NoError(t, mgr.Logout(context.Background()))

		snap := mgr.Snapshot()
		assert.Equal(t, session.StatusAnonymous, snap.Status)
		assert.Nil(t, snap.User)
		_, active := mgr.CountdownDeadline()
		assert.False(t, active)
		store.AssertExpectations(t)

		select {
		case token := <-notified:
			assert.Equal(t, "opaque-token", token)
		case <-time.After(2 * time.Second):
			t.Fatal("logout notification never sent")
		}
	})

	t.Run("local cleanup failure is the only reported failure", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		store.On("Clear", mock.Anything).Return(errors.New("storage corrupt"))

		mgr := authenticatedManager(t, store, &stubIdentity{})
		err := mgr.Logout(context.Background())
		assert.ErrorIs(t, err, session.ErrClearRecord)

		// The state transition still happened.
		assert.Equal(t, session.StatusAnonymous, mgr.Snapshot().Status)
	})

	t.Run("idempotent when already anonymous", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		store.On("Get", mock.Anything).Return(nil, session.ErrNoRecord)
		store.On("Clear", mock.Anything).Return(session.ErrNoRecord)
		mgr := newManager(t, store, nil)
		require.NoError(t, mgr.Start(context.Background()))

		require.NoError(t, mgr.Logout(context.Background()))
		require.NoError(t, mgr.Logout(context.Background()))
		assert.Equal(t, session.StatusAnonymous, mgr.Snapshot().Status)
	})
}

func TestManager_RefreshUser(t *testing.T) {
	t.Parallel()

	t.Run("no token ensures anonymous", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		store.On("Get", mock.Anything).Return(nil, session.ErrNoRecord)
		mgr := newManager(t, store, &mockIdentity{})
		require.NoError(t, mgr.Start(context.Background()))

		require.NoError(t, mgr.RefreshUser(context.Background()))
		assert.Equal(t, session.StatusAnonymous, mgr.Snapshot().Status)
	})

	t.Run("cache hit adopts the user without a network call", func(t *testing.T) {
		t.Parallel()

		user := testUser("")
		store := &mockStore{}
		store.On("Get", mock.Anything).Return(&session.Record{
			Token:  "opaque-token",
			UserID: user.ID,
			User:   user,
		}, nil)
		client := &mockIdentity{}
		mgr := newManager(t, store, client)
		require.NoError(t, mgr.Start(context.Background()))

		require.NoError(t, mgr.RefreshUser(context.Background()))
		assert.Equal(t, user, mgr.CurrentUser())
		client.AssertNotCalled(t, "FetchUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("401 triggers the full logout sequence", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		store := &mockStore{}
		store.On("Get", mock.Anything).Return(&session.Record{Token: "stale", UserID: userID}, nil)
		store.On("Clear", mock.Anything).Return(nil)
		client := &stubIdentity{
			fetchUser: func(ctx context.Context, token string, id uuid.UUID) (*identity.User, error) {
				return nil, identity.ErrUnauthorized
			},
		}
		mgr := newManager(t, store, client)
		require.NoError(t, mgr.Start(context.Background()))
		require.Equal(t, session.StatusAnonymous, mgr.Snapshot().Status)

		require.NoError(t, mgr.RefreshUser(context.Background()))
		assert.Equal(t, session.StatusAnonymous, mgr.Snapshot().Status)
		assert.Nil(t, mgr.CurrentUser())
		store.AssertCalled(t, "Clear", mock.Anything)
	})

	t.Run("transient failure fails closed without clearing the record", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		store := &mockStore{}
		store.On("Get", mock.Anything).Return(&session.Record{Token: "opaque-token", UserID: userID}, nil)
		client := &stubIdentity{
			fetchUser: func(ctx context.Context, token string, id uuid.UUID) (*identity.User, error) {
				return nil, errors.New("connection reset")
			},
		}
		mgr := newManager(t, store, client)
		require.NoError(t, mgr.Start(context.Background()))

		require.NoError(t, mgr.RefreshUser(context.Background()))
		assert.Equal(t, session.StatusAnonymous, mgr.Snapshot().Status)
		assert.Nil(t, mgr.CurrentUser())
		store.AssertNotCalled(t, "Clear", mock.Anything)
	})

	t.Run("network resolution succeeds", func(t *testing.T) {
		t.Parallel()

		user := testUser("")
		calls := 0
		store := &mockStore{}
		store.On("Get", mock.Anything).Return(&session.Record{Token: "opaque-token", UserID: user.ID}, nil)
		client := &stubIdentity{
			fetchUser: func(ctx context.Context, token string, id uuid.UUID) (*identity.User, error) {
				calls++
				return user, nil
			},
		}
		mgr := newManager(t, store, client)
		require.NoError(t, mgr.Start(context.Background()))

		require.NoError(t, mgr.RefreshUser(context.Background()))
		assert.Equal(t, user, mgr.CurrentUser())
		assert.Equal(t, 2, calls) // once at start, once on refresh
	})
}

func TestManager_WarningFlow(t *testing.T) {
	t.Parallel()

	// Short policy: the whole arm/warn/dismiss/expire cycle runs in under a
	// second per phase.
	shortPolicy := []session.Option{
		session.WithDurations(600*time.Millisecond, time.Hour),
		session.WithWarningWindow(300 * time.Millisecond),
		session.WithTickInterval(5 * time.Millisecond),
	}

	authenticated := func(t *testing.T, store *mockStore, client identity.Client) *session.Manager {
		t.Helper()
		user := testUser("")
		store.On("Get", mock.Anything).Return(&session.Record{
			Token:  "opaque-token",
			UserID: user.ID,
			User:   user,
		}, nil).Once()
		mgr := newManager(t, store, client, shortPolicy...)
		require.NoError(t, mgr.Start(context.Background()))
		return mgr
	}

	t.Run("warning appears, dismiss restores the full countdown", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		store.On("Clear", mock.Anything).Return(nil).Maybe()
		mgr := authenticated(t, store, &stubIdentity{})

		require.Eventually(t, func() bool {
			_, ok := mgr.Warning()
			return ok
		}, 5*time.Second, 5*time.Millisecond)

		snap := mgr.Snapshot()
		assert.Equal(t, session.StatusWarningActive, snap.Status)
		assert.True(t, snap.ShowWarning)
		assert.NotNil(t, snap.User, "warning state is still authenticated")
		assert.LessOrEqual(t, snap.Remaining, 300*time.Millisecond)

		mgr.Dismiss()

		snap = mgr.Snapshot()
		assert.Equal(t, session.StatusAuthenticated, snap.Status)
		assert.False(t, snap.ShowWarning)
		assert.Zero(t, snap.Remaining)

		deadline, active := mgr.CountdownDeadline()
		require.True(t, active)
		assert.Greater(t, time.Until(deadline), 300*time.Millisecond)
	})

	t.Run("letting the countdown expire logs out exactly once", func(t *testing.T) {
		t.Parallel()

		var notifies atomic.Int32
		client := &stubIdentity{
			logout: func(ctx context.Context, token string) error {
				notifies.Add(1)
				return nil
			},
		}
		store := &mockStore{}
		store.On("Clear", mock.Anything).Return(nil)
		mgr := authenticated(t, store, client)

		require.Eventually(t, func() bool {
			return mgr.Snapshot().Status == session.StatusAnonymous
		}, 5*time.Second, 5*time.Millisecond)

		assert.Nil(t, mgr.CurrentUser())
		store.AssertNumberOfCalls(t, "Clear", 1)

		// Expiry went through the same logout sequence, notification included.
		require.Eventually(t, func() bool {
			return notifies.Load() == 1
		}, 2*time.Second, 5*time.Millisecond)
	})

	t.Run("dismiss outside the warning window is a no-op", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		store.On("Clear", mock.Anything).Return(nil).Maybe()
		mgr := authenticated(t, store, &stubIdentity{})

		before, active := mgr.CountdownDeadline()
		require.True(t, active)

		mgr.Dismiss()
		after, stillActive := mgr.CountdownDeadline()
		require.True(t, stillActive)
		assert.Equal(t, before, after, "deadline must not move")
	})
}

func TestManager_Subscribe(t *testing.T) {
	t.Parallel()

	t.Run("delivers a snapshot per transition", func(t *testing.T) {
		t.Parallel()

		user := testUser("")
		store := &mockStore{}
		store.On("Get", mock.Anything).Return(nil, session.ErrNoRecord)
		store.On("Set", mock.Anything, mock.Anything).Return(nil)
		client := &mockIdentity{}
		client.On("Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(&identity.LoginResult{User: user, Token: "fresh-token"}, nil)

		mgr := newManager(t, store, client)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		updates := mgr.Subscribe(ctx)

		require.NoError(t, mgr.Start(context.Background()))
		_, err := mgr.Login(context.Background(), "jane@example.com", "s3cret", false)
		require.NoError(t, err)

		var sawAnonymous, sawAuthenticated bool
		deadline := time.After(2 * time.Second)
		for !(sawAnonymous && sawAuthenticated) {
			select {
			case snap := <-updates:
				switch snap.Status {
				case session.StatusAnonymous:
					sawAnonymous = true
				case session.StatusAuthenticated:
					sawAuthenticated = true
				}
			case <-deadline:
				t.Fatal("missing transitions on the subscription")
			}
		}
	})

	t.Run("channel closes on context cancellation", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		mgr := newManager(t, store, nil)

		ctx, cancel := context.WithCancel(context.Background())
		updates := mgr.Subscribe(ctx)
		cancel()

		require.Eventually(t, func() bool {
			select {
			case _, open := <-updates:
				return !open
			default:
				return false
			}
		}, 2*time.Second, 10*time.Millisecond)
	})
}
