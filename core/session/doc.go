// Package session implements the client-side session lifecycle state machine
// for a token-authenticated application: whether a user is signed in, who
// they are, and how long until inactivity forces them out.
//
// # States
//
// A session is always in exactly one of five states:
//
//	Initializing → Anonymous          no persisted token, or the token is stale
//	Initializing → Authenticated      persisted token + resolvable identity
//	Authenticated → WarningActive     expiry countdown entered its warning window
//	WarningActive → Authenticated     user dismissed the warning
//	* → LoggingOut → Anonymous        explicit logout or countdown expiry
//
// The user is non-nil exactly when the session is Authenticated or
// WarningActive. Logout is valid in every state.
//
// # Reconciliation
//
// The persisted token record (TokenStore) is the source of truth across
// restarts. Start rebuilds the in-memory state from it: a cached user
// snapshot is adopted without a network call; otherwise the identity service
// resolves the user, and a 401-equivalent answer clears the persisted state.
// The Loading flag stays true until reconciliation settles, and the expiry
// countdown is armed only after it clears — a countdown never runs against a
// session later discovered to be invalid.
//
// # Basic Usage
//
//	store := tokenstore.NewFile(path)
//	client, err := identity.NewHTTPClient(identity.Config{BaseURL: apiURL})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	manager, err := session.New(store, client)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := manager.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	route, err := manager.Login(ctx, email, password, rememberMe)
//	if err != nil {
//		// credentials rejected or service unreachable; session unchanged
//	}
//	navigate(route)
//
// # Expiry Warning
//
// While the warning is active the facade exposes the banner contract:
//
//	if remaining, ok := manager.Warning(); ok {
//		renderBanner(remaining, manager.Dismiss)
//	}
//
// Dismiss restarts the countdown with its full duration. Letting it run out
// triggers the same logout sequence as an explicit logout; expiry is expected
// behavior, so it surfaces no error.
//
// # Observing State
//
// Snapshot returns the current state as a value; Subscribe streams a snapshot
// after every transition with non-blocking delivery. The Manager is the only
// writer: consumers read snapshots, they never mutate session state.
package session
