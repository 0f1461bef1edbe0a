// Package identity talks to the remote identity service on behalf of the
// session core: credential login, best-effort logout notification, and
// bearer-authenticated user lookup.
//
// The Client interface is what the session manager consumes; HTTPClient is
// the production implementation. HTTP status codes are mapped to the error
// taxonomy the session state machine branches on:
//
//   - ErrInvalidCredentials: login rejected; surfaced verbatim to the caller.
//   - ErrUnauthorized: a 401-equivalent on an authenticated call; the session
//     core resolves it with a forced logout, never a retry.
//
// Any other failure is a transient transport error and is wrapped, not
// classified.
package identity
