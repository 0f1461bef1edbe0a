// Package tokeninfo decodes expiration metadata from a bearer token without
// verifying its signature.
//
// The session core needs to know when a persisted token expires so it can
// reconcile state after a restart, but cryptographic verification belongs to
// the identity service. Claims are therefore read with an unverified parse:
// the result is advisory, never a proof of validity.
package tokeninfo
