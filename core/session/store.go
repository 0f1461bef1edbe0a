package session

import (
	"context"

	"github.com/google/uuid"

	"github.com/sessionkit/sessionkit/core/identity"
	"github.com/sessionkit/sessionkit/pkg/tokeninfo"
)

// Record is the persisted token record: the durable source of truth the
// session is rebuilt from after a restart.
type Record struct {
	// Token is the bearer token issued by the identity service.
	Token string `json:"token"`
	// UserID keys the identity behind the token.
	UserID uuid.UUID `json:"user_id"`
	// RememberMe selects the long-lived session duration.
	RememberMe bool `json:"remember_me"`
	// User is an optional cached snapshot of the identity record, adopted at
	// mount time to avoid a network round trip.
	User *identity.User `json:"user,omitempty"`
}

// HasToken reports whether the record holds a usable token.
func (r *Record) HasToken() bool {
	return r != nil && r.Token != ""
}

// ExpirationInfo decodes expiry metadata from the persisted token.
// Returns nil when no token is held or the token carries no readable expiry.
func (r *Record) ExpirationInfo() *tokeninfo.Info {
	if !r.HasToken() {
		return nil
	}
	info, err := tokeninfo.Extract(r.Token)
	if err != nil {
		return nil
	}
	return info
}

// TokenStore persists the token record across restarts. Implementations must
// be safe for concurrent use. Get returns ErrNoRecord when nothing is
// persisted; Set and Clear are each a single atomic step from the consumer's
// perspective.
type TokenStore interface {
	Get(ctx context.Context) (*Record, error)
	Set(ctx context.Context, record Record) error
	Clear(ctx context.Context) error
}
