package tokeninfo

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformedToken is returned when the token cannot be parsed as a JWT.
	ErrMalformedToken = errors.New("malformed token")
	// ErrNoExpiry is returned when the token carries no exp claim.
	ErrNoExpiry = errors.New("token has no expiration claim")
)

// Info holds expiration metadata decoded from a token.
type Info struct {
	// ExpiresAt is the token's absolute expiration time.
	ExpiresAt time.Time
	// IssuedAt is the token's issue time; zero when the claim is absent.
	IssuedAt time.Time
	// Subject is the token's sub claim, typically the user ID.
	Subject string
}

// Expired reports whether the token's expiration time has passed.
func (i Info) Expired() bool {
	return time.Now().After(i.ExpiresAt)
}

// Remaining returns the time until expiration, floored at zero.
func (i Info) Remaining() time.Duration {
	if remaining := time.Until(i.ExpiresAt); remaining > 0 {
		return remaining
	}
	return 0
}

// Extract decodes expiration info from a JWT without verifying its signature.
// Signature verification is the identity service's responsibility; the
// decoded claims are used only to schedule local state, never to authorize.
func Extract(token string) (*Info, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, errors.Join(ErrMalformedToken, err)
	}

	if claims.ExpiresAt == nil {
		return nil, ErrNoExpiry
	}

	info := &Info{
		ExpiresAt: claims.ExpiresAt.Time,
		Subject:   claims.Subject,
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	return info, nil
}
