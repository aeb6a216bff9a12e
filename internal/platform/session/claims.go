package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is what can be read from a JWT bearer token without verifying
// it. It is informational only: the console cannot verify the API's
// signature, and authorization decisions rely on token presence alone.
type TokenClaims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry before now.
func (c TokenClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// ParseClaims decodes the registered claims of a JWT without verifying it.
// Opaque (non-JWT) tokens report false.
func ParseClaims(token string) (TokenClaims, bool) {
	if token == "" {
		return TokenClaims{}, false
	}
	var rc jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &rc); err != nil {
		return TokenClaims{}, false
	}
	tc := TokenClaims{Subject: rc.Subject}
	if rc.IssuedAt != nil {
		tc.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		tc.ExpiresAt = rc.ExpiresAt.Time
	}
	return tc, true
}

// Claims decodes the current token; see ParseClaims.
func (s *Store) Claims() (TokenClaims, bool) {
	return ParseClaims(s.CurrentToken())
}
