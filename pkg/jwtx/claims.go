package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs. Access tokens are deliberately short: ban and delete
// decisions only become visible to the authorization layer once the access
// token expires, so this bounds that staleness window.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 5 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims are the token claims used across the API. Access tokens carry a
// profile snapshot (username, name) so protected endpoints can answer
// without a database round trip; refresh tokens carry the subject only, to
// keep embedded profile data from going stale over their 7-day life.
type Claims struct {
	jwt.RegisteredClaims

	// Username of the authenticated user at issuance time.
	Username string `json:"username,omitempty"`

	// Name is the display name at issuance time.
	Name string `json:"name,omitempty"`
}

// NewAccessClaims builds minimally-correct access token claims.
func NewAccessClaims(subject, username, name, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Username: username,
		Name:     name,
	}
}

// NewRefreshClaims builds refresh token claims: subject only.
func NewRefreshClaims(subject, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
