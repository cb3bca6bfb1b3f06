// Package jwtx signs and verifies the API's JWTs. The whole process shares
// one HMAC-SHA256 secret, injected at construction and never read from
// ambient state; there is no key rotation within a process lifetime.
package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")

	// ErrWeakSecret rejects secrets shorter than the HS256 output size.
	ErrWeakSecret = errors.New("jwtx: secret must be at least 32 bytes")
)

// Signer is anything that can sign claims into a compact JWT.
type Signer interface {
	Sign(Claims) (string, error)
}

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// HS256 is a combined Signer/Verifier over a shared secret.
type HS256 struct {
	secret []byte
	issuer string
}

// NewHS256 builds the process-wide signer/verifier. The secret is copied so
// the caller can zero its own buffer.
func NewHS256(secret []byte, issuer string) (*HS256, error) {
	if len(secret) < 32 {
		return nil, ErrWeakSecret
	}
	s := make([]byte, len(secret))
	copy(s, secret)
	return &HS256{secret: s, issuer: issuer}, nil
}

// Sign produces a compact HS256 JWT for the given claims.
func (h *HS256) Sign(c Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(h.secret)
}

// Verify parses and validates a compact JWT: signature, exp/nbf, and issuer
// when one was configured. It never consults any external store.
func (h *HS256) Verify(token string) (Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if h.issuer != "" {
		opts = append(opts, jwt.WithIssuer(h.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return h.secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, mapParseError(err)
	}
	return claims, nil
}

// mapParseError flattens golang-jwt's wrapped errors into our sentinel set
// so callers can branch with errors.Is without importing the jwt package.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuer
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		return ErrMalformed
	}
}
