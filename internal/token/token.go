// Package token issues and verifies the self-contained session tokens used
// for authentication. Identity claims are embedded in the signed token, so
// verification needs no server-side lookup; expiry is the only invalidation.
package token

import (
	"errors"
	"time"
)

// TTL is the fixed validity window of a session token.
const TTL = time.Hour

// ErrInvalidToken is returned when a token is absent, malformed, or fails
// signature verification.
var ErrInvalidToken = errors.New("invalid token")

// ErrExpiredToken is returned when a token's validity window has passed.
var ErrExpiredToken = errors.New("expired token")

// Claims carries the identity attributes embedded in a session token.
type Claims struct {
	UserID         int    `json:"id"`
	Username       string `json:"username"`
	Admin          bool   `json:"admin"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture"`
}

// Issuer mints and verifies signed session tokens. Call sites depend on this
// interface so the signing algorithm can be swapped without touching them.
type Issuer interface {
	// Issue produces a signed token carrying the given claims, valid for TTL.
	Issue(claims Claims) (string, error)

	// Verify checks the token's signature and validity window and returns the
	// embedded claims. Fails with ErrExpiredToken when past expiry, and with
	// ErrInvalidToken for every other defect.
	Verify(tokenString string) (Claims, error)
}
