package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HMACIssuer signs session tokens with HS256.
type HMACIssuer struct {
	secret []byte
	ttl    time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewHMACIssuer constructs an issuer signing with the given shared secret.
func NewHMACIssuer(secret string) *HMACIssuer {
	return &HMACIssuer{
		secret: []byte(secret),
		ttl:    TTL,
		now:    time.Now,
	}
}

type jwtClaims struct {
	UserID         int    `json:"id"`
	Username       string `json:"username"`
	Admin          bool   `json:"admin"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture"`
	jwt.RegisteredClaims
}

// Issue produces a signed token carrying the given claims, valid for TTL.
func (i *HMACIssuer) Issue(claims Claims) (string, error) {
	now := i.now()
	payload := jwtClaims{
		UserID:         claims.UserID,
		Username:       claims.Username,
		Admin:          claims.Admin,
		Email:          claims.Email,
		ProfilePicture: claims.ProfilePicture,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	return t.SignedString(i.secret)
}

// Verify checks signature and expiry and returns the embedded claims.
func (i *HMACIssuer) Verify(tokenString string) (Claims, error) {
	if tokenString == "" {
		return Claims{}, ErrInvalidToken
	}

	payload := jwtClaims{}
	t, err := jwt.ParseWithClaims(tokenString, &payload, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidToken
	}
	if !t.Valid || payload.UserID < 1 {
		return Claims{}, ErrInvalidToken
	}

	return Claims{
		UserID:         payload.UserID,
		Username:       payload.Username,
		Admin:          payload.Admin,
		Email:          payload.Email,
		ProfilePicture: payload.ProfilePicture,
	}, nil
}
