// Package auth issues and verifies the bearer tokens that identify users to
// the API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jmorland/gametable/internal/config"
)

// ErrInvalidToken is returned when a bearer token fails verification for any
// reason: bad signature, expiry, malformed claims.
var ErrInvalidToken = errors.New("invalid token")

// sessionClaims is the claims payload for session tokens. The user ID rides
// in the registered "sub" claim.
type sessionClaims struct {
	jwt.RegisteredClaims
}

// TokenManager mints and verifies HS256 session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a TokenManager from auth configuration.
//
// Precondition: cfg.JWTSecret must be non-empty; cfg.TokenTTL must be
// positive.
func NewTokenManager(cfg config.AuthConfig) *TokenManager {
	return &TokenManager{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}
}

// Issue mints a signed session token for userID.
//
// Postcondition: The returned token verifies with the same secret until the
// configured TTL elapses.
func (m *TokenManager) Issue(userID uuid.UUID) (string, error) {
	now := m.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of a session token and returns the
// user ID it carries.
//
// Postcondition: Returns the subject UUID, or an error wrapping
// ErrInvalidToken.
func (m *TokenManager) Verify(tokenString string) (uuid.UUID, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return m.now() }))
	if err != nil || !token.Valid {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: subject is not a UUID", ErrInvalidToken)
	}
	return userID, nil
}
