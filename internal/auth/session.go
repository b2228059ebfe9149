// Package auth implements wallet-based login and session token handling.
// Sessions are HMAC-signed JWTs minted after a successful signature check;
// the raw wallet credential never reaches the rest of the API.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/streamlaunch/platform/internal/errors"
)

// SessionClaims are the JWT claims carried by a session token.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Wallet string `json:"wallet,omitempty"`
	jwt.RegisteredClaims
}

// SessionManager mints and verifies session tokens.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionManager creates a session manager with the given HMAC secret.
func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &SessionManager{secret: []byte(secret), ttl: ttl}
}

// Mint issues a session token for the given user.
func (m *SessionManager) Mint(userID, wallet string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UserID: userID,
		Wallet: wallet,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify validates a session token and returns its claims. It performs no
// I/O; callers needing the full profile load it from the user store.
func (m *SessionManager) Verify(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.InvalidToken(nil).WithDetails("method", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, errors.InvalidToken(err)
	}
	if !token.Valid {
		return nil, errors.InvalidToken(nil)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || claims.UserID == "" {
		return nil, errors.InvalidToken(nil).WithDetails("reason", "invalid claims")
	}
	return claims, nil
}
