package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"collabx/domain/chat"
	"collabx/errors"
)

// Claims defines the identity carried inside a signed token.
// Both the realtime handshake and the REST bearer middleware decode to this.
type Claims struct {
	UserID string `json:"id"`
	Kind   string `json:"kind"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates session tokens. The secret is injected
// at construction time instead of living in package state, so tests and
// the server can run with different keys.
type TokenManager struct {
	secret   []byte
	duration time.Duration
}

func NewTokenManager(secret string, duration time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), duration: duration}
}

// Generate creates a signed HS256 JWT for one authenticated account.
func (m *TokenManager) Generate(userID chat.UserID, kind chat.Kind, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID.String(),
		Kind:   string(kind),
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "collabx",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return signed, nil
}

// Validate parses a token string and checks signature and expiry.
// Validation is synchronous and stateless: a revoked token stays usable
// until natural expiry.
func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, errors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.ErrInvalidToken
	}
	return claims, nil
}
