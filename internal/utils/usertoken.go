package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// ErrInvalidUserToken is returned when a bearer token fails signature
// or claim validation.  Callers must treat a malformed token as a hard
// authentication failure, never as "no token".
var ErrInvalidUserToken = errors.New("invalid user token")

// NewUserToken builds and signs an HS256 JWT for a user of the shared
// identity pool.  The payload carries the subject (user id), the token
// type discriminator and the standard exp/iat claims.  Token issuance
// lives with the identity service; this helper exists for tooling and
// tests that need well-formed tokens.
func NewUserToken(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  userID,
		"type": "user",
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// ParseUserToken validates a bearer token against the user-token secret
// and returns the user id it identifies.  The token must be signed with
// HMAC, carry type=user and not be expired; anything else yields
// ErrInvalidUserToken.
func ParseUserToken(secret, raw string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidUserToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return "", ErrInvalidUserToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidUserToken
	}
	if typ, _ := claims["type"].(string); typ != "user" {
		return "", ErrInvalidUserToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidUserToken
	}
	return sub, nil
}
