package services

import (
	"fmt"
	"time"

	"storefront/internal/apperr"

	"github.com/dgrijalva/jwt-go"
)

// TokenService issues and validates signed, time-bound identity tokens.
// Tokens are stateless: there is no server-side storage and no revocation
// list, so an issued token stays valid until its encoded expiry.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. The secret must be non-empty; the
// config layer treats its absence as a fatal boot-time condition.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue signs a token encoding the subject and an absolute expiry timestamp.
func (s *TokenService) Issue(subject string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": now.Add(s.ttl).Unix(),
		"iat": now.Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature and expiry and returns the subject claim.
// Malformed structure, signature mismatch, missing subject and past expiry all
// yield ErrUnauthenticated; expiry is checked against wall-clock now with no
// grace window.
func (s *TokenService) Validate(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", apperr.Unauthenticatedf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", apperr.Unauthenticatedf("invalid token")
	}

	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return "", apperr.Unauthenticatedf("token missing subject")
	}
	return subject, nil
}
