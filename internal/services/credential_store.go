package services

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialStore owns password hashing and verification. bcrypt is salted,
// adaptive and one-way; comparison is constant-time.
type CredentialStore struct {
	cost int
}

// NewCredentialStore creates a CredentialStore with the given bcrypt cost.
// Costs outside the supported range fall back to the bcrypt default.
func NewCredentialStore(cost int) *CredentialStore {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &CredentialStore{cost: cost}
}

// Hash derives a bcrypt digest from a plaintext password.
func (s *CredentialStore) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plain matches the stored digest. It fails closed:
// a malformed digest verifies false rather than surfacing an error.
func (s *CredentialStore) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
