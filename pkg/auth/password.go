package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost balances hash strength against login latency. Allow-list
// secrets are re-hashed once at startup, so the cost is only paid on
// reconciliation and on login verification.
const BcryptCost = 12

// HashPassword hashes a plaintext secret with bcrypt.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// ComparePassword checks a plaintext secret against a bcrypt hash.
// The comparison is constant-time at the bcrypt level.
func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
