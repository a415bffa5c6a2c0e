package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher is a salted one-way transform. Compare reports a mismatch as
// false and never as an error.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Compare(digest, plaintext string) bool
}

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Compare relies on bcrypt's constant-time comparison of the derived key.
func (h *BcryptHasher) Compare(digest, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
