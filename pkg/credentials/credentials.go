// Package credentials implements the password vault: salted one-way hashing
// and verification built on bcrypt. Plaintext passwords are never stored or
// compared directly.
package credentials

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrHashFailed is returned when hashing cannot be performed.
var ErrHashFailed = errors.New("credentials: hashing failed")

// Vault hashes and verifies passwords.
type Vault struct {
	cost int
}

// NewVault creates a Vault with the given bcrypt cost. Values below the
// bcrypt minimum fall back to bcrypt.DefaultCost.
func NewVault(cost int) *Vault {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &Vault{cost: cost}
}

// Hash returns an opaque salted hash of the password.
func (v *Vault) Hash(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), v.cost)
	if err != nil {
		return nil, ErrHashFailed
	}
	return hash, nil
}

// Verify reports whether the candidate password matches the stored hash.
// Comparison semantics are delegated to bcrypt.
func (v *Vault) Verify(storedHash []byte, candidate string) bool {
	return bcrypt.CompareHashAndPassword(storedHash, []byte(candidate)) == nil
}
