package hash

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt implements Hash using bcrypt.
//
// The pepper is appended to the plaintext before hashing and verifying; it
// lives in configuration, never in the database.
type Bcrypt struct {
	cost   int
	pepper string
}

// NewBcrypt returns a bcrypt hasher. A cost outside bcrypt's range falls back to bcrypt.DefaultCost.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost, pepper: pepper}
}

// bcryptMaxInput is bcrypt's input limit in bytes.
const bcryptMaxInput = 72

// Hash hashes plaintext using bcrypt. It returns ErrInputTooLong when
// plaintext plus pepper exceeds 72 bytes.
func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	if len(plaintext)+len(h.pepper) > bcryptMaxInput {
		return nil, ErrInputTooLong
	}
	return bcrypt.GenerateFromPassword([]byte(plaintext+h.pepper), h.cost)
}

// Verify compares plaintext with a bcrypt hash.
func (h *Bcrypt) Verify(hashed, plaintext string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext+h.pepper))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, malformed(err.Error())
	}
}
