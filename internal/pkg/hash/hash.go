package hash

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is returned by Verify when the stored hash cannot be parsed.
// A malformed hash is a data or configuration fault, never a plain mismatch.
var ErrMalformed = errors.New("hash: malformed hashed value")

// ErrInputTooLong is returned by Hash when the input, pepper included, exceeds
// what the algorithm accepts. It is a caller input error.
var ErrInputTooLong = errors.New("hash: input too long")

// Hash is a one-way transform with a matching verification.
type Hash interface {
	// Hash returns the encoded hash of str.
	Hash(str string) ([]byte, error)
	// Verify reports whether str matches hashed. It returns ErrMalformed
	// (wrapped) when hashed is not something this algorithm produced.
	Verify(hashed, str string) (bool, error)
}

// Algorithm names accepted by New.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// Normalize returns the canonical algorithm name. An empty algorithm means bcrypt.
func Normalize(algorithm string) string {
	algorithm = strings.ToLower(strings.TrimSpace(algorithm))
	if algorithm == "" {
		return AlgorithmBcrypt
	}
	return algorithm
}

// New returns the credential hasher for algorithm, normalized with Normalize.
func New(algorithm string, bcryptCost int, pepper string) (Hash, error) {
	switch Normalize(algorithm) {
	case AlgorithmBcrypt:
		return NewBcrypt(bcryptCost, pepper), nil
	case AlgorithmArgon2id:
		return NewArgon2id(pepper), nil
	default:
		return nil, fmt.Errorf("hash: unknown algorithm %q", algorithm)
	}
}

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformed, reason)
}
