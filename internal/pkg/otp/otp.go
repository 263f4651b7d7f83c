package otp

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

const (
	// MinLength is the shortest code ever issued (10^6 possibilities).
	MinLength = 6
	// MaxLength keeps 10^n inside an int64.
	MaxLength = 18
)

// Generator produces one-time codes.
type Generator interface {
	Generate() (string, error)
	// Length is the number of characters of every generated code.
	Length() int
}

// Numeric draws uniformly distributed decimal codes from a cryptographic source.
type Numeric struct {
	length int
	max    *big.Int
	random io.Reader
}

// NewNumeric returns a generator for codes of length digits, clamped to [MinLength, MaxLength].
func NewNumeric(length int) *Numeric {
	return newNumeric(length, rand.Reader)
}

func newNumeric(length int, random io.Reader) *Numeric {
	length = max(MinLength, min(length, MaxLength))
	return &Numeric{
		length: length,
		max:    new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil),
		random: random,
	}
}

// Length returns the number of digits of every generated code.
func (n *Numeric) Length() int {
	return n.length
}

// Generate returns a zero-padded decimal code.
func (n *Numeric) Generate() (string, error) {
	v, err := rand.Int(n.random, n.max)
	if err != nil {
		return "", fmt.Errorf("otp: read random source: %w", err)
	}
	return fmt.Sprintf("%0*d", n.length, v.Int64()), nil
}

// IsNumeric reports whether code is exactly length ASCII digits.
func IsNumeric(code string, length int) bool {
	if len(code) != length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
