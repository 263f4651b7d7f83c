package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 is a keyed digest for short-lived secrets such as verification
// codes. It is fast by construction and must not be used for passwords.
type HMACSHA256 struct {
	secret []byte
}

// NewHMACSHA256 creates a digest keyed by secret.
func NewHMACSHA256(secret []byte) *HMACSHA256 {
	return &HMACSHA256{secret: secret}
}

// Hash returns the hex encoded HMAC-SHA256 of str.
func (s *HMACSHA256) Hash(str string) ([]byte, error) {
	sum := s.sum(str)
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum)
	return out, nil
}

// Verify compares in constant time. A value that is not a hex SHA-256 digest is malformed.
func (s *HMACSHA256) Verify(hashed, str string) (bool, error) {
	want, err := hex.DecodeString(hashed)
	if err != nil || len(want) != sha256.Size {
		return false, malformed("not a hex sha256 digest")
	}
	return hmac.Equal(want, s.sum(str)), nil
}

func (s *HMACSHA256) sum(str string) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(str))
	return h.Sum(nil)
}
