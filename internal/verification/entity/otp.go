package entity

import "time"

// Purpose scopes a verification code. One record exists per username and purpose.
type Purpose string

const (
	PurposeSignup        Purpose = "signup"
	PurposePasswordReset Purpose = "password_reset"
)

func (p Purpose) String() string {
	return string(p)
}

// ParsePurpose maps an empty value to signup.
func ParsePurpose(s string) Purpose {
	if s == "" {
		return PurposeSignup
	}
	return Purpose(s)
}

// OTP is an outstanding verification attempt. CodeDigest is the keyed digest
// of the issued code; the plaintext code is never stored.
type OTP struct {
	Username       string
	Purpose        Purpose
	CodeDigest     string
	HashedPassword string
	SentAt         *time.Time
	Email          string
	CreatedAt      time.Time
}

// Expired reports whether the code can no longer be verified at now.
// A record that was never sent has nothing to verify against and counts as expired.
func (o *OTP) Expired(now time.Time, ttl time.Duration) bool {
	if o.SentAt == nil {
		return true
	}
	return now.Sub(*o.SentAt) > ttl
}

// Promotable reports whether the record carries a pending credential.
func (o *OTP) Promotable() bool {
	return o.HashedPassword != ""
}

// Credential is the durable account credential produced by promotion.
type Credential struct {
	Username       string
	HashedPassword string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
