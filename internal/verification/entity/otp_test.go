package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOTPExpired(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	ttl := 10 * time.Minute

	rec := OTP{SentAt: &t0}
	assert.False(t, rec.Expired(t0.Add(60*time.Second), ttl))
	assert.False(t, rec.Expired(t0.Add(ttl), ttl))
	assert.True(t, rec.Expired(t0.Add(700*time.Second), ttl))

	unsent := OTP{}
	assert.True(t, unsent.Expired(t0, ttl))
}

func TestOTPPromotable(t *testing.T) {
	assert.False(t, (&OTP{}).Promotable())
	assert.True(t, (&OTP{HashedPassword: "$2a$10$abc"}).Promotable())
}

func TestPurpose(t *testing.T) {
	assert.Equal(t, PurposeSignup, ParsePurpose(""))
	assert.Equal(t, PurposePasswordReset, ParsePurpose("password_reset"))
}
