package app

import (
	"testing"

	"github.com/dwapor/storefront/internal/pkg/config"
	"github.com/dwapor/storefront/internal/pkg/hash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHasherUsesConfiguredPepper(t *testing.T) {
	tests := []struct {
		name   string
		hasher string
		want   hash.Hash
	}{
		{name: "unset means bcrypt", hasher: `""`, want: hash.NewBcrypt(4, "bcrypt-pepper")},
		{name: "mixed case bcrypt", hasher: "BCrypt", want: hash.NewBcrypt(4, "bcrypt-pepper")},
		{name: "argon2id", hasher: "argon2id", want: hash.NewArgon2id("argon-pepper")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.NewViperFromBytes("yaml", []byte(`
hash:
  bcrypt:
    cost: 4
    pepper: bcrypt-pepper
  argon2id:
    pepper: argon-pepper
modules:
  verification:
    hasher: `+tt.hasher+`
`))
			require.NoError(t, err)

			h, err := newHasher(cfg)
			require.NoError(t, err)
			assert.IsType(t, tt.want, h)

			hashed, err := h.Hash("P@ssw0rd1")
			require.NoError(t, err)

			ok, err := tt.want.Verify(string(hashed), "P@ssw0rd1")
			require.NoError(t, err)
			assert.True(t, ok, "hash must carry the configured pepper")
		})
	}
}

func TestNewHasherUnknownAlgorithm(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  verification:\n    hasher: md5\n"))
	require.NoError(t, err)

	_, err = newHasher(cfg)
	assert.Error(t, err)
}

func TestNewCodeDigest(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{name: "base64 secret", secret: "Y2hhbmdlLW1lLWluLWV2ZXJ5LWVudmlyb25tZW50"},
		{name: "not base64", secret: "change-me-in-every-environment", wantErr: true},
		{name: "too short", secret: "c2VjcmV0", wantErr: true},
		{name: "missing", secret: `""`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.NewViperFromBytes("yaml", []byte("hash:\n  hmac:\n    secret: "+tt.secret+"\n"))
			require.NoError(t, err)

			digest, err := newCodeDigest(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			sum, err := digest.Hash("482913")
			require.NoError(t, err)
			ok, err := hash.NewHMACSHA256([]byte("change-me-in-every-environment")).Verify(string(sum), "482913")
			require.NoError(t, err)
			assert.True(t, ok, "the decoded secret keys the digest")
		})
	}
}
