package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
app:
  name: storefront
hash:
  hmac:
    secret: c2VjcmV0
modules:
  verification:
    ttl_seconds: 600
    dispatch:
      driver: log
instrument:
  log_mask_fields: "password, code,,token"
`

func TestViperFromBytes(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cfg.Close() })

	assert.Equal(t, "storefront", cfg.GetString("app.name"))
	assert.Equal(t, 10*time.Minute, cfg.GetSecond("modules.verification.ttl_seconds"))
	assert.Equal(t, []byte("secret"), cfg.GetBinary("hash.hmac.secret"))
	assert.Nil(t, cfg.GetBinary("app.name"), "invalid base64 yields nil")
	assert.Equal(t, "log", cfg.GetString("modules.verification.dispatch.driver"))
	assert.Equal(t, []string{"password", "code", "token"}, cfg.GetArray("instrument.log_mask_fields"))
	assert.Nil(t, cfg.GetArray("missing.key"))
}

func TestViperEnvOverride(t *testing.T) {
	t.Setenv("APP_NAME", "from-env")

	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.GetString("app.name"))
}

func TestViperFromBytesRequiresType(t *testing.T) {
	_, err := NewViperFromBytes(" ", []byte(sample))
	assert.ErrorIs(t, err, errConfigType)
}
