package strcase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToLowerSnake(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"Username":     "username",
		"UserID":       "user_id",
		"HTTPServer":   "http_server",
		"ResendAfter":  "resend_after",
		"Code2FA":      "code2_fa",
		"already_snke": "already_snke",
	}

	for in, want := range cases {
		assert.Equal(t, want, ToLowerSnake(in), in)
	}
}
