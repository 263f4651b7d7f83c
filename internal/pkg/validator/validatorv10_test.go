package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupInput struct {
	Username string `validate:"required,username"`
	Password string `validate:"required,password"`
	Email    string `validate:"omitempty,email"`
	Purpose  string `validate:"required,oneof=signup password_reset"`
}

func TestV10Validator(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	tests := []struct {
		name   string
		in     signupInput
		fields []string
	}{
		{
			name: "valid",
			in:   signupInput{Username: "alice", Password: "P@ssw0rd!", Purpose: "signup"},
		},
		{
			name:   "short password",
			in:     signupInput{Username: "alice", Password: "P@ss1", Purpose: "signup"},
			fields: []string{"password"},
		},
		{
			name: "multibyte password within 72 bytes",
			in:   signupInput{Username: "alice", Password: strings.Repeat("é", 36), Purpose: "signup"},
		},
		{
			name:   "password over 72 bytes but under 72 characters",
			in:     signupInput{Username: "alice", Password: strings.Repeat("é", 40), Purpose: "signup"},
			fields: []string{"password"},
		},
		{
			name:   "bad username and purpose",
			in:     signupInput{Username: "A!", Password: "P@ssw0rd!", Purpose: "login"},
			fields: []string{"username", "purpose"},
		},
		{
			name:   "bad email",
			in:     signupInput{Username: "bob.smith", Password: "P@ssw0rd!", Email: "nope", Purpose: "password_reset"},
			fields: []string{"email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}

			var verr V10ValidationError
			require.ErrorAs(t, err, &verr)
			for _, f := range tt.fields {
				assert.Contains(t, verr.Values(), f)
			}
			assert.Len(t, verr.Values(), len(tt.fields))
		})
	}
}

func TestV10ValidationErrorText(t *testing.T) {
	assert.Equal(t, "validation error", V10ValidationError{}.Error())
	assert.JSONEq(t, `{"code":"is required"}`, V10ValidationError{"code": "is required"}.Error())
}
