package goerror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "server", err: NewServer(errors.New("boom")), want: http.StatusInternalServerError},
		{name: "rate limited", err: NewBusiness("slow down", CodeTooManyRequest), want: http.StatusTooManyRequests},
		{name: "gone", err: NewBusiness("expired", CodeGone), want: http.StatusGone},
		{name: "unauthorized", err: NewBusiness("wrong", CodeUnauthorized), want: http.StatusUnauthorized},
		{name: "invalid input", err: NewInvalidInput(errors.New("bad")), want: http.StatusUnprocessableEntity},
		{name: "invalid format", err: NewInvalidFormat(), want: http.StatusBadRequest},
		{name: "odd pairs", err: NewInvalidInput(nil, "only-key"), want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gerr *Error
			if assert.ErrorAs(t, tt.err, &gerr) {
				assert.Equal(t, tt.want, gerr.StatusCode())
			}
		})
	}
}

func TestNewBusinessCause(t *testing.T) {
	sentinel := errors.New("code expired")
	err := NewBusinessCause(sentinel, "Verification code has expired", CodeGone)

	assert.ErrorIs(t, err, sentinel)

	var gerr *Error
	assert.ErrorAs(t, err, &gerr)
	assert.Equal(t, "Verification code has expired", gerr.Msg())
	assert.Equal(t, TypeBusiness, gerr.Type())
	assert.Equal(t, "ERROR_CODE_GONE", gerr.Code().String())
}

func TestNewInvalidInputFields(t *testing.T) {
	err := NewInvalidInput(nil, "username", "is required", "code", "must be numeric")

	var gerr *Error
	assert.ErrorAs(t, err, &gerr)
	assert.Equal(t, map[string]string{"username": "is required", "code": "must be numeric"}, gerr.Fields())
	assert.Equal(t, "Validation error", gerr.Error())
}

func TestErrorFallbackText(t *testing.T) {
	assert.Equal(t, "Internal error", (&Error{}).Error())
	assert.Equal(t, "Validation violation", (&Error{errType: TypeValidation}).Error())
	assert.Equal(t, "ERROR_TYPE_UNKNOWN", Type(42).String())
	assert.Equal(t, "ERROR_CODE_INTERNAL", Code(42).String())
}
