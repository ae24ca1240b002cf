package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	e := Internal("export projects", errors.New("disk full"))
	assert.Equal(t, "export projects: disk full", e.Error())

	plain := &AppError{Message: "something broke"}
	assert.Equal(t, "something broke", plain.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	e := RateLimited("")
	assert.True(t, errors.Is(e, ErrRateLimited))
	assert.False(t, errors.Is(e, ErrNotFound))

	cause := errors.New("boom")
	assert.True(t, errors.Is(Internal("op", cause), cause))
}

func TestGetStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", NewAppError("OAUTH_FAILED", "upstream down", http.StatusBadGateway, nil), http.StatusBadGateway},
		{"wrapped not found", ErrNotFound, http.StatusNotFound},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"conflict", ErrConflict, http.StatusConflict},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetStatusCode(tt.err))
		})
	}
}

func TestRateLimited_Defaults(t *testing.T) {
	assert.Equal(t, "too many requests", RateLimited("").Message)
	assert.Equal(t, "slow down", RateLimited("slow down").Message)
	assert.Equal(t, http.StatusTooManyRequests, RateLimited("").StatusCode)
	assert.Equal(t, "RATE_LIMITED", RateLimited("").Code)
}
