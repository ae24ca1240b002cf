package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// errorBody mirrors the JSON envelope the response package writes.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func recordHandleError(t *testing.T, err error) (int, errorBody) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h := &Handler{}
	h.handleError(c, err)

	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHandleError(t *testing.T) {
	t.Run("rate limited carries code and message", func(t *testing.T) {
		status, body := recordHandleError(t, ErrTooManyAttempts)
		assert.Equal(t, http.StatusTooManyRequests, status)
		assert.Equal(t, "RATE_LIMITED", body.Code)
		assert.Equal(t, ErrTooManyAttempts.Error(), body.Error)
	})

	t.Run("oauth failure carries code and message", func(t *testing.T) {
		err := errors.Join(ErrOAuthFailed, errors.New("upstream 500"))
		status, body := recordHandleError(t, err)
		assert.Equal(t, http.StatusBadGateway, status)
		assert.Equal(t, "OAUTH_FAILED", body.Code)
		assert.NotEmpty(t, body.Error)
	})

	t.Run("credential failures collapse to one message", func(t *testing.T) {
		for _, err := range []error{ErrInvalidCredentials, ErrGuestHasNoPassword} {
			status, body := recordHandleError(t, err)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, ErrInvalidCredentials.Error(), body.Error)
		}
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		status, _ := recordHandleError(t, ErrEmailTaken)
		assert.Equal(t, http.StatusConflict, status)
	})

	t.Run("unknown errors stay generic", func(t *testing.T) {
		status, body := recordHandleError(t, errors.New("pg connection refused"))
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.NotContains(t, body.Error, "pg connection refused")
	})
}
