package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial timed out" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("house: no table in response"), false},
		{"transient 503", NewTransientError(errors.New("overloaded"), 503), true},
		{"eris wrapped transient", eris.Wrap(NewTransientError(errors.New("slow down"), 429), "house: lookup"), true},
		{"status 404", &StatusError{StatusCode: 404, URL: "https://ziplook.house.gov"}, false},
		{"wrapped status 400", fmt.Errorf("lookup: %w", &StatusError{StatusCode: 400}), false},
		{"net timeout", timeoutErr{}, true},
		{"econnreset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"econnrefused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"broken pipe text", errors.New("write tcp 10.0.0.1: broken pipe"), true},
		{"dns text", errors.New("lookup ziplook.house.gov: Temporary failure in name resolution"), true},
		{"unexpected eof text", errors.New("unexpected EOF"), true},
		{"context canceled", context.Canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestCheckStatus(t *testing.T) {
	for _, code := range []int{200, 204, 301, 304} {
		assert.NoError(t, CheckStatus(code, "u"), code)
	}

	for _, code := range []int{408, 429, 500, 502, 503, 599} {
		err := CheckStatus(code, "https://example.test/a")
		require.Error(t, err)
		var te *TransientError
		require.ErrorAs(t, err, &te, code)
		assert.Equal(t, code, te.StatusCode)
		assert.Contains(t, err.Error(), "https://example.test/a")
	}

	for _, code := range []int{400, 401, 403, 404, 422} {
		err := CheckStatus(code, "u")
		var se *StatusError
		require.ErrorAs(t, err, &se, code)
		assert.False(t, IsTransient(err), code)
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	assert.True(t, IsTransientHTTPStatus(408))
	assert.True(t, IsTransientHTTPStatus(429))
	assert.True(t, IsTransientHTTPStatus(500))
	assert.False(t, IsTransientHTTPStatus(404))
	assert.False(t, IsTransientHTTPStatus(600))
	assert.False(t, IsTransientHTTPStatus(200))
}

func TestTransientError_Unwrap(t *testing.T) {
	cause := errors.New("reset")
	te := NewTransientError(cause, 0)
	assert.Equal(t, "reset", te.Error())
	assert.ErrorIs(t, te, cause)
}

func TestIsExhausted(t *testing.T) {
	assert.False(t, IsExhausted(errors.New("x")))
	assert.True(t, IsExhausted(&ExhaustedError{Attempts: 3, Err: errors.New("x")}))
	assert.True(t, IsExhausted(eris.Wrap(&ExhaustedError{Attempts: 3, Err: errors.New("x")}, "house")))
}
