package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeConflict, "duplicate")
		assert.True(t, HasCode(err, CodeConflict))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("mint: %w", New(CodeExpired, "batch expired"))
		assert.True(t, Is(err, CodeExpired))
	})

	t.Run("matches nested domain errors", func(t *testing.T) {
		inner := New(CodeValidation, "bad digest")
		err := Wrap(inner, CodeInternal, "pipeline failed")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeValidation))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeUnavailable, "authority lookup failed")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "authority lookup failed: connection refused", err.Error())
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:        http.StatusBadRequest,
		CodeUnauthorized:      http.StatusUnauthorized,
		CodeForbidden:         http.StatusForbidden,
		CodeNotFound:          http.StatusNotFound,
		CodeConflict:          http.StatusConflict,
		CodeExpired:           http.StatusGone,
		CodePrecondition:      http.StatusPreconditionFailed,
		CodeResourceExhausted: http.StatusInsufficientStorage,
		CodeInternal:          http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(code), string(code))
	}
}
