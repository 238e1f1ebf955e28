package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs_MatchesByCode(t *testing.T) {
	err := NotFound("icon not found")
	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrConflict))
}

func TestErrorIs_ThroughWrapping(t *testing.T) {
	inner := Conflict("version race")
	wrapped := fmt.Errorf("commit failed: %w", inner)

	assert.True(t, Is(wrapped, ErrConflict))

	var domainErr *Error
	assert.True(t, As(wrapped, &domainErr))
	assert.Equal(t, CodeConflict, domainErr.Code)
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err    *Error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrMalformedInput, http.StatusBadRequest},
		{ErrUnsupportedMedia, http.StatusUnsupportedMediaType},
		{ErrConflict, http.StatusConflict},
		{ErrValidation, http.StatusBadRequest},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.HTTPStatus(), "code %s", tc.err.Code)
	}
}

func TestWithCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := ErrInternal.WithCause(cause)

	assert.Equal(t, cause, Unwrap(err))
	assert.Contains(t, err.Error(), "disk full")
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("unexpected EOF")
	err := Wrap(cause, CodeMalformedInput, "parse svg")

	assert.True(t, Is(err, ErrMalformedInput))
	assert.Contains(t, err.Error(), "unexpected EOF")
}
