package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := NewValidationError("message must not be empty")
	assert.Equal(t, "[VALIDATION_ERROR] message must not be empty", err.Error())
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code string
	}{
		{name: "validation", err: NewValidationError("bad input"), code: CodeValidation},
		{name: "remote", err: NewRemoteError("service said no"), code: CodeRemote},
		{name: "stream", err: NewStreamError("stream broke"), code: CodeStream},
		{name: "http", err: NewHTTPError(502), code: CodeRemote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}

func TestNewHTTPErrorCarriesStatus(t *testing.T) {
	err := NewHTTPError(503)
	assert.Equal(t, 503, err.HTTPStatus)
	assert.Contains(t, err.Message, "503")
}

func TestFromError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, FromError(nil))
	})

	t.Run("app error passes through", func(t *testing.T) {
		orig := NewStreamError("gone")
		assert.Same(t, orig, FromError(orig))
	})

	t.Run("wrapped app error unwraps", func(t *testing.T) {
		orig := NewValidationError("nope")
		wrapped := fmt.Errorf("sending message: %w", orig)
		assert.Same(t, orig, FromError(wrapped))
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		appErr := FromError(fmt.Errorf("disk full"))
		require.NotNil(t, appErr)
		assert.Equal(t, CodeInternal, appErr.Code)
		assert.Equal(t, "disk full", appErr.Message)
	})
}

func TestCodePredicates(t *testing.T) {
	assert.True(t, IsValidation(NewValidationError("x")))
	assert.False(t, IsValidation(NewStreamError("x")))
	assert.True(t, IsStream(NewStreamError("x")))
	assert.False(t, IsStream(fmt.Errorf("plain")))
	assert.True(t, IsStream(fmt.Errorf("wrap: %w", NewStreamError("x"))))
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "bad input", UserMessage(NewValidationError("bad input")))
	assert.Equal(t, "plain failure", UserMessage(fmt.Errorf("plain failure")))
}
