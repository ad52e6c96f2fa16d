package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMessage_ExpandsPlaceholders(t *testing.T) {
	err := ErrUsernameAlreadyExists.With(map[string]string{"username": "alice"})

	assert.Equal(t, "Username alice already exists", err.RenderMessage())
	assert.Equal(t, "Username {username} already exists", ErrUsernameAlreadyExists.RenderMessage())
}

func TestIs_MatchesByCodeAcrossCopies(t *testing.T) {
	err := fmt.Errorf("auth.Register: %w", ErrUsernameAlreadyExists.With(map[string]string{"username": "bob"}))

	assert.True(t, errors.Is(err, ErrUsernameAlreadyExists))
	assert.False(t, errors.Is(err, ErrInvalidCredentials))
}

func TestAs_ExtractsStatusAndCode(t *testing.T) {
	wrapped := fmt.Errorf("auth.Refresh: %w", ErrTokenNotFound.With(map[string]string{"id": "abc"}))

	var appErr *Error
	assert.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, 404, appErr.Status)
	assert.Equal(t, "TOKEN_NOT_FOUND", appErr.Code)
	assert.Equal(t, "Token abc not found", appErr.RenderMessage())
}
