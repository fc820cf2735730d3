package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	t.Run("formats code and message", func(t *testing.T) {
		err := New(ErrCodeNotFound, "Account not found")
		assert.Equal(t, "NOT_FOUND: Account not found", err.Error())
	})

	t.Run("includes the cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Database(cause)
		assert.Contains(t, err.Error(), "connection refused")
		assert.Equal(t, cause, errors.Unwrap(err))
	})

	t.Run("WithDetails attaches details", func(t *testing.T) {
		err := ValidationError("bad input").WithDetails(map[string]string{"field": "email"})
		assert.NotNil(t, err.Details)
	})
}

func TestAsAppError(t *testing.T) {
	t.Run("direct AppError", func(t *testing.T) {
		appErr, ok := AsAppError(UserExists())
		require.True(t, ok)
		assert.Equal(t, ErrCodeUserExists, appErr.Code)
	})

	t.Run("wrapped AppError", func(t *testing.T) {
		wrapped := fmt.Errorf("handler: %w", InvalidCredentials())
		appErr, ok := AsAppError(wrapped)
		require.True(t, ok)
		assert.Equal(t, ErrCodeInvalidCredentials, appErr.Code)
	})

	t.Run("plain error", func(t *testing.T) {
		_, ok := AsAppError(errors.New("plain"))
		assert.False(t, ok)
	})
}

func TestGetCode(t *testing.T) {
	t.Run("returns the code", func(t *testing.T) {
		assert.Equal(t, ErrCodeAccountLocked, GetCode(AccountLocked()))
	})

	t.Run("plain errors map to internal", func(t *testing.T) {
		assert.Equal(t, ErrCodeInternal, GetCode(errors.New("boom")))
	})

	t.Run("nil maps to internal", func(t *testing.T) {
		assert.Equal(t, ErrCodeInternal, GetCode(nil))
	})
}
