package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorUnwrapsToInvalidInput(t *testing.T) {
	err := NewValidationError("product_code", "unknown code %q", "XX")
	wrapped := WrapError(err, "record attempts")

	assert.True(t, IsInvalidInput(wrapped))
	field, ok := FieldOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "product_code", field)
	assert.Contains(t, wrapped.Error(), `unknown code "XX"`)
}

func TestDependencyKeepsCause(t *testing.T) {
	err := Dependency(context.DeadlineExceeded, "list attempts")

	assert.True(t, IsServiceUnavailable(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Nil(t, Dependency(nil, "noop"))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, WrapError(nil, "x"))
	assert.Nil(t, WrapErrorf(nil, "x %d", 1))
	assert.True(t, IsNotFound(WrapErrorf(ErrNotFound, "employee %d", 7)))
	assert.False(t, IsIntegrity(fmt.Errorf("plain")))
}
