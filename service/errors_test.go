package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(NewValidationError("x")))
	assert.Equal(t, KindNotFound, KindOf(NewNotFoundError("x")))
	assert.Equal(t, KindForbidden, KindOf(NewForbiddenError("x")))
	assert.Equal(t, KindConflict, KindOf(NewConflictError("x")))
	assert.Equal(t, KindUnauthorized, KindOf(NewUnauthorizedError("x")))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))

	wrapped := fmt.Errorf("outer: %w", NewConflictError("inner"))
	assert.True(t, IsKind(wrapped, KindConflict))
	assert.False(t, IsKind(nil, KindConflict))
}

func TestInternalError_Unwrap(t *testing.T) {
	root := errors.New("disk full")
	err := NewInternalError("failed to save", root)
	assert.ErrorIs(t, err, root)
	assert.Equal(t, "failed to save: disk full", err.Error())
}
