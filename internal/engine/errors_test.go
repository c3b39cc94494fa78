package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/codd/internal/model"
)

func TestError_Unwrap(t *testing.T) {
	_, cause := model.MustFromTuples(model.TupleOf(model.P("a", model.Int(1)))).Project("b")
	require.Error(t, cause)

	err := wrap(cause)
	assert.True(t, HasCode(err, ErrCodeUnknownAttribute))
	assert.Equal(t, cause.Error(), err.Error())
	assert.True(t, model.IsModelError(err, model.ErrCodeUnknownAttribute))
}

func TestWrap(t *testing.T) {
	assert.NoError(t, wrap(nil))

	ee := errorf(ErrCodeAggregate, "boom")
	assert.Same(t, ee, wrap(ee))

	plain := errors.New("plain")
	err := wrap(plain)
	assert.True(t, HasCode(err, ErrCodeInvalid))
	assert.ErrorIs(t, err, plain)
}

func TestWrap_ModelCodes(t *testing.T) {
	tests := []struct {
		code model.ErrorCode
		want ErrorCode
	}{
		{model.ErrCodeUnknownAttribute, ErrCodeUnknownAttribute},
		{model.ErrCodeDuplicateAttribute, ErrCodeInvalid},
		{model.ErrCodeHeadingMismatch, ErrCodeHeadingMismatch},
		{model.ErrCodeTypeMismatch, ErrCodeTypeMismatch},
		{model.ErrCodeInvalidArgument, ErrCodeInvalid},
	}

	for _, tt := range tests {
		err := wrap(&model.Error{Code: tt.code, Message: "m"})
		assert.True(t, HasCode(err, tt.want), "%s should map to %s", tt.code, tt.want)
	}
}

func TestIsExecutionError(t *testing.T) {
	err := errorf(ErrCodeInvalid, "bad")
	assert.True(t, IsExecutionError(err))
	assert.True(t, IsExecutionError(fmt.Errorf("context: %w", err)))
	assert.False(t, IsExecutionError(errors.New("other")))
	assert.False(t, HasCode(errors.New("other"), ErrCodeInvalid))
}
