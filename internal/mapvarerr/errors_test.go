package mapvarerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsKind(t *testing.T) {
	err := New(ErrShapeMismatch, "vector has %d elements, layout needs %d", 3, 4)

	assert.True(t, errors.Is(err, ErrShapeMismatch))
	assert.False(t, errors.Is(err, ErrSingularHessian))
	assert.Equal(t, "shape mismatch: vector has 3 elements, layout needs 4", err.Error())
}

func TestError_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("objective evaluation failed: %w", New(ErrMissingValue, "no value for %q", "beta"))

	var mvErr *Error
	assert.True(t, errors.As(err, &mvErr))
	assert.Equal(t, ErrMissingValue, mvErr.Kind)
	assert.True(t, errors.Is(err, ErrMissingValue))
}

func TestError_EmptyMessage(t *testing.T) {
	err := &Error{Kind: ErrCyclicDependency}
	assert.Equal(t, "cyclic dependency", err.Error())
}
