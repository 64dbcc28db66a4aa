package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeExtraction(t *testing.T) {
	base := New(ErrCodeConflict, "draft is not pending")
	assert.Equal(t, ErrCodeConflict, Code(base))

	wrapped := fmt.Errorf("handler: %w", base)
	assert.Equal(t, ErrCodeConflict, Code(wrapped))

	assert.Equal(t, ErrCodeInternal, Code(stderrors.New("plain")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, ErrCodeEngineUnavailable, "start instance failed")

	assert.True(t, stderrors.Is(err, cause))
	assert.Contains(t, err.Error(), "ENGINE_UNAVAILABLE")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(ErrCodeEngineUnavailable, "down")))
	assert.True(t, IsRetryable(New(ErrCodeStoreUnavailable, "down")))
	assert.False(t, IsRetryable(New(ErrCodeConflict, "nope")))
	assert.False(t, IsRetryable(nil))
}

func TestConstructors(t *testing.T) {
	nf := NotFound("draft", "d-1")
	assert.Equal(t, ErrCodeNotFound, nf.Code)
	assert.Contains(t, nf.Message, "draft not found: d-1")

	ii := InvalidInput("threshold_value", "must not be negative")
	assert.Equal(t, ErrCodeInvalidInput, ii.Code)
	assert.Contains(t, ii.Message, "threshold_value")
}
