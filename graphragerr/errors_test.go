package graphragerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_KindAndMessage(t *testing.T) {
	err := New(KindConfigurationError, "tenant id is %q", "undefined")
	assert.Equal(t, KindConfigurationError, err.Kind())
	assert.Contains(t, err.Error(), "tenant id is")
}

func TestWrap_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindBackendUnavailable, cause, "dialing triplestore")

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestError_AsDispatch(t *testing.T) {
	var target *Error
	err := error(Wrap(KindSchemaMismatch, nil, "unexpected row shape"))
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, KindSchemaMismatch, target.Kind())
}

func TestError_RetryableOnlyBackendUnavailable(t *testing.T) {
	assert.True(t, New(KindBackendUnavailable, "timeout").Retryable())
	assert.False(t, New(KindSchemaMismatch, "bad shape").Retryable())
	assert.False(t, New(KindConfigurationError, "bad config").Retryable())
}
