package codecerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuotaExceeded_MessageContract(t *testing.T) {
	err := QuotaExceeded(65, 64)
	assert.Contains(t, err.Error(), "QuotaExceededError")
	assert.Contains(t, err.Error(), "backpressure")
}

func TestError_IsMatchesByKind(t *testing.T) {
	err := DataError("first chunk must be a keyframe")
	assert.True(t, errors.Is(err, &Error{Kind: KindDataError}))
	assert.False(t, errors.Is(err, &Error{Kind: KindAbortError}))
}

func TestEncodingError_Unwraps(t *testing.T) {
	cause := errors.New("engine push_input failed")
	err := EncodingError(cause, "decode failed")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "EncodingError")
}

func TestIsKind(t *testing.T) {
	var err error = InvalidStateError("decoder is closed")
	assert.True(t, IsKind(err, KindInvalidState))
	assert.False(t, IsKind(err, KindTypeError))
	assert.False(t, IsKind(errors.New("plain"), KindTypeError))
}
