package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := Transport("channel.Submit", errors.New("HTTP 502"))
	assert.Equal(t, "channel.Submit (transport): HTTP 502", err.Error())

	bare := &Error{Op: "store.List", Kind: KindStorage}
	assert.Equal(t, "store.List: storage", bare.Error())
}

func TestIsKind(t *testing.T) {
	base := errors.New("disk full")
	err := fmt.Errorf("saving report: %w", Storage("store.Append", base))

	assert.True(t, IsKind(err, KindStorage))
	assert.False(t, IsKind(err, KindTransport))
	assert.True(t, errors.Is(err, base))
	assert.Equal(t, KindStorage, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(base))
}

func TestIsMatchesOp(t *testing.T) {
	err := Validation("channel.Submit", errors.New("bad file"))

	assert.True(t, errors.Is(err, &Error{Kind: KindValidation, Op: "channel.Submit"}))
	assert.False(t, errors.Is(err, &Error{Kind: KindValidation, Op: "other"}))
}

func TestSentinelsThroughWrap(t *testing.T) {
	err := Busy("channel.Submit", ErrRunInProgress)
	assert.ErrorIs(t, err, ErrRunInProgress)
	assert.True(t, IsKind(err, KindBusy))
}
