package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("stage dump: %w", Dump("mongodump exited", errors.New("exit status 1")))

	assert.ErrorIs(t, err, ErrDump)
	assert.NotErrorIs(t, err, ErrArchive)
	assert.Equal(t, KindDump, KindOf(err))
}

func TestError_UnwrapReachesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Archive("write archive", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "archive error: write archive: disk full", err.Error())
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
}
