package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTileErrorMessages(t *testing.T) {
	require.Equal(t, "TSE0003 - Tuple id 7 out of range, tuple count is 5", NewTupleOutOfRangeError(7, 5).Error())
	require.Equal(t, "TSE0005 - Invalid plan: no table", NewInvalidPlanError("no table").Error())
	require.Equal(t, "TSE0006 - Executor SeqScan has not been initialized", NewNotInitializedError("SeqScan").Error())
	require.Equal(t, "raw", NewTileError(InternalError, "raw").Error())
}

func TestHasCodeThroughWraps(t *testing.T) {
	err := Wrapf(WithStack(NewColumnOutOfRangeError(4, 4)), "reading tile %d", 2)
	require.True(t, HasCode(err, OutOfRange))
	require.False(t, HasCode(err, TypeMismatch))
	require.False(t, HasCode(New("plain"), OutOfRange))
	require.False(t, HasCode(nil, OutOfRange))
	require.Equal(t, "reading tile 2: TSE0003 - Column id 4 out of range, column count is 4", err.Error())

	var te TileError
	require.True(t, As(err, &te))
	require.Equal(t, ErrorCode(OutOfRange), te.Code)
	require.Equal(t, NewColumnOutOfRangeError(4, 4), Cause(err))
}

func TestWrapNil(t *testing.T) {
	require.Nil(t, Wrap(nil, "x"))
	require.Nil(t, Wrapf(nil, "x %d", 1))
	require.Nil(t, WithStack(nil))
}

func TestIs(t *testing.T) {
	target := NewInvalidPlanError("x")
	require.True(t, Is(WithStack(target), target))
	require.False(t, Is(WithStack(target), NewInvalidPlanError("y")))
}

func TestStackTraceIsPrintedOnce(t *testing.T) {
	err := WithStack(WithStack(New("root cause")))
	out := fmt.Sprintf("%+v", err)
	require.True(t, strings.HasPrefix(out, "root cause"))
	require.Equal(t, 1, strings.Count(out, "TestStackTraceIsPrintedOnce"))
	require.Equal(t, "root cause", fmt.Sprintf("%v", err))
	require.Equal(t, `"root cause"`, fmt.Sprintf("%q", err))
}
