package errors

import (
	"fmt"
)

type ErrorCode int

const (
	InternalError = iota
	InvalidConfiguration
	SchemaMismatch
	OutOfRange
	TypeMismatch
	InvalidPlan
	NotInitialized
	InitFailed
)

func NewInternalError(ref string) TileError {
	return NewTileErrorf(InternalError, "Internal error - reference: %s please consult server logs for details", ref)
}

func NewInvalidConfigurationError(msg string) TileError {
	return NewTileErrorf(InvalidConfiguration, "Invalid configuration: %s", msg)
}

func NewSchemaMismatchError(msg string) TileError {
	return NewTileErrorf(SchemaMismatch, "Schema mismatch: %s", msg)
}

func NewTupleOutOfRangeError(tupleID int, count int) TileError {
	return NewTileErrorf(OutOfRange, "Tuple id %d out of range, tuple count is %d", tupleID, count)
}

func NewColumnOutOfRangeError(columnID int, count int) TileError {
	return NewTileErrorf(OutOfRange, "Column id %d out of range, column count is %d", columnID, count)
}

func NewTileGroupOutOfRangeError(index int, count int) TileError {
	return NewTileErrorf(OutOfRange, "Tile group offset %d out of range, tile group count is %d", index, count)
}

func NewTypeMismatchError(left fmt.Stringer, right fmt.Stringer) TileError {
	return NewTileErrorf(TypeMismatch, "Cannot compare values of type %s and %s", left, right)
}

func NewInvalidPlanError(msg string) TileError {
	return NewTileErrorf(InvalidPlan, "Invalid plan: %s", msg)
}

func NewNotInitializedError(executor string) TileError {
	return NewTileErrorf(NotInitialized, "Executor %s has not been initialized", executor)
}

func NewInitFailedError(executor string, reason string) TileError {
	return NewTileErrorf(InitFailed, "Executor %s failed to initialize: %s", executor, reason)
}

func NewTileErrorf(errorCode ErrorCode, msgFormat string, args ...interface{}) TileError {
	msg := fmt.Sprintf(fmt.Sprintf("TSE%04d - %s", errorCode, msgFormat), args...)
	return TileError{Code: errorCode, Msg: msg}
}

func NewTileError(errorCode ErrorCode, msg string) TileError {
	return TileError{Code: errorCode, Msg: msg}
}

// TileError is an error with a stable code. Code is what callers should switch on, Msg is for humans.
type TileError struct {
	Code ErrorCode
	Msg  string
}

func (u TileError) Error() string {
	return u.Msg
}

// HasCode reports whether any error in err's chain is a TileError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var te TileError
	if !As(err, &te) {
		return false
	}
	return te.Code == code
}
