package luart

import "errors"

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrFunctionNotFound is returned by Call for an undefined global.
	ErrFunctionNotFound = errors.New("lua function not found")
)
