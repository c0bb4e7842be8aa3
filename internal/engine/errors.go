package engine

import "errors"

// Errors returned by engine operations.
var (
	// ErrReadOnly indicates an operation was attempted on a read-only engine.
	ErrReadOnly = errors.New("engine is read-only")

	// ErrNilCursors indicates a write was attempted without a cursor set.
	ErrNilCursors = errors.New("cursor set is nil")
)
