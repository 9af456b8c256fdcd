package model

import "errors"

// Error kinds. NotFound is deliberately not an error value: cancel
// reports absence as a bool result, never an error.
var (
	// ErrInvalidOrder is returned by InsertResting for malformed input:
	// empty id, non-positive price/size, or a duplicate id. The book is
	// left unchanged.
	ErrInvalidOrder = errors.New("model: invalid order")

	// ErrProtocolError marks an ill-formed or out-of-order external event
	//. The simulator aborts the run on this error.
	ErrProtocolError = errors.New("model: protocol error")

	// ErrEngineFault marks an observed invariant violation. Treated as
	// unrecoverable: callers must abandon the book and the run.
	ErrEngineFault = errors.New("model: engine fault")
)
