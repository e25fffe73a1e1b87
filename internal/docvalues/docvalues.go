// Package docvalues defines the per-segment binary value accessor consumed from the host
// and the forward-only cursor the scorer drives over it.
package docvalues

import "errors"

// NoDoc is the position of an accessor that has not been advanced yet.
const NoDoc = -1

// ErrBackwardAdvance is returned by accessors asked to move before their current position.
var ErrBackwardAdvance = errors.New("doc values cannot advance backwards")

// BinaryValues is a forward-only iterator over the binary doc values of one field in one segment.
type BinaryValues interface {
	// DocID returns the current position, or NoDoc before the first advance.
	DocID() int
	// AdvanceExact moves to target and reports whether target has a value.
	// target must not be lower than DocID.
	AdvanceExact(target int) (bool, error)
	// BinaryValue returns the value at the current position. It is only valid
	// after AdvanceExact returned true.
	BinaryValue() ([]byte, error)
}
