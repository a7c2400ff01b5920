// Package liberrors contains errors returned by the library.
package liberrors

import (
	"fmt"
)

// ErrClockInvalidRate is returned when a playback rate is not strictly positive
// or is too large to be converted.
type ErrClockInvalidRate struct {
	Num int64
	Den int64
}

// Error implements the error interface.
func (e ErrClockInvalidRate) Error() string {
	if e.Num <= 0 || e.Den <= 0 {
		return fmt.Sprintf("invalid rate %d/%d: must be greater than zero", e.Num, e.Den)
	}
	return fmt.Sprintf("invalid rate %d/%d: out of range", e.Num, e.Den)
}

// ErrClockInvalidRateString is returned when a playback rate cannot be parsed.
type ErrClockInvalidRateString struct {
	Value string
}

// Error implements the error interface.
func (e ErrClockInvalidRateString) Error() string {
	return fmt.Sprintf("invalid rate '%s'", e.Value)
}
