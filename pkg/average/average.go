// Package average contains a bounded integer low-pass filter.
package average

// Average is a moving average computed with integer arithmetic only.
// The fractional part of every division is carried over into the next update
// (Bresenham-style), therefore no error is lost over time and the residue
// always stays in [0, Window).
type Average struct {
	// number of samples over which values are averaged.
	// It must be greater than zero.
	Window int

	value   int64
	residue int64
}

// Update adds a sample.
func (a *Average) Update(sample int64) {
	w := int64(a.Window)
	total := a.value*(w-1) + sample + a.residue

	value := total / w
	residue := total % w

	// euclidean division: keep the residue positive
	if residue < 0 {
		residue += w
		value--
	}

	a.value = value
	a.residue = residue
}

// Reset clears the filter.
func (a *Average) Reset() {
	a.value = 0
	a.residue = 0
}

// Value returns the current average.
func (a Average) Value() int64 {
	return a.value
}

// Residue returns the fractional part carried over into the next update,
// in units of 1/Window.
func (a Average) Residue() int64 {
	return a.residue
}
