package streamclock

// DiscontinuityReason is the reason of a discontinuity.
type DiscontinuityReason int

// reasons.
const (
	// the stream time moved further than the maximum gap.
	DiscontinuityGap DiscontinuityReason = iota

	// the stream time restarted from zero.
	DiscontinuityNewProgram
)

// String implements fmt.Stringer.
func (r DiscontinuityReason) String() string {
	switch r {
	case DiscontinuityGap:
		return "clock gap"

	case DiscontinuityNewProgram:
		return "new program"
	}
	return "unknown"
}

// Discontinuity is a stream discontinuity that caused the clock to reset its reference.
// It is purely informative: the clock recovers by itself.
type Discontinuity struct {
	// ID of the clock.
	ClockID string
	Reason  DiscontinuityReason
	// stream time of the sample preceding the discontinuity.
	PrevStream int64
	// sample that caused the discontinuity.
	Sample Point
	// reference the clock has been reset to.
	Reference Point
}
