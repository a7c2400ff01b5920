package streamclock

import (
	"math"

	"github.com/bluenviron/streamclock/pkg/average"
)

// Point is a position expressed in both the stream and the system time base.
type Point struct {
	Stream int64
	System int64
}

// State is the state of a Clock.
// A State obtained with Clock.Snapshot() is a copy and can be used
// from any goroutine.
type State struct {
	// whether Reference is valid.
	HasReference bool
	// anchor of all conversions.
	Reference Point
	// most recent reference sample.
	Last Point

	// whether LastPresentation is valid.
	HasLastPresentation bool
	// highest deadline handed out, without presentation delay.
	LastPresentation int64

	// smoothed difference between extrapolated and received stream time.
	Drift average.Average
	// whether LastDriftUpdate is valid.
	HasDriftUpdate bool
	// system time of the last drift update.
	LastDriftUpdate int64

	// whether the clock can be used to pace reads.
	IsMaster bool
	// playback speed.
	Rate Rate
	// samples over which drift is smoothed.
	AveragingWindow int
	// ticks per second of the stream time base.
	StreamClockRate int
	// ticks per second of the system time base.
	SystemClockRate int

	// stream to system conversion factor, reduced
	toSystemNum int64
	toSystemDen int64
}

// conversionFactors returns the reduced stream to system conversion factor at rate r.
// It returns false when the factor does not fit in int64 or when the product
// of its terms does not, since multiplyAndDivide() multiplies a remainder
// of one term by the other.
func conversionFactors(streamClockRate int, systemClockRate int, r Rate) (int64, int64, bool) {
	sys := int64(systemClockRate)
	str := int64(streamClockRate)

	if sys <= 0 || str <= 0 || !r.valid() ||
		r.Den > math.MaxInt64/sys || r.Num > math.MaxInt64/str {
		return 0, 0, false
	}

	num := sys * r.Den
	den := str * r.Num
	g := gcd(num, den)
	num /= g
	den /= g

	if num > math.MaxInt64/den {
		return 0, 0, false
	}

	return num, den, true
}

func (s *State) setRate(r Rate) {
	s.Rate = r
	s.toSystemNum, s.toSystemDen, _ = conversionFactors(s.StreamClockRate, s.SystemClockRate, r)
}

func (s *State) factors() (int64, int64) {
	if s.toSystemDen != 0 {
		return s.toSystemNum, s.toSystemDen
	}

	num, den, ok := conversionFactors(s.StreamClockRate, s.SystemClockRate, s.Rate)
	if !ok {
		return 1, 1
	}
	return num, den
}
