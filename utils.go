package streamclock

import (
	"time"
)

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// avoid an int64 overflow and preserve resolution by splitting division into two parts:
// first add the integer part, then the decimal part, rounded half away from zero.
// d must be positive.
func multiplyAndDivide(v, m, d int64) int64 {
	secs := v / d
	dec := (v % d) * m

	if dec >= 0 {
		dec = (dec + d/2) / d
	} else {
		dec = (dec - d/2) / d
	}

	return secs*m + dec
}

// DurationToTicks converts a duration into ticks of a clock with the given rate.
func DurationToTicks(v time.Duration, clockRate int) int64 {
	return multiplyAndDivide(int64(v), int64(clockRate), int64(time.Second))
}

// TicksToDuration converts ticks of a clock with the given rate into a duration.
func TicksToDuration(v int64, clockRate int) time.Duration {
	return time.Duration(multiplyAndDivide(v, int64(time.Second), int64(clockRate)))
}
