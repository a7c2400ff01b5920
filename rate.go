package streamclock

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bluenviron/streamclock/pkg/liberrors"
)

// Rate is a playback speed, expressed as a fraction.
// Values greater than 1 fast-forward, values lower than 1 slow down.
type Rate struct {
	Num int64
	Den int64
}

// maximum value of the terms of a rate.
const maxRateTerm = math.MaxInt32

// RateNormal is the default playback speed.
var RateNormal = Rate{Num: 1, Den: 1}

// ParseRate parses a rate in the "num/den" or in the decimal ("1.5") format.
func ParseRate(s string) (Rate, error) {
	var r Rate

	if i := strings.IndexByte(s, '/'); i >= 0 {
		num, err := strconv.ParseInt(s[:i], 10, 64)
		if err != nil {
			return Rate{}, liberrors.ErrClockInvalidRateString{Value: s}
		}

		den, err := strconv.ParseInt(s[i+1:], 10, 64)
		if err != nil {
			return Rate{}, liberrors.ErrClockInvalidRateString{Value: s}
		}

		r = Rate{Num: num, Den: den}
	} else {
		intPart, fracPart, _ := strings.Cut(s, ".")
		if len(fracPart) > 9 {
			return Rate{}, liberrors.ErrClockInvalidRateString{Value: s}
		}

		num, err := strconv.ParseInt(intPart+fracPart, 10, 64)
		if err != nil {
			return Rate{}, liberrors.ErrClockInvalidRateString{Value: s}
		}

		den := int64(1)
		for range fracPart {
			den *= 10
		}

		r = Rate{Num: num, Den: den}
	}

	if r.Num <= 0 || r.Den <= 0 {
		return Rate{}, liberrors.ErrClockInvalidRate{Num: r.Num, Den: r.Den}
	}

	r = r.reduce()

	if !r.valid() {
		return Rate{}, liberrors.ErrClockInvalidRate{Num: r.Num, Den: r.Den}
	}

	return r, nil
}

func (r Rate) valid() bool {
	return r.Num > 0 && r.Den > 0 && r.Num <= maxRateTerm && r.Den <= maxRateTerm
}

func (r Rate) reduce() Rate {
	g := gcd(r.Num, r.Den)
	return Rate{Num: r.Num / g, Den: r.Den / g}
}

// Float64 returns the rate as a floating point number.
func (r Rate) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// String implements fmt.Stringer.
func (r Rate) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}
