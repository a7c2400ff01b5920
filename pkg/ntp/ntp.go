// Package ntp contains functions to convert NTP timestamps.
package ntp

import (
	"math"
	"time"
)

// seconds between 1st January 1900 and 1st January 1970
const unixOffset = 2208988800

// Encode encodes a timestamp in NTP format.
// Specification: RFC3550, section 4
func Encode(t time.Time) uint64 {
	ntp := uint64(t.UnixNano()) + unixOffset*1000000000
	secs := ntp / 1000000000
	fractional := uint64(math.Round(float64((ntp%1000000000)*(1<<32)) / 1000000000))
	return secs<<32 | fractional
}

// Decode decodes a timestamp from NTP format.
// Specification: RFC3550, section 4
func Decode(v uint64) time.Time {
	secs := int64((v >> 32) - unixOffset)
	nanos := int64(math.Round(float64(((v & 0xFFFFFFFF) * 1000000000) / (1 << 32))))
	return time.Unix(secs, nanos)
}

// Ticks converts a NTP timestamp into a tick count since the NTP epoch,
// at the given clock rate, using integer arithmetic only.
// The fractional part is truncated.
func Ticks(v uint64, clockRate int64) int64 {
	secs := int64(v >> 32)
	frac := int64(v & 0xFFFFFFFF)
	return secs*clockRate + (frac*clockRate)>>32
}
