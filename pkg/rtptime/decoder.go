// Package rtptime contains a RTP timestamp decoder.
package rtptime

const negativeThreshold = 0xFFFFFFFF / 2

// Decoder unwraps 32-bit RTP timestamps into a 64-bit monotonic timeline,
// expressed in the same clock rate as the RTP timestamps.
type Decoder struct {
	initialized bool
	overall     int64
	prev        uint32
}

// Initialize initializes a Decoder.
func (d *Decoder) Initialize() {
	d.initialized = false
	d.overall = 0
}

// Decode decodes a timestamp.
// The first timestamp is returned as is; subsequent ones are unwrapped
// relative to the previous one, therefore they can also go backwards.
func (d *Decoder) Decode(ts uint32) int64 {
	if !d.initialized {
		d.initialized = true
		d.prev = ts
		d.overall = int64(ts)
		return d.overall
	}

	diff := ts - d.prev

	// negative difference
	if diff > negativeThreshold {
		diff = d.prev - ts
		d.prev = ts
		d.overall -= int64(diff)
	} else {
		d.prev = ts
		d.overall += int64(diff)
	}

	return d.overall
}
