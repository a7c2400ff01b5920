// Package rtplossdetector implements an algorithm that detects lost packets.
package rtplossdetector

import (
	"github.com/pion/rtp"
)

// LossDetector detects lost packets by inspecting sequence numbers.
// Packets that arrive late, or twice, are not counted as lost
// and do not move the expected sequence number backwards.
type LossDetector struct {
	initialized    bool
	expectedSeqNum uint16
}

// Process processes a RTP packet.
// It returns the number of packets lost before it.
func (r *LossDetector) Process(pkt *rtp.Packet) uint64 {
	if !r.initialized {
		r.initialized = true
		r.expectedSeqNum = pkt.SequenceNumber + 1
		return 0
	}

	diff := pkt.SequenceNumber - r.expectedSeqNum

	// late or duplicate packet
	if diff >= 0x8000 {
		return 0
	}

	r.expectedSeqNum = pkt.SequenceNumber + 1
	return uint64(diff)
}
