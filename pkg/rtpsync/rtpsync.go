// Package rtpsync contains a utility to drive a stream clock with RTP and RTCP packets.
package rtpsync

import (
	"fmt"
	"sync"
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"

	"github.com/bluenviron/streamclock"
	"github.com/bluenviron/streamclock/internal/rtplossdetector"
	"github.com/bluenviron/streamclock/pkg/ntp"
	"github.com/bluenviron/streamclock/pkg/rtptime"
)

// Track feeds a Clock with the timestamps of a RTP stream.
//
// Before a RTCP sender report is received, stream time is the unwrapped RTP timestamp.
// Afterwards, it is the sender NTP time expressed in clock rate ticks,
// therefore tracks of the same sender share the same timeline.
// The switch is reported by the clock as a gap discontinuity.
type Track struct {
	// clock rate of the RTP stream.
	ClockRate int
	// clock to feed. Its StreamClockRate must be equal to ClockRate.
	Clock *streamclock.Clock
	// whether the source can be read at the pace imposed by the clock.
	CanPaceControl bool

	// called when packets are lost (optional).
	OnPacketsLost func(lost uint64)

	mutex        sync.Mutex
	lossDetector rtplossdetector.LossDetector
	totalLost    uint64

	decoder            rtptime.Decoder
	decoderInitialized bool
	lastTimeRTP        uint32
	lastTimeUnwrapped  int64

	// data from RTP packets
	firstRTPPacketReceived bool
	senderSSRC             uint32
	timeInitialized        bool
	jitterTimeUnwrapped    int64
	jitterTimeSystem       int64
	jitter                 float64

	// data from RTCP packets
	firstSenderReportReceived bool
	lastSenderReportTimeNTP   uint64
	lastSenderReportTimeRTP   uint32
	offset                    int64
}

// Initialize initializes a Track.
func (t *Track) Initialize() error {
	if t.ClockRate <= 0 {
		return fmt.Errorf("invalid clock rate: %d", t.ClockRate)
	}

	if t.Clock == nil {
		return fmt.Errorf("clock not provided")
	}

	if t.Clock.StreamClockRate != t.ClockRate {
		return fmt.Errorf("clock rate mismatch: track has %d, clock has %d",
			t.ClockRate, t.Clock.StreamClockRate)
	}

	t.decoder.Initialize()

	return nil
}

// unwrap returns the unwrapped value of a RTP timestamp.
// When advance is false, the timestamp is computed relative to the last decoded one
// and the decoder is left untouched.
func (t *Track) unwrap(ts uint32, advance bool) int64 {
	if advance || !t.decoderInitialized {
		t.decoderInitialized = true
		t.lastTimeRTP = ts
		t.lastTimeUnwrapped = t.decoder.Decode(ts)
		return t.lastTimeUnwrapped
	}

	return t.lastTimeUnwrapped + int64(int32(ts-t.lastTimeRTP))
}

// ProcessPacket extracts timing data from a RTP packet
// received at the given system time, and feeds the clock with it.
// Packets whose PTS is not equal to their DTS only go through the SSRC check,
// since their timestamps are not monotonic.
func (t *Track) ProcessPacket(pkt *rtp.Packet, system int64, ptsEqualsDTS bool) error {
	stream, ok, lost, err := t.processPacket(pkt, system, ptsEqualsDTS)
	if err != nil {
		return err
	}

	if lost != 0 && t.OnPacketsLost != nil {
		t.OnPacketsLost(lost)
	}

	if ok {
		t.Clock.UpdateReference(stream, system, t.CanPaceControl)
	}

	return nil
}

func (t *Track) processPacket(
	pkt *rtp.Packet,
	system int64,
	ptsEqualsDTS bool,
) (int64, bool, uint64, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.firstRTPPacketReceived {
		t.firstRTPPacketReceived = true
		t.senderSSRC = pkt.SSRC
	} else if pkt.SSRC != t.senderSSRC {
		return 0, false, 0, fmt.Errorf("received packet with wrong SSRC %d, expected %d", pkt.SSRC, t.senderSSRC)
	}

	lost := t.lossDetector.Process(pkt)
	t.totalLost += lost

	if !ptsEqualsDTS {
		return 0, false, lost, nil
	}

	unwrapped := t.unwrap(pkt.Timestamp, true)

	if t.timeInitialized {
		// update jitter
		// https://tools.ietf.org/html/rfc3550#page-39
		D := float64(system-t.jitterTimeSystem)*float64(t.ClockRate)/float64(t.Clock.SystemClockRate) -
			float64(unwrapped-t.jitterTimeUnwrapped)
		if D < 0 {
			D = -D
		}
		t.jitter += (D - t.jitter) / 16
	}

	t.timeInitialized = true
	t.jitterTimeUnwrapped = unwrapped
	t.jitterTimeSystem = system

	return unwrapped + t.offset, true, lost, nil
}

// ProcessSenderReport extracts timing data from a RTCP sender report.
// Reports of other senders are ignored.
func (t *Track) ProcessSenderReport(sr *rtcp.SenderReport, _ int64) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.firstRTPPacketReceived && sr.SSRC != t.senderSSRC {
		return
	}

	t.firstSenderReportReceived = true
	t.lastSenderReportTimeNTP = sr.NTPTime
	t.lastSenderReportTimeRTP = sr.RTPTime
	t.offset = ntp.Ticks(sr.NTPTime, int64(t.ClockRate)) - t.unwrap(sr.RTPTime, false)
}

// Deadline returns the system time at which the packet must be presented.
// It returns false when the clock has no reference yet.
func (t *Track) Deadline(pkt *rtp.Packet, presentationDelay int64) (int64, bool) {
	stream, ok := t.streamTime(pkt.Timestamp)
	if !ok {
		return 0, false
	}

	return t.Clock.Deadline(stream, presentationDelay)
}

func (t *Track) streamTime(ts uint32) (int64, bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.decoderInitialized {
		return 0, false
	}

	return t.unwrap(ts, false) + t.offset, true
}

// SenderTime returns the sender wall clock time of a RTP timestamp.
// It returns false when no sender report has been received yet.
func (t *Track) SenderTime(ts uint32) (time.Time, bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.firstSenderReportReceived {
		return time.Time{}, false
	}

	timeDiff := int32(ts - t.lastSenderReportTimeRTP)
	timeDiffGo := (time.Duration(timeDiff) * time.Second) / time.Duration(t.ClockRate)

	return ntp.Decode(t.lastSenderReportTimeNTP).Add(timeDiffGo), true
}

// Jitter returns the RFC 3550 interarrival jitter, in clock rate ticks.
func (t *Track) Jitter() float64 {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.jitter
}

// PacketsLost returns the total number of lost packets.
func (t *Track) PacketsLost() uint64 {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.totalLost
}

// SenderSSRC returns the SSRC of the sender.
func (t *Track) SenderSSRC() (uint32, bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.senderSSRC, t.firstRTPPacketReceived
}
