// Package tsclock contains a MPEG-TS reader that drives a stream clock with PCRs.
package tsclock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/asticode/go-astits"
	"github.com/bluenviron/mediacommon/v2/pkg/formats/mpegts"

	"github.com/bluenviron/streamclock"
)

const (
	// clock rate of PCR bases, PTS and DTS.
	clockRate = 90000
)

// Unit is a PES packet with a timestamp.
type Unit struct {
	PID uint16
	// unwrapped timestamps, in 90 kHz ticks.
	PTS int64
	DTS int64
	// system time at which the unit must be presented.
	Deadline int64
	// whether Deadline is available.
	Known bool
	Data  []byte
}

// Reader reads a MPEG-TS stream, feeds a Clock with its PCRs
// and computes deadlines of PES packets.
type Reader struct {
	// source of the stream.
	R io.Reader
	// clock to feed. Its StreamClockRate must be 90000.
	Clock *streamclock.Clock
	// whether the source can be read at the pace imposed by the clock (files).
	CanPaceControl bool
	// function that returns the current system time, in clock system ticks.
	// It defaults to a monotonic clock.
	Now func() int64
	// delay added to deadlines, in clock system ticks.
	PresentationDelay int64

	// called when a PES packet is read.
	OnUnit func(*Unit)
	// called when a non-fatal decode error happens.
	OnDecodeError func(error)

	dem         *astits.Demuxer
	timeDecoder mpegts.TimeDecoder
	pcrPID      uint16
	hasPCRPID   bool
	held        *adaptationEvent
}

// timing fields of an adaptation field.
type adaptationEvent struct {
	pid           uint16
	discontinuity bool
	hasPCR        bool
	pcrBase       int64
}

// Initialize initializes a Reader.
func (r *Reader) Initialize() error {
	if r.Clock == nil {
		return fmt.Errorf("clock not provided")
	}

	if r.Clock.StreamClockRate != clockRate {
		return fmt.Errorf("clock rate mismatch: MPEG-TS has %d, clock has %d",
			clockRate, r.Clock.StreamClockRate)
	}

	if r.Now == nil {
		start := time.Now()
		systemClockRate := r.Clock.SystemClockRate
		r.Now = func() int64 {
			return streamclock.DurationToTicks(time.Since(start), systemClockRate)
		}
	}

	if r.OnUnit == nil {
		r.OnUnit = func(*Unit) {}
	}

	if r.OnDecodeError == nil {
		r.OnDecodeError = func(error) {}
	}

	// the skipper sees every packet, including the ones without payload
	// that the demuxer never returns (dedicated PCR PIDs, adaptation-only packets).
	r.dem = astits.NewDemuxer(context.Background(), r.R,
		astits.DemuxerOptPacketSkipper(r.inspectPacket))
	r.timeDecoder.Initialize()

	return nil
}

// Read reads a single data unit of the stream.
// It returns io.EOF when the stream has ended.
func (r *Reader) Read() error {
	data, err := r.dem.NextData()
	if err != nil {
		if errors.Is(err, astits.ErrNoMorePackets) {
			r.releaseHeld()
			return io.EOF
		}
		return fmt.Errorf("unable to demux: %w", err)
	}

	if data.PMT != nil {
		r.pcrPID = data.PMT.PCRPID
		r.hasPCRPID = true
	}

	if data.PES != nil {
		r.processPES(data.PID, data.PES)
	}

	// the last packet read may be the one that completed the unit above,
	// and belongs after it.
	r.releaseHeld()

	return nil
}

// inspectPacket is called by the demuxer for each packet.
// The adaptation field of a packet is processed when the next packet is read,
// after units completed by that packet have been returned.
func (r *Reader) inspectPacket(p *astits.Packet) bool {
	r.releaseHeld()

	af := p.AdaptationField
	if af == nil || (!af.DiscontinuityIndicator && (!af.HasPCR || af.PCR == nil)) {
		return false
	}

	ev := &adaptationEvent{
		pid:           p.Header.PID,
		discontinuity: af.DiscontinuityIndicator,
		hasPCR:        af.HasPCR && af.PCR != nil,
	}
	if ev.hasPCR {
		ev.pcrBase = af.PCR.Base
	}
	r.held = ev

	return false
}

func (r *Reader) releaseHeld() {
	if r.held != nil {
		ev := r.held
		r.held = nil
		r.processAdaptationEvent(ev)
	}
}

func (r *Reader) processAdaptationEvent(ev *adaptationEvent) {
	// timestamps after a discontinuity are unrelated to previous ones.
	if ev.discontinuity {
		r.Clock.Reset()
		r.timeDecoder.Initialize()
	}

	if !ev.hasPCR {
		return
	}

	if r.hasPCRPID && ev.pid != r.pcrPID {
		return
	}

	stream := r.timeDecoder.Decode(ev.pcrBase)
	r.Clock.UpdateReference(stream, r.Now(), r.CanPaceControl)
}

func (r *Reader) processPES(pid uint16, pes *astits.PESData) {
	if pes.Header == nil || pes.Header.OptionalHeader == nil {
		return
	}

	oh := pes.Header.OptionalHeader

	var pts int64
	var dts int64

	switch oh.PTSDTSIndicator {
	case astits.PTSDTSIndicatorNoPTSOrDTS:
		return

	case astits.PTSDTSIndicatorOnlyPTS:
		if oh.PTS == nil {
			r.OnDecodeError(fmt.Errorf("PES on PID %d has no PTS", pid))
			return
		}
		pts = r.timeDecoder.Decode(oh.PTS.Base)
		dts = pts

	case astits.PTSDTSIndicatorBothPresent:
		if oh.PTS == nil || oh.DTS == nil {
			r.OnDecodeError(fmt.Errorf("PES on PID %d has no PTS or DTS", pid))
			return
		}
		dts = r.timeDecoder.Decode(oh.DTS.Base)
		pts = r.timeDecoder.Decode(oh.PTS.Base)

	default:
		r.OnDecodeError(fmt.Errorf("PES on PID %d has an invalid PTS/DTS indicator", pid))
		return
	}

	u := &Unit{
		PID:  pid,
		PTS:  pts,
		DTS:  dts,
		Data: pes.Data,
	}
	u.Deadline, u.Known = r.Clock.Deadline(pts, r.PresentationDelay)

	r.OnUnit(u)
}

// Wakeup returns the system time until which the caller can sleep before calling Read() again.
// It returns false when reads must not be throttled.
func (r *Reader) Wakeup() (int64, bool) {
	return r.Clock.Wakeup()
}
