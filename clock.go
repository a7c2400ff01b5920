// Package streamclock is a stream clock synchronization library for the Go programming language.
package streamclock

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bluenviron/streamclock/pkg/average"
	"github.com/bluenviron/streamclock/pkg/liberrors"
)

// Clock converts stream timestamps (PCR, PTS, DTS) into system deadlines,
// compensating for jitter, drift, discontinuities and rate changes.
//
// A demuxer feeds reference samples with UpdateReference(); decoders compute
// deadlines with Deadline(); a pacing loop reads Wakeup().
// All methods can be called from different goroutines, but
// UpdateReference() must be called by a single one.
type Clock struct {
	//
	// parameters (all optional)
	//
	// whether the clock can be used to pace reads.
	// It defaults to false.
	Master bool
	// number of samples over which drift is smoothed.
	// It defaults to 40.
	AveragingWindow int
	// initial playback rate.
	// It defaults to 1/1.
	InitialRate Rate
	// ticks per second of stream timestamps.
	// It defaults to 90000.
	StreamClockRate int
	// ticks per second of system timestamps.
	// It defaults to 1000000.
	SystemClockRate int
	// maximum distance between two reference samples before the clock is reset.
	// It defaults to 2 seconds.
	MaxGap time.Duration
	// margin between the last deadline and the reference chosen after a discontinuity.
	// It defaults to 300 milliseconds.
	MeanPTSGap time.Duration
	// minimum interval between two drift updates.
	// It defaults to 200 milliseconds.
	DriftUpdatePeriod time.Duration
	// identifier of the clock, reported in discontinuities.
	// It defaults to a random UUID.
	ID string

	//
	// callbacks (all optional)
	//
	// called when a discontinuity is detected.
	// It is called outside of the clock lock, but must not block.
	OnDiscontinuity func(*Discontinuity)

	//
	// private
	//

	filter driftFilter

	mutex           sync.Mutex
	state           State
	onDiscontinuity func(*Discontinuity)
	paused          bool
	pauseSystem     int64
}

// Initialize initializes a Clock.
func (c *Clock) Initialize() {
	if c.AveragingWindow <= 0 {
		c.AveragingWindow = defaultAveragingWindow
	}
	if c.StreamClockRate <= 0 {
		c.StreamClockRate = defaultStreamClockRate
	}
	if c.SystemClockRate <= 0 {
		c.SystemClockRate = defaultSystemClockRate
	}
	if c.InitialRate.Num <= 0 || c.InitialRate.Den <= 0 {
		c.InitialRate = RateNormal
	} else if _, _, ok := conversionFactors(c.StreamClockRate, c.SystemClockRate,
		c.InitialRate.reduce()); !ok {
		c.InitialRate = RateNormal
	}
	if c.MaxGap <= 0 {
		c.MaxGap = defaultMaxGap
	}
	if c.MeanPTSGap <= 0 {
		c.MeanPTSGap = defaultMeanPTSGap
	}
	if c.DriftUpdatePeriod <= 0 {
		c.DriftUpdatePeriod = defaultDriftUpdatePeriod
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	c.filter = driftFilter{
		maxGap:       DurationToTicks(c.MaxGap, c.StreamClockRate),
		meanPTSGap:   DurationToTicks(c.MeanPTSGap, c.SystemClockRate),
		updatePeriod: DurationToTicks(c.DriftUpdatePeriod, c.SystemClockRate),
	}

	c.state = State{
		IsMaster:        c.Master,
		AveragingWindow: c.AveragingWindow,
		Drift:           average.Average{Window: c.AveragingWindow},
		StreamClockRate: c.StreamClockRate,
		SystemClockRate: c.SystemClockRate,
	}
	c.state.setRate(c.InitialRate.reduce())

	c.onDiscontinuity = c.OnDiscontinuity
}

// Close closes the Clock.
// Discontinuities are not reported anymore.
func (c *Clock) Close() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.onDiscontinuity = nil
}

// UpdateReference feeds the clock with a reference sample, that is
// a stream time (usually a PCR) and the system time at which it was received.
// canPaceControl tells whether the source can be read at the pace imposed by this clock
// (local files) or not (live and network sources).
func (c *Clock) UpdateReference(stream int64, system int64, canPaceControl bool) {
	disc, cb := c.updateReference(stream, system, canPaceControl)

	if disc != nil && cb != nil {
		cb(disc)
	}
}

func (c *Clock) updateReference(
	stream int64,
	system int64,
	canPaceControl bool,
) (*Discontinuity, func(*Discontinuity)) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	prevStream := c.state.Last.Stream
	sample := Point{Stream: stream, System: system}

	reason, detected := c.filter.process(&c.state, sample, canPaceControl && c.state.IsMaster)
	if !detected {
		return nil, nil
	}

	return &Discontinuity{
		ClockID:    c.ID,
		Reason:     reason,
		PrevStream: prevStream,
		Sample:     sample,
		Reference:  c.state.Reference,
	}, c.onDiscontinuity
}

// Reset drops the reference. It must be called after seeks.
// The next reference sample re-anchors the clock.
func (c *Clock) Reset() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.state.HasReference = false
	c.state.HasLastPresentation = false
	c.state.LastPresentation = 0
}

// Deadline returns the system time at which the unit with the given stream time
// must be presented. presentationDelay is expressed in system ticks.
// It returns false when the clock has no reference yet:
// in this case the unit must be held or dropped, not presented.
func (c *Clock) Deadline(stream int64, presentationDelay int64) (int64, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	v, ok := c.state.StreamToSystem(stream + c.state.Drift.Value())
	if !ok {
		return 0, false
	}

	if !c.state.HasLastPresentation || v > c.state.LastPresentation {
		c.state.HasLastPresentation = true
		c.state.LastPresentation = v
	}

	return v + presentationDelay, true
}

// SetRate changes the playback rate.
// The reference is moved to the current position, therefore
// the deadline of the current position does not change.
func (c *Clock) SetRate(r Rate) error {
	if r.Num <= 0 || r.Den <= 0 {
		return liberrors.ErrClockInvalidRate{Num: r.Num, Den: r.Den}
	}

	r = r.reduce()

	if _, _, ok := conversionFactors(c.StreamClockRate, c.SystemClockRate, r); !ok {
		return liberrors.ErrClockInvalidRate{Num: r.Num, Den: r.Den}
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state.HasReference {
		stream := c.state.Last.Stream + c.state.Drift.Value()
		system, _ := c.state.StreamToSystem(stream)
		c.state.Reference = Point{Stream: stream, System: system}
	}

	c.state.setRate(r)

	return nil
}

// Rate returns the current playback rate.
func (c *Clock) Rate() Rate {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state.Rate
}

// SetMaster sets whether the clock can be used to pace reads.
func (c *Clock) SetMaster(v bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.state.IsMaster = v
}

// SetPaused pauses or resumes the clock at the given system time.
// When resuming, the reference is shifted forward by the time spent paused
// since it was anchored.
func (c *Clock) SetPaused(paused bool, system int64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.paused && c.state.HasReference {
		// a reference anchored during the pause is only shifted
		// by the remaining part of the pause.
		start := c.pauseSystem
		if c.state.Reference.System > start {
			start = c.state.Reference.System
		}

		if shift := system - start; shift > 0 {
			c.state.Reference.System += shift
			c.state.Last.System += shift
			if c.state.HasDriftUpdate {
				c.state.LastDriftUpdate += shift
			}
		}
	}

	c.paused = paused
	c.pauseSystem = system
}

// Wakeup returns the system time until which the reading routine
// can sleep before reading more data.
// It returns false when the clock has no reference or is not a master clock;
// in this case reads must not be throttled.
func (c *Clock) Wakeup() (int64, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.state.IsMaster {
		return 0, false
	}

	return c.state.StreamToSystem(c.state.Last.Stream)
}

// Synced returns whether the clock has a reference.
func (c *Clock) Synced() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state.HasReference
}

// Snapshot returns a copy of the clock state.
func (c *Clock) Snapshot() State {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state
}
