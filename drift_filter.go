package streamclock

type driftFilter struct {
	// stream ticks
	maxGap int64

	// system ticks
	meanPTSGap   int64
	updatePeriod int64
}

// process either resets the reference or smooths the drift with a new sample.
// When synchronize is true, the sample source is paced by this clock
// and smoothing is skipped to avoid feedback oscillation.
func (f driftFilter) process(s *State, sample Point, synchronize bool) (DiscontinuityReason, bool) {
	var reason DiscontinuityReason
	detected := false
	reset := false

	switch {
	case !s.HasReference:
		reset = true

	case sample.Stream == 0 && s.Last.Stream != 0:
		reset = true
		detected = true
		reason = DiscontinuityNewProgram

	case abs(s.Last.Stream-sample.Stream) > f.maxGap:
		reset = true
		detected = true
		reason = DiscontinuityGap
	}

	switch {
	case reset:
		s.Drift.Reset()
		s.HasDriftUpdate = false

		// never hand out deadlines older than the ones already handed out
		refSystem := sample.System
		if s.HasLastPresentation && (s.LastPresentation+f.meanPTSGap) > refSystem {
			refSystem = s.LastPresentation + f.meanPTSGap
		}
		if detected && s.Reference.System > refSystem {
			refSystem = s.Reference.System
		}

		s.HasReference = true
		s.Reference = Point{Stream: sample.Stream, System: refSystem}

	case !synchronize && (!s.HasDriftUpdate || (sample.System-s.LastDriftUpdate) >= f.updatePeriod):
		extrapolated, _ := s.SystemToStream(sample.System)
		s.Drift.Update(extrapolated - sample.Stream)
		s.HasDriftUpdate = true
		s.LastDriftUpdate = sample.System
	}

	s.Last = sample

	return reason, detected
}
