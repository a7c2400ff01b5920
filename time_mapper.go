package streamclock

// StreamToSystem converts a stream time into a system time.
// It returns false when the state has no reference.
func (s *State) StreamToSystem(stream int64) (int64, bool) {
	if !s.HasReference {
		return 0, false
	}

	num, den := s.factors()
	return s.Reference.System + multiplyAndDivide(stream-s.Reference.Stream, num, den), true
}

// SystemToStream converts a system time into a stream time.
// It returns false when the state has no reference.
func (s *State) SystemToStream(system int64) (int64, bool) {
	if !s.HasReference {
		return 0, false
	}

	num, den := s.factors()
	return s.Reference.Stream + multiplyAndDivide(system-s.Reference.System, den, num), true
}
