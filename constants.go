package streamclock

import (
	"time"
)

const (
	// MPEG timestamps
	defaultStreamClockRate = 90000

	// microseconds
	defaultSystemClockRate = 1000000

	defaultAveragingWindow = 40

	// references further apart than this are a new program, not jitter
	defaultMaxGap = 2 * time.Second

	// margin between the last deadline and a new reference
	defaultMeanPTSGap = 300 * time.Millisecond

	defaultDriftUpdatePeriod = 200 * time.Millisecond
)
