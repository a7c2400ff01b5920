// Package logsink contains a diagnostics sink that logs clock discontinuities.
package logsink

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/bluenviron/streamclock"
	"github.com/bluenviron/streamclock/internal/asyncprocessor"
)

const (
	defaultBufferSize = 256
)

// Sink logs clock discontinuities.
// Events are queued and written by a background routine,
// in order not to block the routine that feeds the clock.
type Sink struct {
	// destination of entries.
	// It defaults to the logrus standard logger.
	Logger logrus.FieldLogger
	// size of the event queue. It must be a power of two.
	// When the queue is full, events are discarded.
	// It defaults to 256.
	BufferSize int

	processor      *asyncprocessor.Processor
	discarded      atomic.Uint64
	discardedTotal atomic.Uint64
}

// Initialize initializes a Sink.
func (s *Sink) Initialize() error {
	if s.Logger == nil {
		s.Logger = logrus.StandardLogger()
	}
	if s.BufferSize == 0 {
		s.BufferSize = defaultBufferSize
	}

	s.processor = &asyncprocessor.Processor{
		BufferSize: s.BufferSize,
		OnError: func(_ context.Context, err error) {
			s.Logger.WithError(err).Error("diagnostics sink stopped")
		},
	}
	err := s.processor.Initialize()
	if err != nil {
		return err
	}

	s.processor.Start()

	return nil
}

// Close closes the Sink. Queued events that were not logged yet are discarded.
func (s *Sink) Close() {
	s.processor.Close()
}

// OnDiscontinuity is a streamclock.Clock OnDiscontinuity callback.
// It returns immediately.
func (s *Sink) OnDiscontinuity(d *streamclock.Discontinuity) {
	// the event is copied since the clock does not guarantee its lifetime.
	ev := *d

	ok := s.processor.Push(func() error {
		if n := s.discarded.Swap(0); n != 0 {
			s.Logger.WithField("count", n).Warn("clock discontinuities discarded, queue is full")
		}

		s.Logger.WithFields(logrus.Fields{
			"clock_id":         ev.ClockID,
			"reason":           ev.Reason.String(),
			"prev_stream":      ev.PrevStream,
			"stream":           ev.Sample.Stream,
			"system":           ev.Sample.System,
			"reference_stream": ev.Reference.Stream,
			"reference_system": ev.Reference.System,
		}).Warn("clock discontinuity")
		return nil
	})
	if !ok {
		s.discarded.Add(1)
		s.discardedTotal.Add(1)
	}
}

// Discarded returns the number of events that were discarded since the queue was full.
func (s *Sink) Discarded() uint64 {
	return s.discardedTotal.Load()
}
