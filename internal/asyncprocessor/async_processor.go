// Package asyncprocessor contains an asynchronous processor.
package asyncprocessor

import (
	"context"

	"github.com/bluenviron/streamclock/pkg/ringbuffer"
)

// Processor is an asynchronous queue processor
// that allows to detach the routine that is updating a clock
// from the routine that is reporting its events.
type Processor struct {
	BufferSize int
	OnError    func(context.Context, error)

	running   bool
	buffer    *ringbuffer.RingBuffer[func() error]
	ctx       context.Context
	ctxCancel func()

	done chan struct{}
}

// Initialize initializes the processor.
func (w *Processor) Initialize() error {
	var err error
	w.buffer, err = ringbuffer.New[func() error](uint64(w.BufferSize))
	if err != nil {
		return err
	}

	w.ctx, w.ctxCancel = context.WithCancel(context.Background())
	w.done = make(chan struct{})

	return nil
}

// Close closes the processor.
// Pending callbacks are discarded.
func (w *Processor) Close() {
	w.ctxCancel()
	w.buffer.Close()

	if w.running {
		<-w.done
	}
}

// Start starts the processor.
func (w *Processor) Start() {
	w.running = true
	go w.run()
}

func (w *Processor) run() {
	defer close(w.done)

	err := w.runInner()
	if err != nil && w.OnError != nil {
		w.OnError(w.ctx, err)
	}
}

func (w *Processor) runInner() error {
	for {
		cb, ok := w.buffer.Pull()
		if !ok {
			return nil
		}

		err := cb()
		if err != nil {
			return err
		}
	}
}

// Push pushes a callback to the queue.
// It returns false when the queue is full.
func (w *Processor) Push(cb func() error) bool {
	return w.buffer.Push(cb)
}
