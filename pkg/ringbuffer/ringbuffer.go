// Package ringbuffer contains a ring buffer.
package ringbuffer

import (
	"fmt"
	"sync"
)

// RingBuffer is a bounded FIFO queue.
// Push() never blocks: when the buffer is full, data is discarded.
type RingBuffer[T any] struct {
	size       uint64
	mutex      sync.Mutex
	cond       *sync.Cond
	buffer     []T
	readIndex  uint64
	writeIndex uint64
	closed     bool
}

// New allocates a RingBuffer.
func New[T any](size uint64) (*RingBuffer[T], error) {
	// indexes are masked, therefore size must be a power of two.
	if size == 0 || (size&(size-1)) != 0 {
		return nil, fmt.Errorf("size must be a power of two")
	}

	r := &RingBuffer[T]{
		size:   size,
		buffer: make([]T, size),
	}
	r.cond = sync.NewCond(&r.mutex)

	return r, nil
}

// Close makes Pull() return false.
func (r *RingBuffer[T]) Close() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.closed = true
	r.cond.Broadcast()
}

// Reset restores Pull() behavior after a Close().
func (r *RingBuffer[T]) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var zero T
	for i := range r.buffer {
		r.buffer[i] = zero
	}
	r.readIndex = 0
	r.writeIndex = 0
	r.closed = false
}

// Push pushes data at the end of the buffer.
// It returns false if the buffer is full.
func (r *RingBuffer[T]) Push(data T) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if (r.writeIndex - r.readIndex) == r.size {
		return false
	}

	r.buffer[r.writeIndex&(r.size-1)] = data
	r.writeIndex++
	r.cond.Signal()

	return true
}

// Pull pulls data from the beginning of the buffer.
// It blocks until data is available or the buffer is closed.
func (r *RingBuffer[T]) Pull() (T, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for {
		if r.closed {
			var zero T
			return zero, false
		}

		if r.readIndex != r.writeIndex {
			i := r.readIndex & (r.size - 1)
			data := r.buffer[i]

			var zero T
			r.buffer[i] = zero
			r.readIndex++

			return data, true
		}

		r.cond.Wait()
	}
}
