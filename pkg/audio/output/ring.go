// ABOUTME: Byte ring buffer between a blocking writer and a device callback
// ABOUTME: Writers wait for room; the callback never blocks and pads underruns with silence
package output

import (
	"errors"
	"sync"
)

var errRingClosed = errors.New("ring buffer closed")

// byteRing provides a thread-safe circular buffer for PCM bytes
type byteRing struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buffer   []byte
	readPos  int
	writePos int
	count    int // bytes currently buffered
	closed   bool
	silence  byte
}

// newByteRing creates a ring buffer with given capacity in bytes. Underruns
// are filled with silence, the zero level of the device's sample format.
func newByteRing(capacity int, silence byte) *byteRing {
	rb := &byteRing{buffer: make([]byte, capacity), silence: silence}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

// Write copies all of p into the ring, waiting while it is full
func (rb *byteRing) Write(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	written := 0
	for written < len(p) {
		for rb.count == len(rb.buffer) && !rb.closed {
			rb.cond.Wait()
		}
		if rb.closed {
			return written, errRingClosed
		}

		for written < len(p) && rb.count < len(rb.buffer) {
			rb.buffer[rb.writePos] = p[written]
			rb.writePos = (rb.writePos + 1) % len(rb.buffer)
			rb.count++
			written++
		}
		rb.cond.Broadcast()
	}
	return written, nil
}

// Read fills out from the ring without blocking; missing bytes are silence
func (rb *byteRing) Read(out []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	read := 0
	for read < len(out) && rb.count > 0 {
		out[read] = rb.buffer[rb.readPos]
		rb.readPos = (rb.readPos + 1) % len(rb.buffer)
		rb.count--
		read++
	}

	for i := read; i < len(out); i++ {
		out[i] = rb.silence
	}

	if read > 0 {
		rb.cond.Broadcast()
	}
	return read
}

// WaitEmpty blocks until every buffered byte has been read or the ring closes
func (rb *byteRing) WaitEmpty() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for rb.count > 0 && !rb.closed {
		rb.cond.Wait()
	}
}

// Available returns the number of buffered bytes
func (rb *byteRing) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Close releases blocked writers
func (rb *byteRing) Close() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.closed = true
	rb.cond.Broadcast()
}
