package media

import (
	"sync"
)

// Ring is a bounded buffer of interleaved stereo samples shared between
// a producer stepping frames and a consumer draining an audio device.
// When the producer outruns the consumer the oldest samples are dropped
// so playback latency stays bounded instead of growing without limit.
type Ring struct {
	mu      sync.Mutex
	buf     []int16
	head    int
	size    int
	dropped uint64
}

// NewRing allocates a ring holding up to capacity samples. Capacity is
// rounded up to an even count so stereo pairs are never split.
func NewRing(capacity int) *Ring {
	if capacity < 2 {
		capacity = 2
	}
	if capacity%2 != 0 {
		capacity++
	}
	return &Ring{buf: make([]int16, capacity)}
}

// Write appends samples, evicting the oldest when full.
func (r *Ring) Write(s []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(s) >= len(r.buf) {
		// Only the newest window survives.
		r.dropped += uint64(r.size + len(s) - len(r.buf))
		copy(r.buf, s[len(s)-len(r.buf):])
		r.head, r.size = 0, len(r.buf)
		return
	}

	if over := r.size + len(s) - len(r.buf); over > 0 {
		r.head = (r.head + over) % len(r.buf)
		r.size -= over
		r.dropped += uint64(over)
	}
	tail := (r.head + r.size) % len(r.buf)
	n := copy(r.buf[tail:], s)
	copy(r.buf, s[n:])
	r.size += len(s)
}

// Read fills out with the oldest buffered samples and returns the count
// copied. It never blocks; a starved consumer gets a short read.
func (r *Ring) Read(out []int16) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(out)
	if n > r.size {
		n = r.size
	}
	m := copy(out[:n], r.buf[r.head:])
	copy(out[m:n], r.buf)
	r.head = (r.head + n) % len(r.buf)
	r.size -= n
	return n
}

// Len reports the number of buffered samples.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Dropped reports the total samples evicted since creation.
func (r *Ring) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
