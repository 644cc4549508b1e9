package util

// RingBuffer implements a circular buffer of samples. It has a single writer and
// is meant to be owned by the audio callback, so it takes no locks and never
// allocates after construction.
type RingBuffer struct {
	buf   []float64
	index int
}

// NewRingBuffer creates a new ring buffer with the given size.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{buf: make([]float64, size)}
}

// Len returns the capacity of the buffer.
func (r *RingBuffer) Len() int {
	return len(r.buf)
}

// Push data onto the ring buffer.
func (r *RingBuffer) Push(data []float64) {
	if len(data) > len(r.buf) {
		panic("cant push data longer than size of buffer")
	}

	wrap := false
	en := r.index + len(data)
	if en > len(r.buf) {
		en = len(r.buf)
		wrap = true
	}
	copy(r.buf[r.index:en], data)
	if wrap {
		os := len(r.buf) - r.index
		copy(r.buf, data[os:])
	}

	r.index = (r.index + len(data)) % len(r.buf)
}

// PushFloat32 converts and pushes data onto the ring buffer without an
// intermediate slice.
func (r *RingBuffer) PushFloat32(data []float32) {
	if len(data) > len(r.buf) {
		panic("cant push data longer than size of buffer")
	}
	for _, x := range data {
		r.buf[r.index] = float64(x)
		r.index++
		if r.index == len(r.buf) {
			r.index = 0
		}
	}
}

// Get the most recent N data points from the buffer.
func (r *RingBuffer) Get(size int) []float64 {
	return r.GetOffset(size, 0)
}

// GetOffset gets the most recent N data points from the buffer, offset minus M samples.
func (r *RingBuffer) GetOffset(size, offset int) []float64 {
	ret := make([]float64, size)
	r.ReadOffset(ret, offset)
	return ret
}

// Read fills dst with the most recent len(dst) data points, oldest first.
func (r *RingBuffer) Read(dst []float64) {
	r.ReadOffset(dst, 0)
}

// ReadOffset fills dst with the most recent len(dst) data points, offset minus M samples.
func (r *RingBuffer) ReadOffset(dst []float64, offset int) {
	size := len(dst)
	if size > len(r.buf) {
		panic("cant get size greater than size of buffer")
	}

	index := r.index - offset
	if index < 0 {
		index += len(r.buf)
	} else if index > len(r.buf) {
		index -= len(r.buf)
	}
	st := index - size
	if st >= 0 {
		copy(dst, r.buf[st:index])
		return
	}
	st += len(r.buf)
	n := copy(dst, r.buf[st:])
	copy(dst[n:], r.buf[:index])
}
