// Package spectrum turns audio blocks into the raw and smoothed magnitude
// spectra that are uploaded to the shader every frame.
package spectrum

import (
	"math"
	"sync/atomic"
)

// Buffer is a fixed-length sequence of float32 values with a single writer and
// any number of readers. Elements are stored as atomic words, so a reader never
// sees a torn element but may see a mix of old and new elements.
type Buffer struct {
	bits []uint32
}

// NewBuffer returns a zeroed buffer of n elements.
func NewBuffer(n int) *Buffer {
	return &Buffer{bits: make([]uint32, n)}
}

// Len returns the number of elements.
func (b *Buffer) Len() int {
	return len(b.bits)
}

// Load returns element i.
func (b *Buffer) Load(i int) float32 {
	return math.Float32frombits(atomic.LoadUint32(&b.bits[i]))
}

// Store sets element i.
func (b *Buffer) Store(i int, v float32) {
	atomic.StoreUint32(&b.bits[i], math.Float32bits(v))
}

// Snapshot copies the current contents into dst and returns the number of
// elements copied.
func (b *Buffer) Snapshot(dst []float32) int {
	n := len(dst)
	if n > len(b.bits) {
		n = len(b.bits)
	}
	for i := 0; i < n; i++ {
		dst[i] = b.Load(i)
	}
	return n
}

// Buffers holds the two spectra shared between the audio and render contexts.
type Buffers struct {
	Raw      *Buffer
	Smoothed *Buffer
}

// NewBuffers returns zeroed raw and smoothed buffers of n bins.
func NewBuffers(n int) *Buffers {
	return &Buffers{Raw: NewBuffer(n), Smoothed: NewBuffer(n)}
}

// Bins returns the number of frequency bins.
func (b *Buffers) Bins() int {
	return b.Raw.Len()
}
