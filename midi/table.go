// Package midi decodes MIDI control change messages from raw byte streams into
// a table of controller values.
package midi

import "sync/atomic"

// Controllers is the number of MIDI controller numbers.
const Controllers = 128

// Table maps controller numbers to the last value seen for them. Writers and
// readers may run on different goroutines; each entry is an atomic word and the
// last write wins.
type Table struct {
	values [Controllers]atomic.Uint32
	writes atomic.Uint64
}

// Set stores value for controller. Out of range arguments are ignored.
func (t *Table) Set(controller, value uint8) {
	if controller >= Controllers || value > 127 {
		return
	}
	t.values[controller].Store(uint32(value))
	t.writes.Add(1)
}

// Get returns the value of controller, 0 if it was never set.
func (t *Table) Get(controller uint8) uint8 {
	if controller >= Controllers {
		return 0
	}
	return uint8(t.values[controller].Load())
}

// Normalized returns the value of controller scaled to [0, 1].
func (t *Table) Normalized(controller uint8) float32 {
	return float32(t.Get(controller)) / 127
}

// Snapshot copies every controller value into dst.
func (t *Table) Snapshot(dst *[Controllers]uint8) {
	for i := range dst {
		dst[i] = uint8(t.values[i].Load())
	}
}

// Writes returns the number of updates applied so far.
func (t *Table) Writes() uint64 {
	return t.writes.Load()
}
