package midi

import (
	"sync/atomic"

	"github.com/golang/glog"
)

const (
	statusControlChange = 0xb0
	statusRealtime      = 0xf8
)

// ControlChange is a decoded control change message.
type ControlChange struct {
	// Channel is the zero based MIDI channel, 0-15.
	Channel    uint8
	Controller uint8
	Value      uint8
}

// DecoderConfig configures a Decoder.
type DecoderConfig struct {
	// Name labels the byte stream in log output.
	Name string
	// Channel restricts decoding to one channel, 1-16. Zero accepts all channels.
	Channel int
	// Verbose, when set and true, logs every applied control change.
	Verbose *atomic.Bool
}

// Decoder is a resumable parser for control change messages. It keeps the
// undecoded tail of a message between calls, so a stream may be fed in
// fragments of any size. A Decoder belongs to exactly one byte stream and is
// not safe for concurrent use.
type Decoder struct {
	table   *Table
	name    string
	channel int
	verbose *atomic.Bool

	buf     [3]byte
	n       int
	running byte

	scratch [16]ControlChange
}

// NewDecoder creates a decoder that applies control changes to table. table may
// be nil when only Decode is used. cfg may be nil.
func NewDecoder(table *Table, cfg *DecoderConfig) *Decoder {
	d := &Decoder{table: table}
	if cfg != nil {
		d.name = cfg.Name
		d.channel = cfg.Channel
		d.verbose = cfg.Verbose
	}
	return d
}

// Reset drops any partial message and the running status.
func (d *Decoder) Reset() {
	d.n = 0
	d.running = 0
}

// Pending returns the number of bytes of an incomplete message held over from
// previous calls.
func (d *Decoder) Pending() int {
	return d.n
}

// Decode parses p, appending every completed control change to dst. Status
// bytes other than control change abandon any partial message and the data
// bytes following them are skipped. System real-time bytes are ignored wherever
// they appear.
func (d *Decoder) Decode(dst []ControlChange, p []byte) []ControlChange {
	for _, c := range p {
		switch {
		case c >= statusRealtime:
		case c&0x80 != 0:
			d.n = 0
			d.running = 0
			if c&0xf0 == statusControlChange && d.accepts(c) {
				d.buf[0] = c
				d.n = 1
				d.running = c
			}
		default:
			if d.n == 0 {
				if d.running == 0 {
					continue
				}
				d.buf[0] = d.running
				d.n = 1
			}
			d.buf[d.n] = c
			d.n++
			if d.n == len(d.buf) {
				dst = append(dst, ControlChange{
					Channel:    d.buf[0] & 0x0f,
					Controller: d.buf[1],
					Value:      d.buf[2],
				})
				d.n = 0
			}
		}
	}
	return dst
}

func (d *Decoder) accepts(status byte) bool {
	return d.channel == 0 || int(status&0x0f)+1 == d.channel
}

// Write decodes p and applies the resulting control changes to the table. It
// always consumes all of p.
func (d *Decoder) Write(p []byte) (int, error) {
	ccs := d.Decode(d.scratch[:0], p)
	for _, cc := range ccs {
		if d.table != nil {
			d.table.Set(cc.Controller, cc.Value)
		}
		if d.verbose != nil && d.verbose.Load() {
			glog.Infof("midi %s: cc%d = %d (channel %d)",
				d.name, cc.Controller, cc.Value, cc.Channel+1)
		}
	}
	return len(p), nil
}
