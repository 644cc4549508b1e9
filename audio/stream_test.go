package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	size    int
	windows [][]float64
}

func (r *recorder) WindowSize() int { return r.size }
func (r *recorder) OnAudioBlock(w []float64) {
	r.windows = append(r.windows, append([]float64(nil), w...))
}

type sink struct{ data []byte }

func (s *sink) Write(p []byte) (int, error) {
	s.data = append(s.data, p...)
	return len(p), nil
}

func TestBridgeWindows(t *testing.T) {
	rec := &recorder{size: 4}
	b := NewBridge(rec, nil)

	b.Process([]float32{1, 2}, nil)
	b.Process([]float32{3, 4}, nil)
	b.Process([]float32{5, 6}, nil)

	assert.Equal(t, [][]float64{
		{0, 0, 1, 2},
		{1, 2, 3, 4},
		{3, 4, 5, 6},
	}, rec.windows)
}

func TestBridgeLongBlock(t *testing.T) {
	rec := &recorder{size: 3}
	b := NewBridge(rec, nil)
	b.Process([]float32{1, 2, 3, 4, 5}, nil)
	assert.Equal(t, []float64{3, 4, 5}, rec.windows[0])
}

func TestBridgeForwardsMIDI(t *testing.T) {
	s := &sink{}
	b := NewBridge(&recorder{size: 2}, s)
	b.Process([]float32{0}, []Event{
		{Offset: 0, Data: []byte{0xb0, 3}},
		{Offset: 1, Data: []byte{127}},
	})
	assert.Equal(t, []byte{0xb0, 3, 127}, s.data)
}

type nopProcessor struct{ size int }

func (n nopProcessor) WindowSize() int          { return n.size }
func (n nopProcessor) OnAudioBlock(_ []float64) {}

func TestBridgeProcessDoesNotAllocate(t *testing.T) {
	b := NewBridge(nopProcessor{size: 512}, nil)
	block := make([]float32, 128)
	allocs := testing.AllocsPerRun(100, func() {
		b.Process(block, nil)
	})
	assert.Zero(t, allocs)
}

func TestBridgeCloseWithoutOpen(t *testing.T) {
	b := NewBridge(nopProcessor{size: 4}, nil)
	assert.NoError(t, b.Close())
}
