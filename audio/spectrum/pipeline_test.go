package spectrum

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peragwin/glslive/audio/fft"
)

// constTransform reports a fixed magnitude per bin and remembers its last input.
type constTransform struct {
	size   int
	values []float32
	last   []float64
}

func (c *constTransform) WindowSize() int { return c.size }
func (c *constTransform) Bins() int       { return len(c.values) }
func (c *constTransform) Magnitudes(dst []float32, x []float64) {
	copy(c.last, x)
	copy(dst, c.values)
}

func newConst(size int, values ...float32) *constTransform {
	return &constTransform{size: size, values: values, last: make([]float64, size)}
}

func snapshot(b *Buffer) []float32 {
	out := make([]float32, b.Len())
	b.Snapshot(out)
	return out
}

func TestPipelineStartsSilent(t *testing.T) {
	bufs := NewBuffers(4)
	_, err := NewPipeline(newConst(8, 1, 2, 3, 4), bufs, Config{Smoothing: 0.5})
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0, 0}, snapshot(bufs.Raw))
	assert.Equal(t, []float32{0, 0, 0, 0}, snapshot(bufs.Smoothed))
}

func TestPipelineRawAndSmoothed(t *testing.T) {
	tr := newConst(8, 1, 2, 4, 8)
	bufs := NewBuffers(4)
	p, err := NewPipeline(tr, bufs, Config{Smoothing: 0.75})
	require.NoError(t, err)

	p.OnAudioBlock(make([]float64, 8))
	assert.Equal(t, []float32{1, 2, 4, 8}, snapshot(bufs.Raw))
	assert.InDeltaSlice(t, []float32{0.25, 0.5, 1, 2}, snapshot(bufs.Smoothed), 1e-6)

	tr.values = []float32{0, 0, 0, 0}
	p.OnAudioBlock(make([]float64, 8))
	assert.Equal(t, []float32{0, 0, 0, 0}, snapshot(bufs.Raw))
	assert.InDeltaSlice(t, []float32{0.1875, 0.375, 0.75, 1.5}, snapshot(bufs.Smoothed), 1e-6)
	assert.Equal(t, uint64(2), p.Blocks())
}

func TestPipelineGain(t *testing.T) {
	bufs := NewBuffers(2)
	p, err := NewPipeline(newConst(4, 1, 3), bufs, Config{Gain: 2})
	require.NoError(t, err)
	p.OnAudioBlock(nil)
	assert.Equal(t, []float32{2, 6}, snapshot(bufs.Raw))
	assert.Equal(t, []float32{2, 6}, snapshot(bufs.Smoothed))
}

func TestPipelineZeroPadsShortBlocks(t *testing.T) {
	tr := newConst(6, 0, 0)
	p, err := NewPipeline(tr, NewBuffers(2), Config{})
	require.NoError(t, err)

	p.OnAudioBlock([]float64{1, 2, 3, 4, 5, 6})
	p.OnAudioBlock([]float64{7, 8})
	assert.Equal(t, []float64{7, 8, 0, 0, 0, 0}, tr.last)

	p.OnAudioBlock([]float64{1, 2, 3, 4, 5, 6, 7, 8})
	assert.Equal(t, []float64{3, 4, 5, 6, 7, 8}, tr.last)
}

func TestPipelineSmoothingConverges(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 200; trial++ {
		a := rng.Float32() * 0.999
		start := rng.Float32() * 100
		target := rng.Float32() * 100

		tr := newConst(2, start)
		bufs := NewBuffers(1)
		p, err := NewPipeline(tr, bufs, Config{Smoothing: a})
		require.NoError(t, err)
		for i := 0; i < 50; i++ {
			p.OnAudioBlock(nil)
		}

		tr.values[0] = target
		prev := bufs.Smoothed.Load(0)
		for i := 0; i < 500; i++ {
			p.OnAudioBlock(nil)
			cur := bufs.Smoothed.Load(0)
			if target >= prev {
				require.GreaterOrEqual(t, cur, prev)
				require.LessOrEqual(t, cur, target)
			} else {
				require.LessOrEqual(t, cur, prev)
				require.GreaterOrEqual(t, cur, target)
			}
			prev = cur
		}
	}
}

func TestPipelineRejectsBadConfig(t *testing.T) {
	_, err := NewPipeline(newConst(2, 0), NewBuffers(1), Config{Smoothing: 1})
	assert.True(t, errors.Is(err, ErrSmoothing))
	_, err = NewPipeline(newConst(2, 0), NewBuffers(1), Config{Smoothing: -0.1})
	assert.True(t, errors.Is(err, ErrSmoothing))
	_, err = NewPipeline(newConst(2, 0, 0), NewBuffers(1), Config{})
	assert.Error(t, err)
}

func TestPipelineDoesNotAllocate(t *testing.T) {
	tr, err := fft.New(fft.KindMagnitude, 256)
	require.NoError(t, err)
	p, err := NewPipeline(tr, NewBuffers(256), Config{Smoothing: 0.6, AutoGain: true})
	require.NoError(t, err)
	block := make([]float64, p.WindowSize())
	for i := range block {
		block[i] = float64(i%32) / 32
	}
	allocs := testing.AllocsPerRun(50, func() {
		p.OnAudioBlock(block)
	})
	assert.Zero(t, allocs)
}
