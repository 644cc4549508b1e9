package spectrum

import (
	"errors"
	"fmt"
	"sync/atomic"

	math "github.com/chewxy/math32"

	"github.com/peragwin/glslive/audio/fft"
	"github.com/peragwin/glslive/audio/util"
)

// ErrSmoothing is returned for a smoothing factor outside [0, 1).
var ErrSmoothing = errors.New("smoothing factor must be in [0, 1)")

// Config controls the pipeline.
type Config struct {
	// Smoothing is the blend factor a in smoothed = raw*(1-a) + smoothed*a.
	Smoothing float32
	// Gain scales every magnitude before it is stored. Zero means 1.
	Gain float32
	// AutoGain enables the RMS driven input level control.
	AutoGain bool
}

// Pipeline drives a Transform once per audio block and maintains the raw and
// smoothed spectra. OnAudioBlock is called from the audio callback: it takes no
// locks, performs no I/O and does not allocate.
type Pipeline struct {
	transform fft.Transform
	buffers   *Buffers

	a, b    float32
	gain    float32
	pregain *util.PreGain

	window []float64
	mags   []float32

	blocks atomic.Uint64
}

// NewPipeline creates a pipeline writing transform output into buffers.
func NewPipeline(t fft.Transform, buffers *Buffers, cfg Config) (*Pipeline, error) {
	if cfg.Smoothing < 0 || cfg.Smoothing >= 1 || math.IsNaN(cfg.Smoothing) {
		return nil, fmt.Errorf("%w: %v", ErrSmoothing, cfg.Smoothing)
	}
	if buffers.Bins() != t.Bins() {
		return nil, fmt.Errorf("buffers have %d bins, transform produces %d",
			buffers.Bins(), t.Bins())
	}
	gain := cfg.Gain
	if gain == 0 {
		gain = 1
	}
	p := &Pipeline{
		transform: t,
		buffers:   buffers,
		a:         cfg.Smoothing,
		b:         1 - cfg.Smoothing,
		gain:      gain,
		window:    make([]float64, t.WindowSize()),
		mags:      make([]float32, t.Bins()),
	}
	if cfg.AutoGain {
		p.pregain = util.NewPreGain(util.DefaultPreGainParams)
	}
	return p, nil
}

// WindowSize is the number of samples the transform consumes per block.
func (p *Pipeline) WindowSize() int {
	return len(p.window)
}

// Buffers returns the spectra written by the pipeline.
func (p *Pipeline) Buffers() *Buffers {
	return p.buffers
}

// Blocks returns the number of audio blocks processed so far.
func (p *Pipeline) Blocks() uint64 {
	return p.blocks.Load()
}

// OnAudioBlock transforms samples and updates both spectra. Blocks shorter than
// the window are zero padded; longer blocks keep their most recent samples.
func (p *Pipeline) OnAudioBlock(samples []float64) {
	if len(samples) > len(p.window) {
		samples = samples[len(samples)-len(p.window):]
	}
	n := copy(p.window, samples)
	for i := n; i < len(p.window); i++ {
		p.window[i] = 0
	}
	if p.pregain != nil {
		p.pregain.Apply(p.window[:n])
	}

	p.transform.Magnitudes(p.mags, p.window)

	raw, smoothed := p.buffers.Raw, p.buffers.Smoothed
	for i, m := range p.mags {
		r := m * p.gain
		raw.Store(i, r)
		smoothed.Store(i, p.blend(r, smoothed.Load(i)))
	}
	p.blocks.Add(1)
}

// blend moves s towards r. The result is kept between s and r so a constant
// input converges without rounding past it.
func (p *Pipeline) blend(r, s float32) float32 {
	v := r*p.b + s*p.a
	lo, hi := s, r
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Max(lo, math.Min(hi, v))
}
