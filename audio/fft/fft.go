package fft

import (
	"fmt"
	"math/cmplx"

	math "github.com/chewxy/math32"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Kinds of transforms understood by New.
const (
	KindDCT       = "dct"
	KindMagnitude = "fft"
)

// Transform is a real-to-real spectral transform over a fixed-size sample window.
// Implementations hold only their plan and scratch space, so Magnitudes never
// allocates and can run inside the audio callback.
type Transform interface {
	// WindowSize is the number of input samples Magnitudes expects.
	WindowSize() int
	// Bins is the number of magnitudes Magnitudes writes.
	Bins() int
	// Magnitudes applies the analysis window to x and writes Bins() magnitudes,
	// lowest frequency first, into dst.
	Magnitudes(dst []float32, x []float64)
}

// New returns a transform of the given kind producing bins magnitudes.
func New(kind string, bins int) (Transform, error) {
	if bins < 2 {
		return nil, fmt.Errorf("transform needs at least 2 bins, got %d", bins)
	}
	switch kind {
	case KindDCT, "":
		return NewDCT(bins), nil
	case KindMagnitude:
		if !powerOf2(bins) {
			return nil, fmt.Errorf("fft transform needs a power of 2 bins, got %d", bins)
		}
		return NewMagnitude(bins), nil
	}
	return nil, fmt.Errorf("unknown transform %q", kind)
}

// DCT is a cosine transform of N samples into N real coefficients whose
// absolute values are reported as magnitudes.
type DCT struct {
	plan   *fourier.DCT
	window []float64
	in     []float64
	out    []float64
	scale  float32
}

// NewDCT creates a DCT over a window of size samples.
func NewDCT(size int) *DCT {
	return &DCT{
		plan:   fourier.NewDCT(size),
		window: window.Hamming(size),
		in:     make([]float64, size),
		out:    make([]float64, size),
		scale:  1 / float32(size),
	}
}

func (d *DCT) WindowSize() int { return len(d.in) }
func (d *DCT) Bins() int       { return len(d.out) }

func (d *DCT) Magnitudes(dst []float32, x []float64) {
	for i, w := range d.window {
		d.in[i] = w * x[i]
	}
	d.plan.Transform(d.out, d.in)
	for i := range dst[:len(d.out)] {
		dst[i] = math.Abs(float32(d.out[i])) * d.scale
	}
}

// Magnitude is a real FFT over 2N samples reporting the magnitudes of the lower
// N bins; the Nyquist bin is dropped.
type Magnitude struct {
	plan   *fourier.FFT
	window []float64
	in     []float64
	coeff  []complex128
	bins   int
	scale  float64
}

// NewMagnitude creates an FFT magnitude transform producing bins magnitudes.
func NewMagnitude(bins int) *Magnitude {
	size := 2 * bins
	return &Magnitude{
		plan:   fourier.NewFFT(size),
		window: window.Hamming(size),
		in:     make([]float64, size),
		coeff:  make([]complex128, size/2+1),
		bins:   bins,
		scale:  2 / float64(size),
	}
}

func (m *Magnitude) WindowSize() int { return len(m.in) }
func (m *Magnitude) Bins() int       { return m.bins }

func (m *Magnitude) Magnitudes(dst []float32, x []float64) {
	for i, w := range m.window {
		m.in[i] = w * x[i]
	}
	m.plan.Coefficients(m.coeff, m.in)
	for i := range dst[:m.bins] {
		dst[i] = float32(cmplx.Abs(m.coeff[i]) * m.scale)
	}
}

func powerOf2(x int) bool {
	return x > 0 && x&(x-1) == 0
}
