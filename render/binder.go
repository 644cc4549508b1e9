// Package render binds live data to the active shader program and runs the
// frame loop.
package render

import (
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/golang/glog"

	"github.com/peragwin/glslive/audio/spectrum"
	"github.com/peragwin/glslive/midi"
	"github.com/peragwin/glslive/shader"
)

// Uniform names bound every frame.
const (
	UniformTime        = "fGlobalTime"
	UniformResolution  = "v2Resolution"
	UniformFFT         = "texFFT"
	UniformFFTSmoothed = "texFFTSmoothed"
	uniformCCPrefix    = "cc"
)

// Texture units the spectra are bound to.
const (
	unitFFT         = 0
	unitFFTSmoothed = 1
)

// UniformBackend is the part of the graphics backend the binder uses.
type UniformBackend interface {
	UseProgram(id uint32)
	UniformLocation(program uint32, name string) int32
	Uniform1f(loc int32, v float32)
	Uniform2f(loc int32, x, y float32)
	Uniform1i(loc int32, v int32)
	NewTexture1D(size int) (uint32, error)
	UpdateTexture1D(tex uint32, unit int, data []float32)
	DeleteTexture(tex uint32)
}

var ccNames [midi.Controllers]string

func init() {
	for i := range ccNames {
		ccNames[i] = uniformCCPrefix + strconv.Itoa(i)
	}
}

// locations of a linked program, -1 where the program does not use the name
type locations struct {
	program    uint32
	generation uint64

	time       int32
	resolution int32
	fft        int32
	smoothed   int32
	cc         [midi.Controllers]int32
}

// Binder pushes time, resolution, controller values and spectra to a program.
type Binder struct {
	backend  UniformBackend
	table    *midi.Table
	spectrum *spectrum.Buffers

	start time.Time
	now   func() time.Time

	texFFT, texSmoothed uint32
	raw, smoothed       []float32

	locs *locations
}

// NewBinder creates the spectrum textures. buffers may be nil, in which case
// no textures are bound.
func NewBinder(backend UniformBackend, table *midi.Table, buffers *spectrum.Buffers) (*Binder, error) {
	b := &Binder{
		backend:  backend,
		table:    table,
		spectrum: buffers,
		now:      time.Now,
	}
	b.start = b.now()
	if buffers != nil {
		n := buffers.Bins()
		var err error
		if b.texFFT, err = backend.NewTexture1D(n); err != nil {
			return nil, err
		}
		if b.texSmoothed, err = backend.NewTexture1D(n); err != nil {
			backend.DeleteTexture(b.texFFT)
			return nil, err
		}
		b.raw = make([]float32, n)
		b.smoothed = make([]float32, n)
	}
	return b, nil
}

// Elapsed returns the time since the binder was created.
func (b *Binder) Elapsed() time.Duration {
	return b.now().Sub(b.start)
}

// BindAndPush makes p current and sets every uniform it uses. Names the
// program does not declare are skipped.
func (b *Binder) BindAndPush(p *shader.Program, width, height int) {
	if p == nil {
		return
	}
	b.backend.UseProgram(p.ID)
	l := b.lookup(p)

	if l.time >= 0 {
		b.backend.Uniform1f(l.time, float32(b.Elapsed().Seconds()))
	}
	if l.resolution >= 0 {
		res := mgl32.Vec2{float32(width), float32(height)}
		b.backend.Uniform2f(l.resolution, res.X(), res.Y())
	}
	if b.table != nil {
		for i, loc := range l.cc {
			if loc >= 0 {
				b.backend.Uniform1f(loc, b.table.Normalized(uint8(i)))
			}
		}
	}

	if b.spectrum == nil {
		return
	}
	b.spectrum.Raw.Snapshot(b.raw)
	b.spectrum.Smoothed.Snapshot(b.smoothed)
	b.backend.UpdateTexture1D(b.texFFT, unitFFT, b.raw)
	b.backend.UpdateTexture1D(b.texSmoothed, unitFFTSmoothed, b.smoothed)
	if l.fft >= 0 {
		b.backend.Uniform1i(l.fft, unitFFT)
	}
	if l.smoothed >= 0 {
		b.backend.Uniform1i(l.smoothed, unitFFTSmoothed)
	}
}

// lookup resolves uniform locations once per program generation.
func (b *Binder) lookup(p *shader.Program) *locations {
	if l := b.locs; l != nil && l.program == p.ID && l.generation == p.Generation {
		return l
	}
	loc := func(name string) int32 {
		return b.backend.UniformLocation(p.ID, name)
	}
	l := &locations{
		program:    p.ID,
		generation: p.Generation,
		time:       loc(UniformTime),
		resolution: loc(UniformResolution),
		fft:        loc(UniformFFT),
		smoothed:   loc(UniformFFTSmoothed),
	}
	used := 0
	for i := range l.cc {
		l.cc[i] = loc(ccNames[i])
		if l.cc[i] >= 0 {
			used++
		}
	}
	glog.V(1).Infof("render: program %d uses %d controllers", p.ID, used)
	b.locs = l
	return l
}

// Close deletes the spectrum textures.
func (b *Binder) Close() error {
	if b.spectrum != nil {
		b.backend.DeleteTexture(b.texFFT)
		b.backend.DeleteTexture(b.texSmoothed)
	}
	return nil
}
