package render

import (
	"strings"

	"github.com/peragwin/glslive/gfx"
)

// fakeGL records uniform writes. Programs declare the uniforms named in their
// fragment source.
type fakeGL struct {
	next     uint32
	sources  map[uint32]string
	current  uint32
	lookups  int
	floats   map[string]float32
	vec2s    map[string][2]float32
	ints     map[string]int32
	textures map[uint32][]float32
	units    map[int]uint32
	draws    int
	clears   int
	viewport [2]int

	// names by location for the current program
	names map[int32]string
}

func newFakeGL() *fakeGL {
	return &fakeGL{
		next:     1,
		sources:  map[uint32]string{},
		floats:   map[string]float32{},
		vec2s:    map[string][2]float32{},
		ints:     map[string]int32{},
		textures: map[uint32][]float32{},
		units:    map[int]uint32{},
		names:    map[int32]string{},
	}
}

func (g *fakeGL) CompileShader(typ gfx.ShaderType, src string) (uint32, string, error) {
	if strings.Contains(src, "syntax error") {
		return 0, "0:1: syntax error", gfx.ErrCompile
	}
	id := g.next
	g.next++
	g.sources[id] = src
	return id, "", nil
}

func (g *fakeGL) LinkProgram(vertex, fragment uint32) (uint32, string, error) {
	id := g.next
	g.next++
	g.sources[id] = g.sources[fragment]
	return id, "", nil
}

func (g *fakeGL) DeleteShader(id uint32)  { delete(g.sources, id) }
func (g *fakeGL) DeleteProgram(id uint32) { delete(g.sources, id) }
func (g *fakeGL) UseProgram(id uint32)    { g.current = id }

func (g *fakeGL) UniformLocation(program uint32, name string) int32 {
	g.lookups++
	src := g.sources[program]
	if !strings.Contains(src, "uniform") || !containsWord(src, name) {
		return -1
	}
	for l, n := range g.names {
		if n == name {
			return l
		}
	}
	loc := int32(len(g.names))
	g.names[loc] = name
	return loc
}

func containsWord(src, name string) bool {
	for _, f := range strings.FieldsFunc(src, func(r rune) bool {
		return !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	}) {
		if f == name {
			return true
		}
	}
	return false
}

func (g *fakeGL) Uniform1f(loc int32, v float32)    { g.floats[g.names[loc]] = v }
func (g *fakeGL) Uniform2f(loc int32, x, y float32) { g.vec2s[g.names[loc]] = [2]float32{x, y} }
func (g *fakeGL) Uniform1i(loc int32, v int32)      { g.ints[g.names[loc]] = v }

func (g *fakeGL) NewTexture1D(size int) (uint32, error) {
	id := g.next
	g.next++
	g.textures[id] = make([]float32, size)
	return id, nil
}

func (g *fakeGL) UpdateTexture1D(tex uint32, unit int, data []float32) {
	g.textures[tex] = append(g.textures[tex][:0], data...)
	g.units[unit] = tex
}

func (g *fakeGL) DeleteTexture(tex uint32) { delete(g.textures, tex) }

func (g *fakeGL) Viewport(w, h int) { g.viewport = [2]int{w, h} }
func (g *fakeGL) Clear()            { g.clears++ }
func (g *fakeGL) DrawQuad()         { g.draws++ }

type fakeWindow struct {
	w, h    int
	closeAt int
	polls   int
	swaps   int
	onPoll  func(n int)
}

func (w *fakeWindow) PollEvents() {
	w.polls++
	if w.onPoll != nil {
		w.onPoll(w.polls)
	}
}

func (w *fakeWindow) ShouldClose() bool {
	return w.closeAt > 0 && w.polls >= w.closeAt
}

func (w *fakeWindow) FramebufferSize() (int, int) { return w.w, w.h }
func (w *fakeWindow) SwapBuffers()                { w.swaps++ }
