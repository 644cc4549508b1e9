package gfx

import (
	"fmt"
	"image/color"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/golang/glog"
)

var _ Backend = (*GL)(nil)

// GL implements Backend with OpenGL 4.1 core. The window's context must be
// current on the calling thread.
type GL struct {
	quad     *vertexArray
	textures []uint32
	current  uint32
}

// NewGL initialises the OpenGL bindings and uploads the screen quad. clear is
// the colour the frame is cleared to before drawing.
func NewGL(clear color.Color) (*GL, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gl init: %w", err)
	}
	glog.Infof("OpenGL version %s", gl.GoStr(gl.GetString(gl.VERSION)))

	r, g, b, a := clear.RGBA()
	gl.ClearColor(float32(r)/0xffff, float32(g)/0xffff, float32(b)/0xffff, float32(a)/0xffff)

	return &GL{quad: newQuad()}, nil
}

// Viewport resizes the drawable area.
func (g *GL) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

// Clear clears the current framebuffer.
func (g *GL) Clear() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// DrawQuad draws the screen quad with the current program.
func (g *GL) DrawQuad() {
	g.quad.draw()
}

// Close releases the quad and any textures still alive.
func (g *GL) Close() error {
	for len(g.textures) > 0 {
		g.DeleteTexture(g.textures[0])
	}
	g.quad.delete()
	return nil
}
