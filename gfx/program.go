package gfx

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// LinkProgram links vertex and fragment into a new program. The shaders stay
// owned by the caller.
func (g *GL) LinkProgram(vertex, fragment uint32) (uint32, string, error) {
	prog := gl.CreateProgram()
	if prog == 0 {
		return 0, "", fmt.Errorf("no programs available")
	}
	gl.AttachShader(prog, vertex)
	gl.AttachShader(prog, fragment)
	gl.BindAttribLocation(prog, PositionAttrib, gl.Str("in_pos\x00"))
	gl.BindAttribLocation(prog, TexCoordAttrib, gl.Str("in_texcoord\x00"))
	gl.LinkProgram(prog)
	gl.DetachShader(prog, vertex)
	gl.DetachShader(prog, fragment)

	var logLength int32
	gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLength)
	log := infoLog(logLength, func(buf *uint8) {
		gl.GetProgramInfoLog(prog, logLength, nil, buf)
	})

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		gl.DeleteProgram(prog)
		return 0, log, ErrLink
	}
	return prog, log, nil
}

// DeleteProgram releases a program object.
func (g *GL) DeleteProgram(id uint32) {
	if g.current == id {
		gl.UseProgram(0)
		g.current = 0
	}
	gl.DeleteProgram(id)
}

// UseProgram makes id the current program.
func (g *GL) UseProgram(id uint32) {
	if g.current == id {
		return
	}
	gl.UseProgram(id)
	g.current = id
}

// UniformLocation returns the location of a uniform within program.
func (g *GL) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

// Uniform1f sets a float uniform of the current program.
func (g *GL) Uniform1f(loc int32, v float32) { gl.Uniform1f(loc, v) }

// Uniform2f sets a vec2 uniform of the current program.
func (g *GL) Uniform2f(loc int32, x, y float32) { gl.Uniform2f(loc, x, y) }

// Uniform1i sets an int or sampler uniform of the current program.
func (g *GL) Uniform1i(loc int32, v int32) { gl.Uniform1i(loc, v) }
