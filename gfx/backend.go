// Package gfx is the OpenGL graphics backend: a glfw window, shader and
// program management, 1-D float textures and the full screen quad.
package gfx

import "errors"

// ShaderType tells CompileShader what type of shader it's creating.
type ShaderType int

// Types of shaders
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
)

func (t ShaderType) String() string {
	switch t {
	case VertexShaderType:
		return "vertex"
	case FragmentShaderType:
		return "fragment"
	}
	return "unknown"
}

// Attribute locations bound before every link.
const (
	PositionAttrib = 0
	TexCoordAttrib = 1
)

var (
	// ErrCompile is returned when the driver rejects a shader.
	ErrCompile = errors.New("shader compilation failed")
	// ErrLink is returned when the driver fails to link a program.
	ErrLink = errors.New("program link failed")
)

// Backend is everything the renderer needs from the graphics API. All methods
// must be called from the thread that owns the graphics context.
type Backend interface {
	// CompileShader compiles src. The info log is returned whether or not
	// compilation succeeded.
	CompileShader(typ ShaderType, src string) (uint32, string, error)
	// LinkProgram links a vertex and a fragment shader with the attribute
	// locations bound to PositionAttrib and TexCoordAttrib.
	LinkProgram(vertex, fragment uint32) (uint32, string, error)
	DeleteShader(id uint32)
	DeleteProgram(id uint32)

	UseProgram(id uint32)
	// UniformLocation returns -1 for names the program does not use.
	UniformLocation(program uint32, name string) int32
	Uniform1f(loc int32, v float32)
	Uniform2f(loc int32, x, y float32)
	Uniform1i(loc int32, v int32)

	NewTexture1D(size int) (uint32, error)
	// UpdateTexture1D binds tex to the texture unit and uploads data.
	UpdateTexture1D(tex uint32, unit int, data []float32)
	DeleteTexture(tex uint32)

	Viewport(width, height int)
	Clear()
	DrawQuad()
}
