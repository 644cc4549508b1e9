package gfx

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// VertexSource is the fixed vertex stage. It passes the quad texture
// coordinates on to the fragment stage as out_texcoord.
const VertexSource = `#version 410 core
in vec3 in_pos;
in vec2 in_texcoord;
out vec2 out_texcoord;
void main() {
	out_texcoord = in_texcoord;
	gl_Position = vec4(in_pos.x, in_pos.y, in_pos.z, 1.0);
}
`

// CompileShader compiles src into a new shader object.
func (g *GL) CompileShader(typ ShaderType, src string) (uint32, string, error) {
	var glShaderType uint32
	switch typ {
	case VertexShaderType:
		glShaderType = gl.VERTEX_SHADER
	case FragmentShaderType:
		glShaderType = gl.FRAGMENT_SHADER
	default:
		return 0, "", fmt.Errorf("unknown shader type %d", typ)
	}

	shaderID := gl.CreateShader(glShaderType)
	if shaderID == 0 {
		return 0, "", fmt.Errorf("no shaders available")
	}

	csources, free := gl.Strs(src + "\x00")
	gl.ShaderSource(shaderID, 1, csources, nil)
	free()
	gl.CompileShader(shaderID)

	var logLength int32
	gl.GetShaderiv(shaderID, gl.INFO_LOG_LENGTH, &logLength)
	log := infoLog(logLength, func(buf *uint8) {
		gl.GetShaderInfoLog(shaderID, logLength, nil, buf)
	})

	var status int32
	gl.GetShaderiv(shaderID, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		gl.DeleteShader(shaderID)
		return 0, log, fmt.Errorf("%v shader: %w", typ, ErrCompile)
	}
	return shaderID, log, nil
}

// DeleteShader releases a shader object.
func (g *GL) DeleteShader(id uint32) {
	gl.DeleteShader(id)
}

func infoLog(length int32, get func(*uint8)) string {
	if length <= 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(length+1))
	get(gl.Str(log))
	return strings.TrimRight(log, "\x00\n")
}
