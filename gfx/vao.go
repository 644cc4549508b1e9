package gfx

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

type quadVertex struct {
	pos mgl32.Vec3
	tex mgl32.Vec2
}

// drawn as a triangle strip
var quad = [4]quadVertex{
	{mgl32.Vec3{-1, -1, 0.5}, mgl32.Vec2{0, 0}},
	{mgl32.Vec3{-1, 1, 0.5}, mgl32.Vec2{0, 1}},
	{mgl32.Vec3{1, -1, 0.5}, mgl32.Vec2{1, 0}},
	{mgl32.Vec3{1, 1, 0.5}, mgl32.Vec2{1, 1}},
}

const quadStride = 5

func quadVertices() []float32 {
	vs := make([]float32, 0, len(quad)*quadStride)
	for _, v := range quad {
		vs = append(vs, v.pos[:]...)
		vs = append(vs, v.tex[:]...)
	}
	return vs
}

// vertexArray is the screen quad loaded into graphics memory.
type vertexArray struct {
	vao, vbo uint32
	length   int32
}

func newQuad() *vertexArray {
	vertices := quadVertices()
	stride := int32(4 * quadStride)

	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(vertices), gl.Ptr(vertices), gl.STATIC_DRAW)

	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)

	gl.EnableVertexAttribArray(PositionAttrib)
	gl.VertexAttribPointer(PositionAttrib, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(TexCoordAttrib)
	gl.VertexAttribPointer(TexCoordAttrib, 2, gl.FLOAT, false, stride, gl.PtrOffset(3*4))

	gl.BindVertexArray(0)

	return &vertexArray{vao: vao, vbo: vbo, length: int32(len(quad))}
}

func (v *vertexArray) draw() {
	gl.BindVertexArray(v.vao)
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, v.length)
}

func (v *vertexArray) delete() {
	gl.DeleteVertexArrays(1, &v.vao)
	gl.DeleteBuffers(1, &v.vbo)
}
