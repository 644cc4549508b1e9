package gfx

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// NewTexture1D creates a single channel float texture of size texels,
// initialised to zero.
func (g *GL) NewTexture1D(size int) (uint32, error) {
	if size <= 0 {
		return 0, fmt.Errorf("invalid texture size %d", size)
	}
	var texID uint32
	gl.GenTextures(1, &texID)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_1D, texID)
	gl.TexParameteri(gl.TEXTURE_1D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_1D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_1D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)

	zero := make([]float32, size)
	gl.TexImage1D(gl.TEXTURE_1D, 0, gl.R32F, int32(size), 0, gl.RED, gl.FLOAT, gl.Ptr(zero))
	g.textures = append(g.textures, texID)
	return texID, nil
}

// UpdateTexture1D writes data into tex and leaves it bound to unit.
func (g *GL) UpdateTexture1D(tex uint32, unit int, data []float32) {
	if len(data) == 0 {
		return
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_1D, tex)
	gl.TexSubImage1D(gl.TEXTURE_1D, 0, 0, int32(len(data)), gl.RED, gl.FLOAT, gl.Ptr(data))
}

// DeleteTexture releases tex.
func (g *GL) DeleteTexture(tex uint32) {
	for i, t := range g.textures {
		if t == tex {
			g.textures = append(g.textures[:i], g.textures[i+1:]...)
			break
		}
	}
	gl.DeleteTextures(1, &tex)
}
