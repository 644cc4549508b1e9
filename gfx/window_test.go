package gfx

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"
)

func TestKeyAction(t *testing.T) {
	cases := []struct {
		key  glfw.Key
		mods glfw.ModifierKey
		want Action
		ok   bool
	}{
		{glfw.KeyR, 0, ActionReload, true},
		{glfw.KeyV, 0, ActionToggleVerbose, true},
		{glfw.KeyEscape, 0, ActionQuit, true},
		{glfw.KeyC, glfw.ModControl, ActionQuit, true},
		{glfw.KeyC, 0, 0, false},
		{glfw.KeyA, 0, 0, false},
	}
	for _, c := range cases {
		a, ok := keyAction(c.key, c.mods)
		assert.Equal(t, c.ok, ok, "key %v", c.key)
		if ok {
			assert.Equal(t, c.want, a, "key %v", c.key)
		}
	}
}

func TestQuadVertices(t *testing.T) {
	assert.Equal(t, []float32{
		-1, -1, 0.5, 0, 0,
		-1, 1, 0.5, 0, 1,
		1, -1, 0.5, 1, 0,
		1, 1, 0.5, 1, 1,
	}, quadVertices())
}
