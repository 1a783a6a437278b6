package materials

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"album-cube/core"
	"album-cube/scene"
)

func TestResolveTable(t *testing.T) {
	tests := []struct {
		style Style
		want  Params
	}{
		{StyleSolid, Params{Opacity: 1, Metalness: 0.1, Roughness: 0.5}},
		{StyleWireframe, Params{Wireframe: true, Opacity: 1, Metalness: 0.1, Roughness: 0.5}},
		{StyleCartoon, Params{FlatShading: true, Opacity: 1, Metalness: 0.1, Roughness: 0.5}},
		{StyleGlass, Params{Transparent: true, Opacity: 0.3, Metalness: 0.2, Roughness: 0.1}},
		{StyleMetallic, Params{Opacity: 1, Metalness: 0.9, Roughness: 0.2}},
		{StyleRealist, SolidParams()},
		{StyleDraw, SolidParams()},
		{StyleQuantumDistortion, SolidParams()},
		{Style("neon"), SolidParams()},
	}
	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.style))
		})
	}
}

func TestParseStyle(t *testing.T) {
	assert.Equal(t, StyleSolid, ParseStyle(""))
	assert.Equal(t, StyleGlass, ParseStyle(" Glass "))
	assert.Equal(t, StyleQuantumDistortion, ParseStyle("quantum dist"))
	assert.Equal(t, StyleQuantumDistortion, ParseStyle("quantum_distortion"))
	assert.Equal(t, Style("neon"), ParseStyle("neon"))
}

func TestApplyResetsPreviousStyle(t *testing.T) {
	m := scene.NewMaterial("face", core.ColorRed)
	Apply(m, Resolve(StyleGlass))
	assert.True(t, m.Transparent)
	assert.Equal(t, float32(0.3), m.Opacity)

	v := m.Version
	Apply(m, Resolve(StyleSolid))
	assert.Equal(t, SolidParams(), ParamsOf(m))
	assert.False(t, m.Transparent)
	assert.Equal(t, float32(1), m.Opacity)
	assert.Greater(t, m.Version, v)
	assert.Equal(t, core.ColorRed, m.Color)
}

func TestApplyWireframeThenCartoon(t *testing.T) {
	m := scene.NewMaterial("face", core.ColorWhite)
	Apply(m, Resolve(StyleWireframe))
	Apply(m, Resolve(StyleCartoon))
	assert.False(t, m.Wireframe)
	assert.True(t, m.FlatShading)
}
