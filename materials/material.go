package materials

import (
	"strings"

	"album-cube/scene"
)

// Style names a face material look.
type Style string

const (
	StyleSolid             Style = "solid"
	StyleWireframe         Style = "wireframe"
	StyleCartoon           Style = "cartoon"
	StyleRealist           Style = "realist"
	StyleDraw              Style = "draw"
	StyleGlass             Style = "glass"
	StyleMetallic          Style = "metallic"
	StyleQuantumDistortion Style = "quantum-distortion"
)

// ParseStyle normalizes a style name. Spaces and underscores are read as
// hyphens, so "quantum dist" style labels round-trip. Unknown names are kept
// as-is and resolve to the solid parameters.
func ParseStyle(s string) Style {
	n := strings.ToLower(strings.TrimSpace(s))
	n = strings.NewReplacer(" ", "-", "_", "-").Replace(n)
	switch n {
	case "":
		return StyleSolid
	case "quantum-dist", "quantum":
		return StyleQuantumDistortion
	}
	return Style(n)
}

// Params is the full set of surface parameters a style controls.
type Params struct {
	Wireframe   bool
	FlatShading bool
	Transparent bool
	Opacity     float32
	Metalness   float32
	Roughness   float32
}

// --- Style Library ---

// SolidParams is the baseline every style starts from.
func SolidParams() Params {
	return Params{
		Opacity:   1.0,
		Metalness: 0.1,
		Roughness: 0.5,
	}
}

func WireframeParams() Params {
	p := SolidParams()
	p.Wireframe = true
	return p
}

func CartoonParams() Params {
	p := SolidParams()
	p.FlatShading = true
	return p
}

func GlassParams() Params {
	p := SolidParams()
	p.Transparent = true
	p.Opacity = 0.3
	p.Metalness = 0.2
	p.Roughness = 0.1
	return p
}

func MetallicParams() Params {
	p := SolidParams()
	p.Metalness = 0.9
	p.Roughness = 0.2
	return p
}

// Resolve returns the parameters for style. Styles without a specialized look
// (realist, draw, quantum-distortion and anything unknown) get SolidParams.
// Each call starts from SolidParams, so nothing carries over between styles.
func Resolve(style Style) Params {
	switch style {
	case StyleWireframe:
		return WireframeParams()
	case StyleCartoon:
		return CartoonParams()
	case StyleGlass:
		return GlassParams()
	case StyleMetallic:
		return MetallicParams()
	default:
		return SolidParams()
	}
}

// Apply overwrites every style-controlled field of m and marks it dirty.
// Color and Map are left alone.
func Apply(m *scene.Material, p Params) {
	m.Wireframe = p.Wireframe
	m.FlatShading = p.FlatShading
	m.Transparent = p.Transparent
	m.Opacity = p.Opacity
	m.Metalness = p.Metalness
	m.Roughness = p.Roughness
	m.MarkDirty()
}

// ParamsOf reads the style-controlled fields back from a material.
func ParamsOf(m *scene.Material) Params {
	return Params{
		Wireframe:   m.Wireframe,
		FlatShading: m.FlatShading,
		Transparent: m.Transparent,
		Opacity:     m.Opacity,
		Metalness:   m.Metalness,
		Roughness:   m.Roughness,
	}
}
