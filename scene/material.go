package scene

import "album-cube/core"

// Material describes the surface of one face group. Any field change must be
// followed by MarkDirty so the backend refreshes its uniforms.
type Material struct {
	resource

	Name  string
	Color core.Color
	// Map is multiplied with Color when set.
	Map *Texture

	Wireframe   bool
	FlatShading bool
	Transparent bool
	Opacity     float32
	Metalness   float32
	Roughness   float32

	Version uint64
}

// NewMaterial creates an opaque standard material with the given base color.
func NewMaterial(name string, color core.Color) *Material {
	return &Material{
		resource:  newResource(),
		Name:      name,
		Color:     color,
		Opacity:   1,
		Metalness: 0.1,
		Roughness: 0.5,
	}
}

func (m *Material) MarkDirty() {
	m.Version++
}
