package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"album-cube/core"
)

// Scene manages a collection of nodes, the active camera and the sky.
type Scene struct {
	Root   *Node
	Camera *Camera
	Lights []*Light

	// Background, when set, is drawn behind everything (equirectangular).
	// Otherwise the frame is cleared to ClearColor.
	Background *Texture
	// Environment is sampled for reflections on metallic surfaces.
	Environment *Texture
	ClearColor  core.Color
}

// Light types
const (
	LightTypeAmbient = iota
	LightTypePoint
)

// Light represents a light source
type Light struct {
	Type      int
	Position  mgl32.Vec3
	Color     core.Color
	Intensity float32
	Range     float32
}

func NewScene() *Scene {
	return &Scene{
		Root:       NewNode("Root"),
		Lights:     make([]*Light, 0),
		ClearColor: core.Color{A: 0},
	}
}

func NewAmbientLight(color core.Color, intensity float32) *Light {
	return &Light{Type: LightTypeAmbient, Color: color, Intensity: intensity}
}

func NewPointLight(color core.Color, intensity float32, position mgl32.Vec3, rng float32) *Light {
	return &Light{Type: LightTypePoint, Color: color, Intensity: intensity, Position: position, Range: rng}
}

func (s *Scene) SetCamera(camera *Camera) {
	s.Camera = camera
}

func (s *Scene) AddNode(node *Node) {
	s.Root.AddChild(node)
}

func (s *Scene) AddLight(light *Light) {
	s.Lights = append(s.Lights, light)
}

// SetSky replaces both background and environment; nil clears them.
func (s *Scene) SetSky(tex *Texture) {
	s.Background = tex
	s.Environment = tex
}

// GetVisibleNodes returns all visible nodes that draw something
func (s *Scene) GetVisibleNodes() []*Node {
	var visible []*Node
	s.Root.Traverse(func(node *Node) {
		if (node.Mesh != nil || node.Points != nil) && node.IsVisible() {
			visible = append(visible, node)
		}
	})
	return visible
}

// AmbientColor sums the ambient lights, scaled by intensity.
func (s *Scene) AmbientColor() core.Color {
	var c core.Color
	for _, l := range s.Lights {
		if l.Type != LightTypeAmbient {
			continue
		}
		c.R += l.Color.R * l.Intensity
		c.G += l.Color.G * l.Intensity
		c.B += l.Color.B * l.Intensity
	}
	c.A = 1
	return c
}
